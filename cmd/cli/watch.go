package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/tui"
)

func watchCmd(flags *globalFlags) *cobra.Command {
	var logPath string

	cmd := &cobra.Command{
		Use:   "watch [level] [layout]",
		Short: "Watch a level run in the terminal",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// The screen owns the terminal, so logs go to a file or nowhere.
			logOut, err := openLog(logPath)
			if err != nil {
				return err
			}
			defer logOut.Close()
			logger, err := flags.logger(logOut)
			if err != nil {
				return err
			}
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			lvl, roads, err := loadLevelAndLayout(args[0], args[1])
			if err != nil {
				return err
			}
			session, err := engine.NewSession(lvl, cfg, engine.WithLogger(logger))
			if err != nil {
				return err
			}
			if err := session.ApplyRoads(roads); err != nil {
				return fmt.Errorf("applying layout: %w", err)
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("creating screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("initializing screen: %w", err)
			}
			defer screen.Fini()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return tui.New(screen, session).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&logPath, "log-file", "", "write logs to this file while watching")
	return cmd
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func openLog(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{io.Discard}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
