// Command viewer opens a level in a desktop window. Roads are edited with the
// mouse; a layout file, when given, is placed first.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	"github.com/cxd309/roadgrid-engine/internal/config"
	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/level"
	"github.com/cxd309/roadgrid-engine/internal/viewer"
)

func main() {
	var (
		layoutPath string
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "viewer [level]",
		Short:         "Play a road grid level in a desktop window",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			logLvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			logger := log.NewWithOptions(os.Stderr, log.Options{Level: logLvl, ReportTimestamp: true, Prefix: "viewer"})

			cfg := config.Default()
			if configPath != "" {
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}
			lvl, _, err := level.Load(args[0])
			if err != nil {
				return err
			}
			session, err := engine.NewSession(lvl, cfg, engine.WithLogger(logger))
			if err != nil {
				return err
			}
			if layoutPath != "" {
				roads, err := level.LoadLayout(layoutPath)
				if err != nil {
					return err
				}
				if err := session.ApplyRoads(roads); err != nil {
					return fmt.Errorf("applying layout: %w", err)
				}
			}

			game := viewer.New(session, logger)
			ebiten.SetWindowSize(game.Size())
			ebiten.SetWindowTitle("Roadgrid: " + lvl.Name)
			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
			return ebiten.RunGame(game)
		},
	}
	cmd.Flags().StringVarP(&layoutPath, "layout", "l", "", "layout file to start from")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "simulation config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
