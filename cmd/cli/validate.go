package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/level"
)

func validateCmd(flags *globalFlags) *cobra.Command {
	var layoutPath string

	cmd := &cobra.Command{
		Use:   "validate [level]",
		Short: "Check a level file, and optionally a layout against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			lvl, report, err := level.Load(args[0])
			if report != nil {
				printReport(os.Stdout, report)
			}
			if err != nil {
				var invalid *level.InvalidError
				if errors.As(err, &invalid) {
					return errors.New("level has validation errors")
				}
				return err
			}
			if layoutPath == "" {
				return nil
			}

			cfg, err := flags.config()
			if err != nil {
				return err
			}
			roads, err := level.LoadLayout(layoutPath)
			if err != nil {
				return err
			}
			session, err := engine.NewSession(lvl, cfg)
			if err != nil {
				return err
			}
			if err := session.ApplyRoads(roads); err != nil {
				return fmt.Errorf("layout does not fit the level: %w", err)
			}
			snap := session.Snapshot()
			fmt.Printf("Layout: %d roads", len(snap.Roads))
			if snap.Remaining >= 0 {
				fmt.Printf(", %d of budget %d left", snap.Remaining, snap.Budget)
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().StringVarP(&layoutPath, "layout", "l", "", "layout file to check against the level")
	return cmd
}

func printReport(w io.Writer, r *level.Report) {
	sections := []struct {
		title   string
		results []level.Result
	}{
		{"ERRORS", r.Errors},
		{"WARNINGS", r.Warnings},
		{"INFO", r.Info},
	}
	for _, s := range sections {
		if len(s.results) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d):\n", s.title, len(s.results))
		for _, res := range s.results {
			fmt.Fprintf(w, "  %s\n", res)
			if res.Value != nil {
				fmt.Fprintf(w, "    -> %v\n", res.Value)
			}
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}
