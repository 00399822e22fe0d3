package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/level"
	"github.com/cxd309/roadgrid-engine/internal/outcome"
)

func runCmd(flags *globalFlags) *cobra.Command {
	var recordEvery int
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run [level] [layout]",
		Short: "Run a level with a road layout headlessly and print the run log as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			logger, err := flags.logger(os.Stderr)
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

			runLog, err := engine.Run(lvl, roads, cfg, recordEvery, engine.WithLogger(logger))
			if err != nil {
				return err
			}
			logger.Info("run finished",
				"level", lvl.Name,
				"verdict", runLog.Verdict,
				"timed_out", runLog.TimedOut,
				"duration", runLog.Duration,
				"success_rate", runLog.SuccessRate)
			if !quiet {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(runLog); err != nil {
					return err
				}
			}
			if runLog.Verdict != outcome.Won {
				return fmt.Errorf("level not won: verdict %s", runLog.Verdict)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&recordEvery, "record-every", 0, "record vehicle states every N ticks (0 disables)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the run log")
	return cmd
}

// batchCmd reads a RunInput JSON from a file argument (or stdin), runs it, and
// writes the RunLog JSON to stdout.
func batchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "batch [input.json]",
		Short: "Run a JSON run input (level, layout, config) from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger, err := flags.logger(os.Stderr)
			if err != nil {
				return err
			}

			var data []byte
			if len(args) > 0 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			result, err := engine.RunJSON(string(data), engine.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("simulation error: %w", err)
			}
			fmt.Println(result)
			return nil
		},
	}
}

func loadLevelAndLayout(levelPath, layoutPath string) (level.Level, []grid.Road, error) {
	lvl, report, err := level.Load(levelPath)
	if err != nil {
		if report != nil {
			printReport(os.Stderr, report)
		}
		return level.Level{}, nil, err
	}
	roads, err := level.LoadLayout(layoutPath)
	if err != nil {
		return level.Level{}, nil, err
	}
	return lvl, roads, nil
}
