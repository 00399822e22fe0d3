// Command roadgrid runs, checks, serves and watches road grid levels.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cxd309/roadgrid-engine/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel   string
	configPath string
}

func main() {
	var flags globalFlags
	rootCmd := &cobra.Command{
		Use:           "roadgrid",
		Short:         "Road grid traffic puzzle engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "simulation config file (YAML or JSON)")

	rootCmd.AddCommand(runCmd(&flags))
	rootCmd.AddCommand(batchCmd(&flags))
	rootCmd.AddCommand(validateCmd(&flags))
	rootCmd.AddCommand(serveCmd(&flags))
	rootCmd.AddCommand(watchCmd(&flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// logger builds a logger writing to w at the requested level.
func (f *globalFlags) logger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(f.logLevel)
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "roadgrid",
	}), nil
}

// config loads --config, or the defaults when it is not set.
func (f *globalFlags) config() (config.Config, error) {
	if f.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(f.configPath)
}
