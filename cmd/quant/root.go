package main

import (
	"QuantPanel/pkg/config"
	applogger "QuantPanel/pkg/logger"

	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:          "quant",
	Short:        "mean-reversion indicator toolkit",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "config file (optional, defaults apply without it)")
	RootCmd.PersistentFlags().Bool("debug", false, "log at debug level")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.LoadOrDefault(path)
}

// newLogger logs to stderr so stdout stays clean for the report.
func newLogger(cmd *cobra.Command) (*applogger.Logger, error) {
	level := "warn"
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stderr"})
}
