package main

import (
	"github.com/spf13/cobra"

	"github.com/soltixdb/depotcast/internal/utils"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "depotcast-cli",
	Short:         "Offline forecasts and queue requests for depotcast",
	Version:       utils.Version,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
