package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"maintenance-copilot/internal/common/config"
)

var rootCmd = &cobra.Command{
	Use:          "copilot",
	Short:        "Predictive maintenance copilot",
	Long:         `Ask questions about machine health, inspect the workflow graph and prepare the SOP knowledge index.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (defaults to configs/config.yaml lookup)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Load()
	}
	return config.LoadFromFile(path)
}
