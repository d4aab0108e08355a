package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sma-lab/smactl/internal/config"
	"github.com/sma-lab/smactl/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smactl",
	Short: "smactl manages the SMA lab workbench",
	Long: `smactl provisions the conda environment for sea surface temperature
analysis, registers its Jupyter kernel, and retrieves the SST dataset
from the Destination Earth data lake.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the smactl configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the configuration named by the --config flag.
// A missing file yields the built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// newLogger builds the structured logger for a command invocation.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return logging.New(level)
}
