package main

import (
	"fmt"
	"strings"

	smactl "github.com/sma-lab/smactl"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of smactl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("smactl version %s\n", strings.TrimSpace(smactl.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
