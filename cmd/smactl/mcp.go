package main

import (
	"fmt"
	"log"
	"os"

	smactl "github.com/sma-lab/smactl"
	"github.com/sma-lab/smactl/internal/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts smactl as an MCP server over stdio.
This allows AI agents to provision the environment and inspect
download runs as tools.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		// Logs go to stderr so they don't corrupt JSON-RPC on stdout.
		log.SetOutput(os.Stderr)
		logger := newLogger(cmd)

		wb := smactl.New(cfg, smactl.WithLogger(logger))
		srv := mcp.NewServer(wb)

		logger.Info("starting MCP server (stdio)")
		if err := srv.ServeStdio(); err != nil {
			logger.Error("MCP server execution failed", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
