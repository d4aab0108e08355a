// Package mcp exposes the workbench over the Model Context Protocol so
// that agents can provision environments and inspect download runs as
// tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	smactl "github.com/sma-lab/smactl"
	"github.com/sma-lab/smactl/internal/checkpoint"
	"github.com/sma-lab/smactl/internal/setup"
)

// Workbench is the surface the MCP server needs from the library.
// *smactl.Workbench satisfies this.
type Workbench interface {
	EnvName() string
	Provision(ctx context.Context, hooks setup.Hooks) (*setup.Report, error)
	RunStore() checkpoint.Store
}

// Server wraps a Workbench and exposes it as an MCP Server.
type Server struct {
	workbench Workbench
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(wb Workbench) *Server {
	s := &Server{
		workbench: wb,
		mcpServer: server.NewMCPServer("smactl-mcp", strings.TrimSpace(smactl.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	// TOOL: provision_environment
	s.mcpServer.AddTool(mcp.NewTool("provision_environment",
		mcp.WithDescription("Provision the conda environment from the configured manifest and register its Jupyter kernel. Returns a step-by-step report."),
	), s.handleProvision)

	// TOOL: list_runs
	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List the IDs of known download runs."),
	), s.handleListRuns)

	// TOOL: get_run
	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get the checkpoint state of a download run, including completed ranges."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("ID of the run to inspect")),
	), s.handleGetRun)
}

// provisionReport is the JSON shape returned by provision_environment.
type provisionReport struct {
	EnvName     string       `json:"env_name"`
	KernelName  string       `json:"kernel_name"`
	DisplayName string       `json:"display_name"`
	Steps       []stepReport `json:"steps"`
}

type stepReport struct {
	Step  string `json:"step"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleProvision(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.workbench.Provision(ctx, setup.Hooks{})

	out := provisionReport{}
	if report != nil {
		out.EnvName = report.EnvName
		out.KernelName = report.KernelName
		out.DisplayName = report.DisplayName
		for _, step := range report.Steps {
			sr := stepReport{Step: string(step.Step)}
			if step.Err != nil {
				sr.Error = step.Err.Error()
			}
			out.Steps = append(out.Steps, sr)
		}
	}
	jsonBytes, _ := json.Marshal(out)

	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("provision failed: %v. Report: %s", err, jsonBytes)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.workbench.RunStore().List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := request.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	run, err := s.workbench.RunStore().Load(ctx, runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(run)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
