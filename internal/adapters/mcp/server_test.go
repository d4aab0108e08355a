package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sma-lab/smactl/internal/checkpoint"
	"github.com/sma-lab/smactl/internal/setup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkbench struct {
	store        checkpoint.Store
	provisionErr error
}

func (f *fakeWorkbench) EnvName() string { return "sma_env" }

func (f *fakeWorkbench) Provision(ctx context.Context, hooks setup.Hooks) (*setup.Report, error) {
	report := &setup.Report{
		EnvName:     "sma_env",
		KernelName:  "sma_env",
		DisplayName: "Python (sma_env)",
		Steps: []setup.StepResult{
			{Step: setup.StepToolCheck},
			{Step: setup.StepCreate, Err: f.provisionErr},
		},
	}
	return report, f.provisionErr
}

func (f *fakeWorkbench) RunStore() checkpoint.Store { return f.store }

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleProvision(t *testing.T) {
	srv := NewServer(&fakeWorkbench{})

	result, err := srv.handleProvision(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var report provisionReport
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &report))
	assert.Equal(t, "sma_env", report.EnvName)
	assert.Equal(t, "Python (sma_env)", report.DisplayName)
	assert.Len(t, report.Steps, 2)
}

func TestHandleProvision_Failure(t *testing.T) {
	srv := NewServer(&fakeWorkbench{provisionErr: errors.New("conda exploded")})

	result, err := srv.handleProvision(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "conda exploded")
}

func TestHandleRuns(t *testing.T) {
	store := checkpoint.NewFileStore(t.TempDir())
	run := checkpoint.NewRun("run-1", "SST", 2021, 2021)
	run.MarkCompleted("2021-01-01", "data/partial/2021-01-01.nc")
	run.Merged = "data/SST.nc"
	require.NoError(t, store.Save(context.Background(), run))

	srv := NewServer(&fakeWorkbench{store: store})

	result, err := srv.handleListRuns(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &ids))
	assert.Equal(t, []string{"run-1"}, ids)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"run_id": "run-1"}
	result, err = srv.handleGetRun(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var loaded checkpoint.Run
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &loaded))
	assert.Equal(t, "SST", loaded.Dataset)
	assert.Contains(t, loaded.Completed, "2021-01-01")
	assert.Equal(t, "data/SST.nc", loaded.Merged)
}

func TestHandleGetRun_Unknown(t *testing.T) {
	srv := NewServer(&fakeWorkbench{store: checkpoint.NewFileStore(t.TempDir())})

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"run_id": "missing"}
	result, err := srv.handleGetRun(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
