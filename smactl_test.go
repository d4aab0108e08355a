package smactl_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	smactl "github.com/sma-lab/smactl"
	"github.com/sma-lab/smactl/internal/checkpoint"
	"github.com/sma-lab/smactl/internal/conda"
	"github.com/sma-lab/smactl/internal/config"
	"github.com/sma-lab/smactl/internal/setup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedConda emulates a working conda installation for the end-to-end
// provision flow.
type scriptedConda struct {
	calls []string
}

func (s *scriptedConda) LookPath(name string) (string, error) {
	return "/opt/conda/bin/" + name, nil
}

func (s *scriptedConda) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	call := name + " " + strings.Join(args, " ")
	s.calls = append(s.calls, call)

	switch {
	case strings.HasPrefix(call, "conda env list"):
		return `{"envs": ["/opt/conda", "/opt/conda/envs/sma_env"]}`, "", nil
	case strings.Contains(call, "CONDA_DEFAULT_ENV"):
		return "sma_env", "", nil
	case strings.Contains(call, "kernelspec list"):
		return `{"kernelspecs": {"sma_env": {"spec": {"display_name": "Python (sma_env)"}}}}`, "", nil
	}
	return "", "", nil
}

func writeManifest(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "environment.yml")
	content := "name: sma_env\ndependencies:\n  - python=3.11\n  - xarray\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestWorkbench_Provision(t *testing.T) {
	tmpDir := t.TempDir()
	manifest := writeManifest(t, tmpDir)

	cfg, err := config.Load(filepath.Join(tmpDir, "missing.yaml"))
	require.NoError(t, err)
	cfg.Manifest = manifest

	fake := &scriptedConda{}
	wb := smactl.New(cfg, smactl.WithCondaClient(conda.New(conda.WithCommander(fake))))

	var steps []setup.Step
	report, err := wb.Provision(context.Background(), setup.Hooks{
		OnStepDone: func(s setup.Step, err error) { steps = append(steps, s) },
	})
	require.NoError(t, err)

	assert.Equal(t, "sma_env", report.EnvName)
	assert.Equal(t, "Python (sma_env)", report.DisplayName)
	assert.Len(t, steps, 6)

	// The conda calls happened in procedure order.
	joined := strings.Join(fake.calls, "\n")
	createIdx := strings.Index(joined, "env create")
	listIdx := strings.Index(joined, "env list")
	pipIdx := strings.Index(joined, "pip install jupyter ipykernel")
	kernelIdx := strings.Index(joined, "ipykernel install")
	require.NotEqual(t, -1, createIdx)
	require.NotEqual(t, -1, pipIdx)
	assert.Less(t, createIdx, listIdx)
	assert.Less(t, listIdx, pipIdx)
	assert.Less(t, pipIdx, kernelIdx)
}

func TestWorkbench_EnvName_FromManifest(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "environment.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: custom_env\ndependencies: [python]\n"), 0644))

	cfg, err := config.Load(filepath.Join(tmpDir, "missing.yaml"))
	require.NoError(t, err)
	cfg.Manifest = path

	wb := smactl.New(cfg)
	assert.Equal(t, "custom_env", wb.EnvName())
}

func TestWorkbench_EnvName_ConfigWins(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Environment.Name = "pinned_env"

	wb := smactl.New(cfg)
	assert.Equal(t, "pinned_env", wb.EnvName())
}

func TestWorkbench_RunStore(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	wb := smactl.New(cfg)
	// No redis configured: local file store.
	_, isFile := wb.RunStore().(*checkpoint.FileStore)
	assert.True(t, isFile)
}
