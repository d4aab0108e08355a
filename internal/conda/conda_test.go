package conda_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sma-lab/smactl/internal/conda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCommander records invocations and replays canned responses.
type fakeCommander struct {
	lookPathErr error
	responses   map[string]fakeResponse
	calls       []string
}

type fakeResponse struct {
	stdout string
	err    error
}

func (f *fakeCommander) LookPath(name string) (string, error) {
	if f.lookPathErr != nil {
		return "", f.lookPathErr
	}
	return "/opt/conda/bin/" + name, nil
}

func (f *fakeCommander) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	call := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, call)
	for prefix, resp := range f.responses {
		if strings.HasPrefix(call, prefix) {
			return resp.stdout, "", resp.err
		}
	}
	return "", "", nil
}

func TestVerify(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		client := conda.New(conda.WithCommander(&fakeCommander{}))
		assert.NoError(t, client.Verify(context.Background()))
	})

	t.Run("Missing", func(t *testing.T) {
		fake := &fakeCommander{lookPathErr: errors.New("executable file not found in $PATH")}
		client := conda.New(conda.WithCommander(fake))

		err := client.Verify(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, conda.ErrCondaNotFound)
	})
}

func TestEnvExists(t *testing.T) {
	listJSON := `{"envs": ["/opt/conda", "/opt/conda/envs/sma_env", "/opt/conda/envs/other"]}`
	fake := &fakeCommander{
		responses: map[string]fakeResponse{
			"conda env list --json": {stdout: listJSON},
		},
	}
	client := conda.New(conda.WithCommander(fake))

	exists, err := client.EnvExists(context.Background(), "sma_env")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.EnvExists(context.Background(), "missing_env")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnvExists_BadOutput(t *testing.T) {
	fake := &fakeCommander{
		responses: map[string]fakeResponse{
			"conda env list --json": {stdout: "not json"},
		},
	}
	client := conda.New(conda.WithCommander(fake))

	_, err := client.EnvExists(context.Background(), "sma_env")
	assert.Error(t, err)
}

func TestEnvCreate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		fake := &fakeCommander{}
		client := conda.New(conda.WithCommander(fake))

		err := client.EnvCreate(context.Background(), "environment.yml")
		require.NoError(t, err)
		require.Len(t, fake.calls, 1)
		assert.Equal(t, "conda env create -f environment.yml", fake.calls[0])
	})

	t.Run("Failure", func(t *testing.T) {
		fake := &fakeCommander{
			responses: map[string]fakeResponse{
				"conda env create": {err: fmt.Errorf("execution failed: exit status 1")},
			},
		}
		client := conda.New(conda.WithCommander(fake))
		assert.Error(t, client.EnvCreate(context.Background(), "environment.yml"))
	})
}

func TestRunIn(t *testing.T) {
	fake := &fakeCommander{
		responses: map[string]fakeResponse{
			"conda run -n sma_env python --version": {stdout: "Python 3.11.9\n"},
		},
	}
	client := conda.New(conda.WithCommander(fake))

	out, err := client.RunIn(context.Background(), "sma_env", "python", "--version")
	require.NoError(t, err)
	assert.Equal(t, "Python 3.11.9", out)
}

func TestActiveEnv(t *testing.T) {
	fake := &fakeCommander{
		responses: map[string]fakeResponse{
			"conda run -n sma_env python -c": {stdout: "sma_env"},
		},
	}
	client := conda.New(conda.WithCommander(fake))

	name, err := client.ActiveEnv(context.Background(), "sma_env")
	require.NoError(t, err)
	assert.Equal(t, "sma_env", name)
}

func TestWithBinary(t *testing.T) {
	fake := &fakeCommander{}
	client := conda.New(conda.WithBinary("mamba"), conda.WithCommander(fake))

	err := client.EnvCreate(context.Background(), "environment.yml")
	require.NoError(t, err)
	assert.Equal(t, "mamba env create -f environment.yml", fake.calls[0])
}
