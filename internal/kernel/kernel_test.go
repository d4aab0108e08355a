package kernel_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sma-lab/smactl/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   []string
	outputs map[string]string
	err     error
}

func (f *fakeRunner) RunIn(ctx context.Context, env string, name string, args ...string) (string, error) {
	call := env + ": " + name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, call)
	if f.err != nil {
		return "", f.err
	}
	for prefix, out := range f.outputs {
		if strings.HasPrefix(call, prefix) {
			return out, nil
		}
	}
	return "", nil
}

func TestInstallPackages(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		fake := &fakeRunner{}
		reg := kernel.NewRegistrar(fake, nil)

		require.NoError(t, reg.InstallPackages(context.Background(), "sma_env"))
		require.Len(t, fake.calls, 1)
		assert.Equal(t, "sma_env: python -m pip install jupyter ipykernel", fake.calls[0])
	})

	t.Run("Failure", func(t *testing.T) {
		fake := &fakeRunner{err: errors.New("pip exploded")}
		reg := kernel.NewRegistrar(fake, nil)
		assert.Error(t, reg.InstallPackages(context.Background(), "sma_env"))
	})
}

func TestRegister(t *testing.T) {
	fake := &fakeRunner{}
	reg := kernel.NewRegistrar(fake, nil)

	err := reg.Register(context.Background(), "sma_env", "sma_env", "Python (sma_env)")
	require.NoError(t, err)
	require.Len(t, fake.calls, 1)
	assert.Equal(t,
		"sma_env: python -m ipykernel install --user --name sma_env --display-name Python (sma_env)",
		fake.calls[0],
	)
}

func TestVerify(t *testing.T) {
	specJSON := `{
	  "kernelspecs": {
	    "sma_env": {
	      "resource_dir": "/home/u/.local/share/jupyter/kernels/sma_env",
	      "spec": {"display_name": "Python (sma_env)"}
	    }
	  }
	}`

	t.Run("Registered", func(t *testing.T) {
		fake := &fakeRunner{outputs: map[string]string{"sma_env: jupyter kernelspec list --json": specJSON}}
		reg := kernel.NewRegistrar(fake, nil)

		display, err := reg.Verify(context.Background(), "sma_env", "sma_env")
		require.NoError(t, err)
		assert.Equal(t, "Python (sma_env)", display)
	})

	t.Run("Missing", func(t *testing.T) {
		fake := &fakeRunner{outputs: map[string]string{"sma_env: jupyter kernelspec list --json": `{"kernelspecs": {}}`}}
		reg := kernel.NewRegistrar(fake, nil)

		_, err := reg.Verify(context.Background(), "sma_env", "sma_env")
		assert.Error(t, err)
	})
}
