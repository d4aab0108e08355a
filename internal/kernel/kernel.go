// Package kernel installs notebook tooling into a conda environment and
// registers the environment as a selectable Jupyter kernel.
package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sma-lab/smactl/internal/logging"
)

// DefaultPackages are installed into the environment before registration.
var DefaultPackages = []string{"jupyter", "ipykernel"}

// EnvRunner executes a command inside a named environment.
// *conda.Client satisfies this.
type EnvRunner interface {
	RunIn(ctx context.Context, env string, name string, args ...string) (string, error)
}

// Registrar installs packages and registers kernels through an EnvRunner.
type Registrar struct {
	runner EnvRunner
	logger *slog.Logger
}

// NewRegistrar creates a Registrar.
func NewRegistrar(runner EnvRunner, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registrar{runner: runner, logger: logger}
}

// InstallPackages pip-installs the given packages into the environment.
func (r *Registrar) InstallPackages(ctx context.Context, env string, pkgs ...string) error {
	if len(pkgs) == 0 {
		pkgs = DefaultPackages
	}
	r.logger.Info("installing packages", "env", env, "packages", pkgs)

	args := append([]string{"-m", "pip", "install"}, pkgs...)
	if _, err := r.runner.RunIn(ctx, env, "python", args...); err != nil {
		return fmt.Errorf("package installation failed: %w", err)
	}
	return nil
}

// Register adds the environment as a Jupyter kernel under the given
// kernel name and display name.
func (r *Registrar) Register(ctx context.Context, env, name, displayName string) error {
	r.logger.Info("registering kernel", "env", env, "name", name, "display_name", displayName)

	_, err := r.runner.RunIn(ctx, env, "python",
		"-m", "ipykernel", "install",
		"--user",
		"--name", name,
		"--display-name", displayName,
	)
	if err != nil {
		return fmt.Errorf("kernel registration failed: %w", err)
	}
	return nil
}

// kernelspecList mirrors `jupyter kernelspec list --json`.
type kernelspecList struct {
	Kernelspecs map[string]struct {
		ResourceDir string `json:"resource_dir"`
		Spec        struct {
			DisplayName string `json:"display_name"`
		} `json:"spec"`
	} `json:"kernelspecs"`
}

// Verify reports whether a kernelspec with the given name is registered,
// and returns its display name when present.
func (r *Registrar) Verify(ctx context.Context, env, name string) (string, error) {
	out, err := r.runner.RunIn(ctx, env, "jupyter", "kernelspec", "list", "--json")
	if err != nil {
		return "", fmt.Errorf("kernelspec listing failed: %w", err)
	}

	var list kernelspecList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		return "", fmt.Errorf("failed to parse kernelspec list: %w", err)
	}

	spec, ok := list.Kernelspecs[name]
	if !ok {
		return "", fmt.Errorf("kernel '%s' not found after registration", name)
	}
	return spec.Spec.DisplayName, nil
}
