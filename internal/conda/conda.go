// Package conda wraps the conda command-line tool.
//
// All interaction with conda goes through a Commander so that the setup
// procedure can be tested without a conda installation on the machine.
package conda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sma-lab/smactl/internal/logging"
)

// ErrCondaNotFound is returned when the conda executable is not on PATH.
var ErrCondaNotFound = errors.New("conda executable not found on PATH")

// Commander executes external commands. It exists so tests can substitute
// a fake for the real conda binary.
type Commander interface {
	// LookPath reports where the named executable lives, or an error.
	LookPath(name string) (string, error)

	// Run executes the command and returns captured stdout and stderr.
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecCommander is the real Commander backed by os/exec.
type ExecCommander struct {
	// Dir is the working directory for executed processes. Empty means inherit.
	Dir string
}

func (e *ExecCommander) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (e *ExecCommander) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Combine error message with stderr for context
		return stdout.String(), stderr.String(), fmt.Errorf("execution failed: %v. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), stderr.String(), nil
}

// Client drives a conda installation.
type Client struct {
	bin       string
	commander Commander
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithBinary overrides the conda executable name (e.g. "mamba").
func WithBinary(bin string) Option {
	return func(c *Client) {
		c.bin = bin
	}
}

// WithCommander injects a custom Commander (used by tests).
func WithCommander(cmd Commander) Option {
	return func(c *Client) {
		c.commander = cmd
	}
}

// WithLogger sets a structured logger for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a conda client.
func New(opts ...Option) *Client {
	c := &Client{
		bin:       "conda",
		commander: &ExecCommander{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify checks that the conda executable is available.
func (c *Client) Verify(ctx context.Context) error {
	path, err := c.commander.LookPath(c.bin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCondaNotFound, err)
	}
	c.logger.Debug("conda located", "path", path)
	return nil
}

// EnvCreate creates an environment from a manifest file.
func (c *Client) EnvCreate(ctx context.Context, manifestPath string) error {
	c.logger.Info("creating environment", "manifest", manifestPath)
	_, _, err := c.commander.Run(ctx, c.bin, "env", "create", "-f", manifestPath)
	if err != nil {
		return fmt.Errorf("conda env create failed: %w", err)
	}
	return nil
}

// envList mirrors the JSON shape of `conda env list --json`.
type envList struct {
	Envs []string `json:"envs"`
}

// EnvExists reports whether a named environment is known to conda.
// Environment entries are prefix paths; the environment name is the base name.
func (c *Client) EnvExists(ctx context.Context, name string) (bool, error) {
	stdout, _, err := c.commander.Run(ctx, c.bin, "env", "list", "--json")
	if err != nil {
		return false, fmt.Errorf("conda env list failed: %w", err)
	}

	var list envList
	if err := json.Unmarshal([]byte(stdout), &list); err != nil {
		return false, fmt.Errorf("failed to parse conda env list output: %w", err)
	}

	for _, envPath := range list.Envs {
		if filepath.Base(envPath) == name {
			return true, nil
		}
	}
	return false, nil
}

// RunIn executes a command inside the named environment (`conda run -n`).
// The child process sees the environment's activation context, including
// CONDA_DEFAULT_ENV and the prefixed PATH.
func (c *Client) RunIn(ctx context.Context, env string, name string, args ...string) (string, error) {
	full := append([]string{"run", "-n", env, name}, args...)
	c.logger.Debug("running in environment", "env", env, "command", name)

	stdout, _, err := c.commander.Run(ctx, c.bin, full...)
	if err != nil {
		return "", fmt.Errorf("conda run failed in '%s': %w", env, err)
	}
	return strings.TrimSpace(stdout), nil
}

// ActiveEnv probes the activation indicator inside the named environment.
// It returns the value of CONDA_DEFAULT_ENV as seen by a process launched
// through the environment's activation routine.
func (c *Client) ActiveEnv(ctx context.Context, env string) (string, error) {
	const probe = `import os, sys; sys.stdout.write(os.environ.get("CONDA_DEFAULT_ENV", ""))`
	out, err := c.RunIn(ctx, env, "python", "-c", probe)
	if err != nil {
		return "", fmt.Errorf("activation probe failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}
