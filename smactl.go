package smactl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sma-lab/smactl/internal/checkpoint"
	redisstore "github.com/sma-lab/smactl/internal/checkpoint/redis"
	"github.com/sma-lab/smactl/internal/conda"
	"github.com/sma-lab/smactl/internal/config"
	"github.com/sma-lab/smactl/internal/envfile"
	"github.com/sma-lab/smactl/internal/kernel"
	"github.com/sma-lab/smactl/internal/logging"
	"github.com/sma-lab/smactl/internal/setup"
)

// Version is the current smactl release.
var Version = "0.2.0"

// Workbench is the high-level entry point for the smactl library.
type Workbench struct {
	cfg    *config.Config
	conda  *conda.Client
	logger *slog.Logger
}

// Option defines a functional option for configuring the Workbench.
type Option func(*Workbench)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workbench) {
		w.logger = logger
	}
}

// WithCondaClient injects a custom conda client (used by tests).
func WithCondaClient(client *conda.Client) Option {
	return func(w *Workbench) {
		w.conda = client
	}
}

// New initializes a Workbench for the given configuration.
func New(cfg *config.Config, opts ...Option) *Workbench {
	w := &Workbench{cfg: cfg}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	if w.conda == nil {
		w.conda = conda.New(conda.WithLogger(w.logger))
	}

	return w
}

// Conda returns the underlying conda client.
func (w *Workbench) Conda() *conda.Client {
	return w.conda
}

// Config returns the active configuration.
func (w *Workbench) Config() *config.Config {
	return w.cfg
}

// EnvName resolves the environment name: the configured name wins, but a
// default-named configuration defers to the manifest's own name field.
func (w *Workbench) EnvName() string {
	name := w.cfg.Environment.Name
	if name != config.DefaultEnvName {
		return name
	}
	if m, err := envfile.Load(w.cfg.Manifest); err == nil && m.Name != "" {
		return m.Name
	}
	return name
}

// Provision runs the full setup procedure and returns its report.
func (w *Workbench) Provision(ctx context.Context, hooks setup.Hooks) (*setup.Report, error) {
	envName := w.EnvName()

	opts := []setup.Option{
		setup.WithLogger(w.logger),
		setup.WithHooks(hooks),
	}
	// Only forward explicit overrides; kernel name and display name
	// otherwise derive from the resolved environment name.
	if kn := w.cfg.Environment.KernelName; kn != "" && kn != w.cfg.Environment.Name {
		opts = append(opts, setup.WithKernelName(kn))
	}
	if dn := w.cfg.Environment.DisplayName; dn != "" && dn != fmt.Sprintf("Python (%s)", w.cfg.Environment.Name) {
		opts = append(opts, setup.WithDisplayName(dn))
	}
	if len(w.cfg.Environment.Packages) > 0 {
		opts = append(opts, setup.WithPackages(w.cfg.Environment.Packages...))
	}

	registrar := kernel.NewRegistrar(w.conda, w.logger)
	proc := setup.New(w.conda, registrar, w.cfg.Manifest, envName, opts...)
	return proc.Run(ctx)
}

// RunStore returns the checkpoint store selected by the configuration:
// Redis when an address is configured, the local file store otherwise.
func (w *Workbench) RunStore() checkpoint.Store {
	if w.cfg.Redis.Addr != "" {
		return redisstore.New(w.cfg.Redis.Addr, w.cfg.Redis.Password, w.cfg.Redis.DB)
	}
	return checkpoint.NewFileStore("")
}
