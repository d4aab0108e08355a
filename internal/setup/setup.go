// Package setup implements the environment provision procedure: a fixed
// sequence of conda and Jupyter operations where each step must succeed
// before the next runs. There is no retry or rollback; the first failure
// halts the sequence.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sma-lab/smactl/internal/logging"
)

// Failure sentinels. The CLI maps any of these (and any other error) to
// exit code 1.
var (
	// ErrEnvCreateFailed is returned when the environment does not exist
	// after the creation step.
	ErrEnvCreateFailed = errors.New("environment creation failed")

	// ErrActivationFailed is returned when the activation indicator does
	// not match the configured environment name.
	ErrActivationFailed = errors.New("environment activation failed")
)

// Step identifies a stage of the procedure, mostly for hooks and logging.
type Step string

const (
	StepToolCheck Step = "tool_check"
	StepCreate    Step = "create_env"
	StepVerifyEnv Step = "verify_env"
	StepActivate  Step = "activate"
	StepInstall   Step = "install_packages"
	StepKernel    Step = "register_kernel"
)

// Hooks allow observers (TUI, MCP) to follow procedure progress.
// Nil hooks are skipped.
type Hooks struct {
	OnStepStart func(step Step)
	OnStepDone  func(step Step, err error)
}

// EnvManager is the conda surface the procedure needs.
// *conda.Client satisfies this.
type EnvManager interface {
	Verify(ctx context.Context) error
	EnvCreate(ctx context.Context, manifestPath string) error
	EnvExists(ctx context.Context, name string) (bool, error)
	ActiveEnv(ctx context.Context, env string) (string, error)
}

// KernelRegistrar is the Jupyter surface the procedure needs.
// *kernel.Registrar satisfies this.
type KernelRegistrar interface {
	InstallPackages(ctx context.Context, env string, pkgs ...string) error
	Register(ctx context.Context, env, name, displayName string) error
	Verify(ctx context.Context, env, name string) (string, error)
}

// Report summarizes a completed procedure.
type Report struct {
	EnvName     string
	KernelName  string
	DisplayName string
	Steps       []StepResult
	Duration    time.Duration
}

// StepResult records the outcome of a single step.
type StepResult struct {
	Step     Step
	Err      error
	Duration time.Duration
}

// Procedure is the ordered provision sequence.
type Procedure struct {
	conda     EnvManager
	registrar KernelRegistrar

	manifestPath string
	envName      string
	kernelName   string
	displayName  string
	packages     []string

	hooks  Hooks
	logger *slog.Logger
}

// Option defines a functional option for configuring the Procedure.
type Option func(*Procedure)

// WithKernelName overrides the registered kernel name (default: env name).
func WithKernelName(name string) Option {
	return func(p *Procedure) {
		p.kernelName = name
	}
}

// WithDisplayName overrides the kernel display name
// (default: "Python (<env>)").
func WithDisplayName(name string) Option {
	return func(p *Procedure) {
		p.displayName = name
	}
}

// WithPackages overrides the packages installed before registration
// (default: jupyter, ipykernel).
func WithPackages(pkgs ...string) Option {
	return func(p *Procedure) {
		p.packages = pkgs
	}
}

// WithHooks registers progress hooks.
func WithHooks(hooks Hooks) Option {
	return func(p *Procedure) {
		p.hooks = hooks
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Procedure) {
		p.logger = logger
	}
}

// New creates a Procedure for the given manifest and environment name.
func New(condaClient EnvManager, registrar KernelRegistrar, manifestPath, envName string, opts ...Option) *Procedure {
	p := &Procedure{
		conda:        condaClient,
		registrar:    registrar,
		manifestPath: manifestPath,
		envName:      envName,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.kernelName == "" {
		p.kernelName = p.envName
	}
	if p.displayName == "" {
		p.displayName = fmt.Sprintf("Python (%s)", p.envName)
	}
	return p
}

// Run executes the procedure. It returns a Report describing the steps
// taken; on failure the report covers the steps up to and including the
// one that failed.
func (p *Procedure) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		EnvName:     p.envName,
		KernelName:  p.kernelName,
		DisplayName: p.displayName,
	}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	// 1. Tool check: conda must be on PATH before anything else runs.
	if err := p.step(ctx, report, StepToolCheck, func(ctx context.Context) error {
		return p.conda.Verify(ctx)
	}); err != nil {
		return report, err
	}

	// 2. Create the environment from the manifest.
	// The creation command's own exit status is advisory: conda reports
	// failure for pre-existing environments too. The authoritative check
	// is the existence verification that follows.
	if err := p.step(ctx, report, StepCreate, func(ctx context.Context) error {
		if err := p.conda.EnvCreate(ctx, p.manifestPath); err != nil {
			p.logger.Warn("environment creation reported an error, verifying anyway", "error", err)
		}
		return nil
	}); err != nil {
		return report, err
	}

	// 3. Verify the environment now exists.
	if err := p.step(ctx, report, StepVerifyEnv, func(ctx context.Context) error {
		exists, err := p.conda.EnvExists(ctx, p.envName)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEnvCreateFailed, err)
		}
		if !exists {
			return fmt.Errorf("%w: environment '%s' not found after creation", ErrEnvCreateFailed, p.envName)
		}
		return nil
	}); err != nil {
		return report, err
	}

	// 4+5. Activate and verify the activation indicator.
	if err := p.step(ctx, report, StepActivate, func(ctx context.Context) error {
		active, err := p.conda.ActiveEnv(ctx, p.envName)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrActivationFailed, err)
		}
		if active != p.envName {
			return fmt.Errorf("%w: active environment is '%s', expected '%s'", ErrActivationFailed, active, p.envName)
		}
		return nil
	}); err != nil {
		return report, err
	}

	// 6. Install notebook tooling into the active environment.
	if err := p.step(ctx, report, StepInstall, func(ctx context.Context) error {
		return p.registrar.InstallPackages(ctx, p.envName, p.packages...)
	}); err != nil {
		return report, err
	}

	// 7. Register and verify the Jupyter kernel.
	if err := p.step(ctx, report, StepKernel, func(ctx context.Context) error {
		if err := p.registrar.Register(ctx, p.envName, p.kernelName, p.displayName); err != nil {
			return err
		}
		display, err := p.registrar.Verify(ctx, p.envName, p.kernelName)
		if err != nil {
			return err
		}
		report.DisplayName = display
		return nil
	}); err != nil {
		return report, err
	}

	p.logger.Info("environment ready",
		"env", p.envName,
		"kernel", p.kernelName,
		"display_name", report.DisplayName,
		"duration", report.Duration,
	)
	return report, nil
}

func (p *Procedure) step(ctx context.Context, report *Report, s Step, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.hooks.OnStepStart != nil {
		p.hooks.OnStepStart(s)
	}
	p.logger.Debug("step started", "step", s)

	start := time.Now()
	err := fn(ctx)
	result := StepResult{Step: s, Err: err, Duration: time.Since(start)}
	report.Steps = append(report.Steps, result)

	if p.hooks.OnStepDone != nil {
		p.hooks.OnStepDone(s, err)
	}
	if err != nil {
		p.logger.Error("step failed", "step", s, "error", err)
		return err
	}
	p.logger.Debug("step completed", "step", s, "duration", result.Duration)
	return nil
}
