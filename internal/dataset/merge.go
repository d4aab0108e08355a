package dataset

import (
	"context"
	"fmt"
)

// mergeScript concatenates the part files along the time axis. It runs
// with the provisioned environment's python, so xarray and netcdf4 come
// from environment.yml rather than from this binary.
const mergeScript = `
import sys
import xarray as xr

files, out = sys.argv[1:-1], sys.argv[-1]
datasets = [xr.open_dataset(f) for f in files]
merged = xr.concat(datasets, dim="time", data_vars="all", coords="all")
merged.to_netcdf(out)
`

// EnvRunner executes a command inside a named environment.
// *conda.Client satisfies this.
type EnvRunner interface {
	RunIn(ctx context.Context, env string, name string, args ...string) (string, error)
}

// Merger concatenates part files into the final dataset by shelling into
// the provisioned conda environment.
type Merger struct {
	runner EnvRunner
	env    string
}

// NewMerger creates a Merger bound to an environment name.
func NewMerger(runner EnvRunner, env string) *Merger {
	return &Merger{runner: runner, env: env}
}

// Merge concatenates parts (in order) into out.
func (m *Merger) Merge(ctx context.Context, parts []string, out string) error {
	if len(parts) == 0 {
		return fmt.Errorf("nothing to merge")
	}

	args := append([]string{"-c", mergeScript}, parts...)
	args = append(args, out)

	if _, err := m.runner.RunIn(ctx, m.env, "python", args...); err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	return nil
}
