package smactl_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	smactl "github.com/sma-lab/smactl"
	"github.com/sma-lab/smactl/internal/conda"
	"github.com/sma-lab/smactl/internal/config"
	"github.com/sma-lab/smactl/internal/setup"
)

// condaStub answers like a machine with conda installed and the
// environment already present. Real programs use the default commander,
// which shells out to the conda binary.
type condaStub struct{}

func (condaStub) LookPath(name string) (string, error) {
	return "/opt/conda/bin/" + name, nil
}

func (condaStub) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	call := name + " " + strings.Join(args, " ")
	switch {
	case strings.HasPrefix(call, "conda env list"):
		return `{"envs": ["/opt/conda/envs/sma_env"]}`, "", nil
	case strings.Contains(call, "CONDA_DEFAULT_ENV"):
		return "sma_env", "", nil
	case strings.Contains(call, "kernelspec list"):
		return `{"kernelspecs": {"sma_env": {"spec": {"display_name": "Python (sma_env)"}}}}`, "", nil
	}
	return "", "", nil
}

// ExampleWorkbench_Provision demonstrates driving the provision procedure
// as a library, observing each step through hooks.
func ExampleWorkbench_Provision() {
	cfg, err := config.Load("does-not-exist.yaml") // defaults
	if err != nil {
		log.Fatal(err)
	}

	wb := smactl.New(cfg,
		smactl.WithCondaClient(conda.New(conda.WithCommander(condaStub{}))),
	)

	report, err := wb.Provision(context.Background(), setup.Hooks{
		OnStepStart: func(step setup.Step) {
			fmt.Println(step)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("kernel:", report.DisplayName)

	// Output:
	// tool_check
	// create_env
	// verify_env
	// activate
	// install_packages
	// register_kernel
	// kernel: Python (sma_env)
}
