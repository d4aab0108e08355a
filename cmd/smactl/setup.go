package main

import (
	"fmt"
	"os"

	smactl "github.com/sma-lab/smactl"
	"github.com/sma-lab/smactl/internal/presentation/tui"
	"github.com/sma-lab/smactl/internal/setup"
	"github.com/spf13/cobra"
)

// stepLabels are the human-readable names shown during the procedure.
var stepLabels = map[setup.Step]string{
	setup.StepToolCheck: "Checking for conda",
	setup.StepCreate:    "Creating environment",
	setup.StepVerifyEnv: "Verifying environment",
	setup.StepActivate:  "Activating environment",
	setup.StepInstall:   "Installing jupyter and ipykernel",
	setup.StepKernel:    "Registering Jupyter kernel",
}

// setupCmd represents the setup command
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the conda environment and Jupyter kernel",
	Long: `Creates the conda environment from environment.yml, verifies it
activates correctly, installs notebook tooling, and registers the
environment as a selectable Jupyter kernel.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if manifest, _ := cmd.Flags().GetString("file"); cmd.Flags().Changed("file") {
			cfg.Manifest = manifest
		}

		if tui.IsInteractive() {
			tui.PrintBanner(smactl.Version)
		}

		wb := smactl.New(cfg, smactl.WithLogger(newLogger(cmd)))

		hooks := setup.Hooks{
			OnStepStart: func(step setup.Step) {
				fmt.Printf("  %s...\n", stepLabels[step])
			},
		}

		report, err := wb.Provision(cmd.Context(), hooks)
		if err != nil {
			fmt.Printf("Setup failed: %v\n", err)
			os.Exit(1)
		}

		printSummary(report)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().StringP("file", "f", "", "Environment manifest to create from (default from config)")

	// Make 'setup' the default if no command is provided
	rootCmd.Run = setupCmd.Run
}

// printSummary renders the post-setup summary as markdown.
func printSummary(report *setup.Report) {
	md := fmt.Sprintf(`# Environment ready

The environment **%s** is provisioned and its kernel is registered as
**%s**.

## Next steps

- Launch a notebook server with `+"`jupyter lab`"+` and pick the kernel.
- Retrieve the dataset with `+"`smactl download`"+`.
`, report.EnvName, report.DisplayName)

	render := tui.NewRenderer()
	out, err := render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
