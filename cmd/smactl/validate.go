package main

import (
	"fmt"
	"os"

	"github.com/sma-lab/smactl/internal/envfile"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check the environment manifest for consistency",
	Long:  `Parses the environment manifest and reports missing fields or an empty dependency list.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path = cfg.Manifest
	}

	manifest, err := envfile.Load(path)
	if err != nil {
		return err
	}
	if err := manifest.Validate(); err != nil {
		return err
	}

	fmt.Printf("Manifest is valid! ✅\n")
	fmt.Printf("  environment: %s\n", manifest.Name)
	fmt.Printf("  conda packages: %d\n", len(manifest.CondaPackages()))
	if pip := manifest.PipPackages(); len(pip) > 0 {
		fmt.Printf("  pip packages: %d\n", len(pip))
	}
	return nil
}
