package main

import (
	"fmt"
	"os"

	smactl "github.com/sma-lab/smactl"
	"github.com/sma-lab/smactl/internal/dataset"
	"github.com/spf13/cobra"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List download runs and their progress",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRuns(cmd); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store := smactl.New(cfg, smactl.WithLogger(newLogger(cmd))).RunStore()
	ctx := cmd.Context()

	ids, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	for _, id := range ids {
		run, err := store.Load(ctx, id)
		if err != nil {
			fmt.Printf("%s  (unreadable: %v)\n", id, err)
			continue
		}
		total := len(dataset.GenerateRanges(run.StartYear, run.EndYear))
		state := "in progress"
		if run.Merged != "" {
			state = "merged to " + run.Merged
		} else if len(run.Completed) == total {
			state = "complete"
		}
		fmt.Printf("%s  %s %d-%d  %d/%d ranges  %s\n",
			run.ID, run.Dataset, run.StartYear, run.EndYear,
			len(run.Completed), total, state)
	}
	return nil
}
