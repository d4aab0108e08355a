package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	smactl "github.com/sma-lab/smactl"
	"github.com/sma-lab/smactl/internal/checkpoint"
	"github.com/sma-lab/smactl/internal/config"
	"github.com/sma-lab/smactl/internal/dataset"
	"github.com/sma-lab/smactl/internal/hda"
	"github.com/sma-lab/smactl/internal/metrics"
	"github.com/sma-lab/smactl/internal/presentation/tui"
	"github.com/sma-lab/smactl/internal/statusapi"
	"github.com/spf13/cobra"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Retrieve the SST dataset from the Destination Earth data lake",
	Long: `Downloads the configured sea surface temperature collection in
month-third slices, resuming any interrupted run from its checkpoint,
and merges the parts into a single NetCDF file using the provisioned
environment.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDownload(cmd); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().String("run", "", "Run ID to resume (default: start a new run)")
	downloadCmd.Flags().Int("start-year", 0, "First year to retrieve (default from config)")
	downloadCmd.Flags().Int("end-year", 0, "Last year to retrieve (default from config)")
	downloadCmd.Flags().IntP("workers", "w", 0, "Concurrent range downloads (default from config)")
	downloadCmd.Flags().String("status-addr", "", "Serve the progress and metrics API on this address (e.g. :9090)")
	downloadCmd.Flags().Bool("skip-merge", false, "Leave the part files unmerged")
}

func runDownload(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	creds, err := config.LoadCredentials(config.DefaultCredentialsFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wb := smactl.New(cfg, smactl.WithLogger(logger))
	store := wb.RunStore()

	run, err := resolveRun(ctx, cmd, cfg, store)
	if err != nil {
		return err
	}

	// Decode the query block up front so a malformed area or variable
	// list fails here instead of on the first catalogue request.
	spec, err := cfg.Dataset.Spec()
	if err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	client := hda.New(creds.Username, creds.Password, hda.WithLogger(logger))
	query := dataset.Query{
		Collections: cfg.Dataset.Collections,
		Filters:     cfg.Dataset.Filters(),
	}

	workers := cfg.Dataset.Workers
	if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
		workers = n
	}

	m := metrics.New()
	tracker := dataset.NewTracker()

	downloader := dataset.NewDownloader(client, store, query,
		dataset.WithWorkers(workers),
		dataset.WithOutputDir(cfg.Dataset.OutputDir),
		dataset.WithMetrics(m),
		dataset.WithTracker(tracker),
		dataset.WithLogger(logger),
	)

	if addr, _ := cmd.Flags().GetString("status-addr"); addr != "" {
		go statusapi.Serve(ctx, addr, statusapi.NewHandler(tracker, m), logger)
	}

	done := make(chan struct{})
	if tui.IsInteractive() {
		go tui.ProgressLoop(os.Stdout, tracker, done)
	}

	fmt.Printf("Run %s: retrieving %s for %d-%d with %d workers\n",
		run.ID, cfg.Dataset.Name, run.StartYear, run.EndYear, workers)

	files, runErr := downloader.Run(ctx, run)
	close(done)
	if runErr != nil {
		return fmt.Errorf("download incomplete (resume with --run %s): %w", run.ID, runErr)
	}
	fmt.Printf("All %d parts retrieved.\n", len(files))

	if skip, _ := cmd.Flags().GetBool("skip-merge"); skip {
		return nil
	}

	merged := filepath.Join(cfg.Dataset.OutputDir, cfg.Dataset.Name+".nc")
	merger := dataset.NewMerger(wb.Conda(), wb.EnvName())
	if err := merger.Merge(ctx, files, merged); err != nil {
		return err
	}

	run.Merged = merged
	if err := store.Save(ctx, run); err != nil {
		logger.Warn("failed to record merge in checkpoint", "run", run.ID, "error", err)
	}

	fmt.Printf("Merged dataset written to %s\n", merged)
	return nil
}

// resolveRun loads the run named by --run, or starts a fresh one.
func resolveRun(ctx context.Context, cmd *cobra.Command, cfg *config.Config, store checkpoint.Store) (*checkpoint.Run, error) {
	if id, _ := cmd.Flags().GetString("run"); id != "" {
		run, err := store.Load(ctx, id)
		if err != nil {
			if errors.Is(err, checkpoint.ErrRunNotFound) {
				return nil, fmt.Errorf("unknown run '%s': %w", id, err)
			}
			return nil, err
		}
		return run, nil
	}

	startYear := cfg.Dataset.StartYear
	if y, _ := cmd.Flags().GetInt("start-year"); y > 0 {
		startYear = y
	}
	endYear := cfg.Dataset.EndYear
	if y, _ := cmd.Flags().GetInt("end-year"); y > 0 {
		endYear = y
	}
	if startYear == 0 {
		startYear = 2021
	}
	if endYear == 0 {
		endYear = startYear
	}
	if endYear < startYear {
		return nil, fmt.Errorf("end year %d precedes start year %d", endYear, startYear)
	}

	return checkpoint.NewRun(uuid.NewString(), cfg.Dataset.Name, startYear, endYear), nil
}
