// Package dataset plans and executes SST dataset retrievals: date-range
// generation, checkpoint-aware downloading with a bounded worker pool,
// and merging of the part files inside the provisioned environment.
package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sma-lab/smactl/internal/checkpoint"
	"github.com/sma-lab/smactl/internal/hda"
	"github.com/sma-lab/smactl/internal/logging"
	"github.com/sma-lab/smactl/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 2

// ProductClient is the HDA surface the downloader needs.
// *hda.Client satisfies this.
type ProductClient interface {
	SearchFirst(ctx context.Context, sr hda.SearchRequest) (*hda.Product, error)
	Download(ctx context.Context, product *hda.Product, w io.Writer, progress hda.Progress) error
}

// Query describes what to ask the catalogue for.
type Query struct {
	Collections []string
	Filters     map[string]any
}

// Downloader retrieves all missing date ranges of a run.
type Downloader struct {
	client  ProductClient
	store   checkpoint.Store
	query   Query
	workers int
	outDir  string
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracker *Tracker

	mu sync.Mutex // guards run mutation + store saves
}

// Option defines a functional option for configuring the Downloader.
type Option func(*Downloader)

// WithWorkers bounds the number of concurrent range downloads.
func WithWorkers(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithOutputDir sets the data directory (default "data").
func WithOutputDir(dir string) Option {
	return func(d *Downloader) {
		d.outDir = dir
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Downloader) {
		d.metrics = m
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// WithTracker attaches a progress tracker (consumed by the status API and
// the terminal progress line).
func WithTracker(t *Tracker) Option {
	return func(d *Downloader) {
		d.tracker = t
	}
}

// NewDownloader creates a Downloader.
func NewDownloader(client ProductClient, store checkpoint.Store, query Query, opts ...Option) *Downloader {
	d := &Downloader{
		client:  client,
		store:   store,
		query:   query,
		workers: defaultWorkers,
		outDir:  "data",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PartialDir is where part files land before merging.
func (d *Downloader) PartialDir() string {
	return filepath.Join(d.outDir, "partial")
}

// Run downloads every missing range of the run and returns the ordered
// list of part files (existing and new). The run record is checkpointed
// after each completed range, so an interrupted invocation resumes where
// it stopped.
func (d *Downloader) Run(ctx context.Context, run *checkpoint.Run) ([]string, error) {
	ranges := GenerateRanges(run.StartYear, run.EndYear)

	partialDir := d.PartialDir()
	if err := os.MkdirAll(partialDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if d.tracker != nil {
		d.tracker.begin(run.ID, len(ranges))
	}

	// Partition into present and missing. A part file on disk counts as
	// done even if the checkpoint lost track of it.
	var pending []Range
	files := make([]string, 0, len(ranges))
	for _, rng := range ranges {
		path := filepath.Join(partialDir, rng.StartKey()+".nc")
		files = append(files, path)

		if run.IsCompleted(rng.StartKey()) {
			d.skip(run, rng, path)
			continue
		}
		if _, err := os.Stat(path); err == nil {
			d.logger.Info("part file exists, skipping", "file", path)
			d.skip(run, rng, path)
			continue
		}
		pending = append(pending, rng)
	}

	if err := d.saveRun(ctx, run); err != nil {
		return nil, err
	}

	d.logger.Info("retrieval plan ready",
		"run", run.ID,
		"ranges", len(ranges),
		"pending", len(pending),
		"workers", d.workers,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, rng := range pending {
		g.Go(func() error {
			path := filepath.Join(partialDir, rng.StartKey()+".nc")
			if err := d.fetchRange(gctx, rng, path); err != nil {
				if d.metrics != nil {
					d.metrics.RangesFailed.Inc()
				}
				return fmt.Errorf("range %s: %w", rng.StartKey(), err)
			}

			d.mu.Lock()
			run.MarkCompleted(rng.StartKey(), path)
			d.mu.Unlock()

			if d.metrics != nil {
				d.metrics.RangesCompleted.Inc()
			}
			if d.tracker != nil {
				d.tracker.rangeDone()
			}
			return d.saveRun(gctx, run)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func (d *Downloader) skip(run *checkpoint.Run, rng Range, path string) {
	d.mu.Lock()
	run.MarkCompleted(rng.StartKey(), path)
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.RangesSkipped.Inc()
	}
	if d.tracker != nil {
		d.tracker.rangeDone()
	}
}

func (d *Downloader) saveRun(ctx context.Context, run *checkpoint.Run) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.store.Save(ctx, run); err != nil {
		return fmt.Errorf("failed to checkpoint run: %w", err)
	}
	return nil
}

// fetchRange resolves and downloads a single range into path. The payload
// is streamed to a temp file and renamed, so a crash never leaves a
// truncated part file that a later invocation would mistake for complete.
func (d *Downloader) fetchRange(ctx context.Context, rng Range, path string) error {
	d.logger.Info("fetching range", "start", rng.StartKey(), "end", rng.EndKey())

	if d.metrics != nil {
		d.metrics.OrdersInFlight.Inc()
		defer d.metrics.OrdersInFlight.Dec()
	}

	product, err := d.client.SearchFirst(ctx, hda.SearchRequest{
		Collections: d.query.Collections,
		Start:       rng.StartKey(),
		End:         rng.EndKey(),
		Query:       d.query.Filters,
	})
	if err != nil {
		if d.metrics != nil {
			d.metrics.RequestsTotal.WithLabelValues("search_error").Inc()
		}
		return err
	}
	if d.metrics != nil {
		d.metrics.RequestsTotal.WithLabelValues("search_ok").Inc()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var last int64
	err = d.client.Download(ctx, product, tmp, func(written, total int64) {
		delta := written - last
		last = written
		if d.metrics != nil {
			d.metrics.BytesDownloaded.Add(float64(delta))
		}
		if d.tracker != nil {
			d.tracker.addBytes(delta)
		}
	})
	if closeErr := tmp.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		if d.metrics != nil {
			d.metrics.RequestsTotal.WithLabelValues("download_error").Inc()
		}
		return err
	}
	if d.metrics != nil {
		d.metrics.RequestsTotal.WithLabelValues("download_ok").Inc()
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move part file into place: %w", err)
	}

	d.logger.Info("range downloaded", "start", rng.StartKey(), "file", path)
	return nil
}
