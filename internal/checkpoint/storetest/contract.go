// Package storetest provides a reusable contract suite for checkpoint.Store
// implementations.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/sma-lab/smactl/internal/checkpoint"
)

// RunStoreContract verifies that a Store implementation honors the port
// semantics shared by all adapters.
func RunStoreContract(t *testing.T, store checkpoint.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		run := checkpoint.NewRun("run-1", "SST", 2021, 2021)
		run.MarkCompleted("2021-01-01", "data/partial/2021-01-01.nc")
		run.Merged = "data/SST.nc"

		if err := store.Save(ctx, run); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := store.Load(ctx, "run-1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.Dataset != "SST" {
			t.Errorf("expected dataset SST, got %q", loaded.Dataset)
		}
		if loaded.Merged != "data/SST.nc" {
			t.Errorf("expected merged path data/SST.nc, got %q", loaded.Merged)
		}
		if !loaded.IsCompleted("2021-01-01") {
			t.Error("completed range lost in round-trip")
		}
		if loaded.IsCompleted("2021-01-11") {
			t.Error("unexpected completed range")
		}
	})

	t.Run("Load NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "no-such-run")
		if !errors.Is(err, checkpoint.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		if err := store.Save(ctx, checkpoint.NewRun("run-2", "SST", 2020, 2020)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		ids, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		if !lookup["run-1"] || !lookup["run-2"] {
			t.Errorf("expected run-1 and run-2 in list, got %v", ids)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "run-2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Load(ctx, "run-2"); !errors.Is(err, checkpoint.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound after delete, got %v", err)
		}

		// Deleting a missing run is not an error.
		if err := store.Delete(ctx, "run-2"); err != nil {
			t.Errorf("repeated delete should be a no-op, got %v", err)
		}
	})
}
