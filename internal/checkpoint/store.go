// Package checkpoint persists download run state so interrupted retrievals
// can resume without re-fetching completed ranges.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// Run records the progress of one dataset retrieval.
type Run struct {
	ID        string    `json:"id"`
	Dataset   string    `json:"dataset"`
	StartYear int       `json:"start_year"`
	EndYear   int       `json:"end_year"`
	CreatedAt time.Time `json:"created_at"`

	// Completed maps a range start date (YYYY-MM-DD) to the part file it
	// was written to.
	Completed map[string]string `json:"completed"`

	// Merged is the final merged output path, set once the merge step ran.
	Merged string `json:"merged,omitempty"`
}

// NewRun creates an empty run record.
func NewRun(id, dataset string, startYear, endYear int) *Run {
	return &Run{
		ID:        id,
		Dataset:   dataset,
		StartYear: startYear,
		EndYear:   endYear,
		CreatedAt: time.Now().UTC(),
		Completed: make(map[string]string),
	}
}

// MarkCompleted records a finished range.
func (r *Run) MarkCompleted(rangeStart, path string) {
	if r.Completed == nil {
		r.Completed = make(map[string]string)
	}
	r.Completed[rangeStart] = path
}

// IsCompleted reports whether a range has already been fetched.
func (r *Run) IsCompleted(rangeStart string) bool {
	_, ok := r.Completed[rangeStart]
	return ok
}

// Store defines the interface for persisting run state.
// This enables "stop & resume" retrievals across invocations.
type Store interface {
	// Save persists the run record.
	Save(ctx context.Context, run *Run) error

	// Load retrieves a run by ID.
	// Returns ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, id string) (*Run, error)

	// Delete removes a run record.
	Delete(ctx context.Context, id string) error

	// List returns known run IDs.
	List(ctx context.Context) ([]string, error)
}
