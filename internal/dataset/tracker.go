package dataset

import (
	"sync"
	"time"
)

// Tracker is a thread-safe progress snapshot shared between the worker
// pool, the terminal progress line, and the status API.
type Tracker struct {
	mu        sync.Mutex
	runID     string
	total     int
	done      int
	bytes     int64
	startedAt time.Time
}

// Snapshot is a point-in-time copy of retrieval progress.
type Snapshot struct {
	RunID      string    `json:"run_id"`
	Total      int       `json:"total_ranges"`
	Done       int       `json:"done_ranges"`
	Bytes      int64     `json:"bytes_downloaded"`
	StartedAt  time.Time `json:"started_at"`
	ElapsedSec float64   `json:"elapsed_seconds"`
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) begin(runID string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runID = runID
	t.total = total
	t.done = 0
	t.bytes = 0
	t.startedAt = time.Now()
}

func (t *Tracker) rangeDone() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
}

func (t *Tracker) addBytes(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bytes += n
}

// Snapshot returns the current progress.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	var elapsed float64
	if !t.startedAt.IsZero() {
		elapsed = time.Since(t.startedAt).Seconds()
	}
	return Snapshot{
		RunID:      t.runID,
		Total:      t.total,
		Done:       t.done,
		Bytes:      t.bytes,
		StartedAt:  t.startedAt,
		ElapsedSec: elapsed,
	}
}
