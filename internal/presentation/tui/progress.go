package tui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/sma-lab/smactl/internal/dataset"
	"golang.org/x/term"
)

// IsInteractive reports whether stdout is a terminal. Progress rendering
// is suppressed when output is piped.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ProgressLoop rewrites a single progress line until done is closed.
// It is a no-op display when the writer is not a terminal-like stream;
// callers gate on IsInteractive.
func ProgressLoop(w io.Writer, tracker *dataset.Tracker, done <-chan struct{}) {
	p := termenv.ColorProfile()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	render := func() {
		snap := tracker.Snapshot()
		line := fmt.Sprintf("\r  %s %d/%d ranges  %s",
			termenv.String("▼").Foreground(p.Color("#38bdf8")),
			snap.Done, snap.Total,
			termenv.String(formatBytes(snap.Bytes)).Faint(),
		)
		fmt.Fprint(w, line)
	}

	for {
		select {
		case <-done:
			render()
			fmt.Fprintln(w)
			return
		case <-ticker.C:
			render()
		}
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
