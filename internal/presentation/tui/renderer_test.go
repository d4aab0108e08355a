package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer(t *testing.T) {
	render := NewRenderer()
	require.NotNil(t, render)

	// Must not panic even when stdout is not a terminal; a render error
	// is acceptable (callers print the raw markdown instead), a crash
	// is not.
	out, err := render("# Environment ready\n\nkernel registered.\n")
	if err == nil {
		assert.Contains(t, out, "Environment ready")
	}
}
