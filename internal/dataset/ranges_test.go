package dataset_test

import (
	"testing"
	"time"

	"github.com/sma-lab/smactl/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRanges_SingleYear(t *testing.T) {
	ranges := dataset.GenerateRanges(2021, 2021)

	// Three parts per month, twelve months.
	require.Len(t, ranges, 36)

	assert.Equal(t, "2021-01-01", ranges[0].StartKey())
	assert.Equal(t, "2021-01-10", ranges[0].EndKey())
	assert.Equal(t, "2021-01-11", ranges[1].StartKey())
	assert.Equal(t, "2021-01-20", ranges[1].EndKey())
	assert.Equal(t, "2021-01-21", ranges[2].StartKey())
	assert.Equal(t, "2021-01-31", ranges[2].EndKey())

	// Last range of the year closes December.
	last := ranges[len(ranges)-1]
	assert.Equal(t, "2021-12-31", last.EndKey())
}

func TestGenerateRanges_Contiguity(t *testing.T) {
	ranges := dataset.GenerateRanges(2020, 2021)
	require.Len(t, ranges, 72)

	for i := 1; i < len(ranges); i++ {
		gap := ranges[i].Start.Sub(ranges[i-1].End)
		assert.Equal(t, 24*time.Hour, gap,
			"ranges %d and %d must be adjacent (%s -> %s)",
			i-1, i, ranges[i-1].EndKey(), ranges[i].StartKey())
	}
}

func TestGenerateRanges_February(t *testing.T) {
	ranges := dataset.GenerateRanges(2021, 2021)

	// February 2021 has 28 days: parts of 9, 9, 10.
	feb := ranges[3:6]
	assert.Equal(t, "2021-02-01", feb[0].StartKey())
	assert.Equal(t, "2021-02-09", feb[0].EndKey())
	assert.Equal(t, "2021-02-10", feb[1].StartKey())
	assert.Equal(t, "2021-02-18", feb[1].EndKey())
	assert.Equal(t, "2021-02-19", feb[2].StartKey())
	assert.Equal(t, "2021-02-28", feb[2].EndKey())
}

func TestGenerateRanges_LeapFebruary(t *testing.T) {
	ranges := dataset.GenerateRanges(2020, 2020)

	feb := ranges[3:6]
	assert.Equal(t, "2020-02-29", feb[2].EndKey())
}
