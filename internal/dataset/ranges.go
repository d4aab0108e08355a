package dataset

import (
	"time"
)

// Range is a closed date interval used for one STAC search.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartKey returns the range's identity: the start date, which also names
// the part file.
func (r Range) StartKey() string {
	return r.Start.Format("2006-01-02")
}

// EndKey returns the formatted end date.
func (r Range) EndKey() string {
	return r.End.Format("2006-01-02")
}

// GenerateRanges splits every month in [startYear, endYear] into three
// parts. The HDA order size limits make whole-month requests unreliable;
// thirds keep each order comfortably small.
func GenerateRanges(startYear, endYear int) []Range {
	var ranges []Range

	start := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	for !start.After(end) {
		endOfMonth := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
		daysInMonth := endOfMonth.Day()
		partSize := daysInMonth / 3

		// First part
		endPart1 := start.AddDate(0, 0, partSize-1)
		ranges = append(ranges, Range{Start: start, End: endPart1})

		// Second part
		startPart2 := endPart1.AddDate(0, 0, 1)
		endPart2 := startPart2.AddDate(0, 0, partSize-1)
		ranges = append(ranges, Range{Start: startPart2, End: endPart2})

		// Third part runs to the end of the month, absorbing the remainder.
		startPart3 := endPart2.AddDate(0, 0, 1)
		ranges = append(ranges, Range{Start: startPart3, End: endOfMonth})

		start = start.AddDate(0, 1, 0)
	}

	return ranges
}
