package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts accepted when reading sheet cells. The app writes
// RFC 3339, but rows entered by hand or by older deployments may carry
// zone-naive values; those are localized to the configured zone rather than
// compared naively.
var sheetTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseSheetTime parses a timestamp cell into a timezone-aware time.
// Zone-naive layouts are interpreted in loc.
func parseSheetTime(cell string, loc *time.Location) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range sheetTimeLayouts {
		if t, err := time.ParseInLocation(layout, cell, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", cell)
}

// formatSheetTime renders a timestamp for storage. RFC 3339 keeps the zone
// offset in the cell so readers never have to guess.
func formatSheetTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// parseSheetInt parses an integer cell, treating empty and malformed cells
// as zero the way the original data layer coerced NaN ids to 0.
func parseSheetInt(cell string) int64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0
	}
	n, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		// Sheets sometimes renders integers as floats ("3.0").
		if f, ferr := strconv.ParseFloat(cell, 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return n
}

// cellAt returns the cell at 0-based index i, tolerating ragged rows.
func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
