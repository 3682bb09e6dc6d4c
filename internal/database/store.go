// Package database contains all access to the spreadsheet-backed store.
// Each worksheet has its own repository with typed operations; no row
// arithmetic or cell addressing leaks out of this package.
package database

import "context"

// Worksheet names in the backing spreadsheet.
const (
	TablePersonnel  = "Personnel"
	TableDepartures = "Departures"
	TableExtensions = "Extensions"
	TableGroups     = "Groups"
)

// TableHeaders defines the header row (row 1) of every worksheet.
// Data starts at row 2. Column order is part of the storage contract and
// must not change without migrating the spreadsheet.
var TableHeaders = map[string][]string{
	TablePersonnel: {"name", "phone", "supervisor", "supervisor_phone", "company", "created_at", "updated_at"},
	TableDepartures: {"id", "person_name", "destination", "departed_at", "expected_return", "actual_return",
		"phone", "supervisor", "company", "extensions_count", "is_overdue", "group_id", "last_location"},
	TableExtensions: {"id", "departure_id", "hours_extended", "extended_at", "gps_location"},
	TableGroups:     {"id", "group_name", "members", "responsible_person", "created_at"},
}

// TabularStore is the minimal contract the repositories need from the
// spreadsheet service. SheetsStore implements it against Google Sheets;
// MemoryStore implements it in-process for dev mode and tests.
//
// Read-after-write is not guaranteed to be instantaneous by the real store.
// Writers must invalidate the cache for the tables they touch; readers accept
// bounded staleness up to the per-table TTL.
type TabularStore interface {
	// ReadAll returns every data row of the worksheet in order, excluding
	// the header row. Rows may be ragged; missing trailing cells are empty.
	ReadAll(ctx context.Context, table string) ([][]string, error)

	// AppendRow appends one row after the last data row.
	AppendRow(ctx context.Context, table string, row []string) error

	// UpdateCell overwrites a single cell. dataRow is 1-based over data rows
	// (row 1 is the first row after the header); col is a 1-based column index.
	UpdateCell(ctx context.Context, table string, dataRow, col int, value string) error

	// Ping verifies the store is reachable and the worksheets exist.
	Ping(ctx context.Context) error
}

// columnLetter converts a 1-based column index to its A1-notation letter.
// The schema never exceeds 26 columns.
func columnLetter(col int) string {
	return string(rune('A' + col - 1))
}
