package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

// MemoryStore is an in-process TabularStore used in dev mode
// (SHEETS_MODE=dev, no credentials required) and throughout the tests.
// It preserves the same row/column semantics as the real spreadsheet.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][][]string
}

// NewMemoryStore creates a MemoryStore with all worksheets present and empty.
func NewMemoryStore() *MemoryStore {
	tables := make(map[string][][]string, len(TableHeaders))
	for table := range TableHeaders {
		tables[table] = nil
	}
	return &MemoryStore{tables: tables}
}

// ReadAll returns a copy of all data rows of the table.
func (m *MemoryStore) ReadAll(_ context.Context, table string) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", models.ErrStoreUnavailable, table)
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// AppendRow appends one row to the table.
func (m *MemoryStore) AppendRow(_ context.Context, table string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[table]; !ok {
		return fmt.Errorf("%w: unknown table %q", models.ErrStoreUnavailable, table)
	}
	m.tables[table] = append(m.tables[table], append([]string(nil), row...))
	return nil
}

// UpdateCell overwrites a single cell, growing the row if it is ragged.
func (m *MemoryStore) UpdateCell(_ context.Context, table string, dataRow, col int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%w: unknown table %q", models.ErrStoreUnavailable, table)
	}
	if dataRow < 1 || dataRow > len(rows) {
		return fmt.Errorf("%w: row %d out of range for %s", models.ErrNotFound, dataRow, table)
	}

	row := rows[dataRow-1]
	for len(row) < col {
		row = append(row, "")
	}
	row[col-1] = value
	rows[dataRow-1] = row
	return nil
}

// Ping always succeeds for the in-process store.
func (m *MemoryStore) Ping(_ context.Context) error { return nil }
