package database

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/models"
	"github.com/jmpboard/jmp-tracker-backend/pkg/geo"
)

// Extensions worksheet columns, 1-based.
const (
	extColID          = 1
	extColDepartureID = 2
	extColHours       = 3
	extColExtendedAt  = 4
	extColLocation    = 5
)

// ExtensionRepository handles the append-only Extensions audit log.
// Rows are never mutated or deleted.
type ExtensionRepository struct {
	store  TabularStore
	cache  *Cache
	loc    *time.Location
	logger *logrus.Logger

	// appendMu serializes max(id)+1 assignment within this process.
	appendMu sync.Mutex
}

// NewExtensionRepository creates a new ExtensionRepository.
func NewExtensionRepository(store TabularStore, cache *Cache, loc *time.Location, logger *logrus.Logger) *ExtensionRepository {
	return &ExtensionRepository{store: store, cache: cache, loc: loc, logger: logger}
}

// Append assigns the next id and appends one audit row.
func (r *ExtensionRepository) Append(ctx context.Context, e models.Extension) (models.Extension, error) {
	r.appendMu.Lock()
	defer r.appendMu.Unlock()

	rows, err := r.store.ReadAll(ctx, TableExtensions)
	if err != nil {
		return models.Extension{}, fmt.Errorf("extensions.Append: %w", err)
	}

	var maxID int64
	for _, row := range rows {
		if id := parseSheetInt(cellAt(row, extColID-1)); id > maxID {
			maxID = id
		}
	}
	e.ID = maxID + 1

	location := ""
	if e.Location != nil {
		cell, err := e.Location.Encode()
		if err != nil {
			return models.Extension{}, fmt.Errorf("extensions.Append: %w", err)
		}
		location = cell
	}

	row := []string{
		strconv.FormatInt(e.ID, 10),
		strconv.FormatInt(e.DepartureID, 10),
		strconv.Itoa(e.HoursExtended),
		formatSheetTime(e.ExtendedAt),
		location,
	}
	if err := r.store.AppendRow(ctx, TableExtensions, row); err != nil {
		return models.Extension{}, fmt.Errorf("extensions.Append: %w", err)
	}

	r.cache.Invalidate(TableExtensions)
	return e, nil
}

// ListByDeparture returns the audit trail for one departure in append order.
func (r *ExtensionRepository) ListByDeparture(ctx context.Context, departureID int64) ([]models.Extension, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("extensions.ListByDeparture %d: %w", departureID, err)
	}

	var out []models.Extension
	for _, row := range rows {
		if parseSheetInt(cellAt(row, extColDepartureID-1)) != departureID {
			continue
		}
		e, err := r.decodeRow(row)
		if err != nil {
			r.logger.WithError(err).Warn("Skipping malformed extension row")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *ExtensionRepository) rows(ctx context.Context) ([][]string, error) {
	if rows, ok := r.cache.Get(TableExtensions); ok {
		return rows, nil
	}
	rows, err := r.store.ReadAll(ctx, TableExtensions)
	if err != nil {
		return nil, err
	}
	r.cache.Set(TableExtensions, rows)
	return rows, nil
}

func (r *ExtensionRepository) decodeRow(row []string) (models.Extension, error) {
	e := models.Extension{
		ID:            parseSheetInt(cellAt(row, extColID-1)),
		DepartureID:   parseSheetInt(cellAt(row, extColDepartureID-1)),
		HoursExtended: int(parseSheetInt(cellAt(row, extColHours-1))),
	}
	var err error
	if e.ExtendedAt, err = parseSheetTime(cellAt(row, extColExtendedAt-1), r.loc); err != nil {
		return models.Extension{}, fmt.Errorf("extension %d extended_at: %w", e.ID, err)
	}
	if e.Location, err = geo.Decode(cellAt(row, extColLocation-1)); err != nil {
		return models.Extension{}, fmt.Errorf("extension %d gps_location: %w", e.ID, err)
	}
	return e, nil
}
