package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/models"
	"github.com/jmpboard/jmp-tracker-backend/pkg/geo"
)

// Departures worksheet columns, 1-based.
const (
	depColID             = 1
	depColPersonName     = 2
	depColDestination    = 3
	depColDepartedAt     = 4
	depColExpectedReturn = 5
	depColActualReturn   = 6
	depColPhone          = 7
	depColSupervisor     = 8
	depColCompany        = 9
	depColExtensions     = 10
	depColIsOverdue      = 11
	depColGroupID        = 12
	depColLastLocation   = 13
)

// DepartureRepository handles store operations for the Departures worksheet.
type DepartureRepository struct {
	store  TabularStore
	cache  *Cache
	loc    *time.Location
	logger *logrus.Logger
}

// NewDepartureRepository creates a new DepartureRepository.
func NewDepartureRepository(store TabularStore, cache *Cache, loc *time.Location, logger *logrus.Logger) *DepartureRepository {
	return &DepartureRepository{store: store, cache: cache, loc: loc, logger: logger}
}

// rows returns the table snapshot, served from cache when fresh.
func (r *DepartureRepository) rows(ctx context.Context) ([][]string, error) {
	if rows, ok := r.cache.Get(TableDepartures); ok {
		return rows, nil
	}
	rows, err := r.store.ReadAll(ctx, TableDepartures)
	if err != nil {
		return nil, err
	}
	r.cache.Set(TableDepartures, rows)
	return rows, nil
}

// ListAll returns every departure, returned and active alike.
func (r *DepartureRepository) ListAll(ctx context.Context) ([]models.Departure, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("departures.ListAll: %w", err)
	}
	return r.decodeRows(rows), nil
}

// ListActive returns departures whose actual_return is still empty.
func (r *DepartureRepository) ListActive(ctx context.Context) ([]models.Departure, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var active []models.Departure
	for _, d := range all {
		if d.Active() {
			active = append(active, d)
		}
	}
	return active, nil
}

// ListByGroup returns all departures sharing the given group id.
func (r *DepartureRepository) ListByGroup(ctx context.Context, groupID int64) ([]models.Departure, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Departure
	for _, d := range all {
		if d.GroupID == groupID {
			out = append(out, d)
		}
	}
	return out, nil
}

// GetByID returns a single departure. Returns models.ErrNotFound if the id
// does not exist.
func (r *DepartureRepository) GetByID(ctx context.Context, id int64) (models.Departure, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return models.Departure{}, err
	}
	for _, d := range all {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Departure{}, fmt.Errorf("departures.GetByID %d: %w", id, models.ErrNotFound)
}

// Append assigns the next sequential id and appends the departure row.
// The id is max(existing)+1, or 1 for an empty table. Callers that create
// departures concurrently must serialize around this (see DepartureService);
// two unsynchronized processes can still race the snapshot.
func (r *DepartureRepository) Append(ctx context.Context, d models.Departure) (models.Departure, error) {
	rows, err := r.store.ReadAll(ctx, TableDepartures)
	if err != nil {
		return models.Departure{}, fmt.Errorf("departures.Append: %w", err)
	}

	var maxID int64
	for _, row := range rows {
		if id := parseSheetInt(cellAt(row, depColID-1)); id > maxID {
			maxID = id
		}
	}
	d.ID = maxID + 1

	row, err := encodeDeparture(d)
	if err != nil {
		return models.Departure{}, fmt.Errorf("departures.Append: %w", err)
	}
	if err := r.store.AppendRow(ctx, TableDepartures, row); err != nil {
		return models.Departure{}, fmt.Errorf("departures.Append: %w", err)
	}

	r.cache.Invalidate(TableDepartures)
	return d, nil
}

// SetActualReturn closes a departure. Idempotent: returns false with no write
// when the departure is already returned, and also treats a missing id as a
// no-op so duplicate clicks and retries against an already-processed record
// never surface an error.
func (r *DepartureRepository) SetActualReturn(ctx context.Context, id int64, at time.Time) (bool, error) {
	dataRow, dep, err := r.findRow(ctx, id)
	if err != nil {
		return false, fmt.Errorf("departures.SetActualReturn %d: %w", id, err)
	}
	if dataRow == 0 || !dep.Active() {
		return false, nil
	}

	if err := r.store.UpdateCell(ctx, TableDepartures, dataRow, depColActualReturn, formatSheetTime(at)); err != nil {
		return false, fmt.Errorf("departures.SetActualReturn %d: %w", id, err)
	}
	r.cache.Invalidate(TableDepartures)
	return true, nil
}

// ApplyExtension writes a new expected return and extension count in one
// pass, optionally recording a location. priorExpected is the value the
// caller computed from; if the stored value no longer matches, another
// session extended the same departure in between. The write still proceeds
// (last write wins — the store has no transactions) but the conflict is
// logged rather than silently absorbed.
func (r *DepartureRepository) ApplyExtension(ctx context.Context, id int64, priorExpected, newExpected time.Time, newCount int, location *geo.Location) (models.Departure, error) {
	dataRow, dep, err := r.findRow(ctx, id)
	if err != nil {
		return models.Departure{}, fmt.Errorf("departures.ApplyExtension %d: %w", id, err)
	}
	if dataRow == 0 {
		return models.Departure{}, fmt.Errorf("departures.ApplyExtension %d: %w", id, models.ErrNotFound)
	}

	if !dep.ExpectedReturn.Equal(priorExpected) {
		r.logger.WithFields(logrus.Fields{
			"departure_id":    id,
			"read_expected":   priorExpected,
			"stored_expected": dep.ExpectedReturn,
		}).Warn("Concurrent modification detected on extend; last write wins")
	}

	if err := r.store.UpdateCell(ctx, TableDepartures, dataRow, depColExpectedReturn, formatSheetTime(newExpected)); err != nil {
		return models.Departure{}, fmt.Errorf("departures.ApplyExtension %d: %w", id, err)
	}
	if err := r.store.UpdateCell(ctx, TableDepartures, dataRow, depColExtensions, strconv.Itoa(newCount)); err != nil {
		return models.Departure{}, fmt.Errorf("departures.ApplyExtension %d: %w", id, err)
	}
	if location != nil {
		cell, err := location.Encode()
		if err != nil {
			return models.Departure{}, fmt.Errorf("departures.ApplyExtension %d: %w", id, err)
		}
		if err := r.store.UpdateCell(ctx, TableDepartures, dataRow, depColLastLocation, cell); err != nil {
			return models.Departure{}, fmt.Errorf("departures.ApplyExtension %d: %w", id, err)
		}
		dep.LastLocation = location
	}

	r.cache.Invalidate(TableDepartures)

	dep.ExpectedReturn = newExpected
	dep.ExtensionsCount = newCount
	return dep, nil
}

// SetLastLocation records a fresh GPS fix on a departure.
func (r *DepartureRepository) SetLastLocation(ctx context.Context, id int64, location geo.Location) error {
	dataRow, _, err := r.findRow(ctx, id)
	if err != nil {
		return fmt.Errorf("departures.SetLastLocation %d: %w", id, err)
	}
	if dataRow == 0 {
		return fmt.Errorf("departures.SetLastLocation %d: %w", id, models.ErrNotFound)
	}

	cell, err := location.Encode()
	if err != nil {
		return fmt.Errorf("departures.SetLastLocation %d: %w", id, err)
	}
	if err := r.store.UpdateCell(ctx, TableDepartures, dataRow, depColLastLocation, cell); err != nil {
		return fmt.Errorf("departures.SetLastLocation %d: %w", id, err)
	}
	r.cache.Invalidate(TableDepartures)
	return nil
}

// findRow locates a departure by id with a fresh read, bypassing the cache.
// Row addressing from a stale snapshot would write into the wrong row, so
// every mutation pays for one uncached scan. Returns dataRow 0 when the id
// is not present.
func (r *DepartureRepository) findRow(ctx context.Context, id int64) (int, models.Departure, error) {
	rows, err := r.store.ReadAll(ctx, TableDepartures)
	if err != nil {
		return 0, models.Departure{}, err
	}
	for i, row := range rows {
		if parseSheetInt(cellAt(row, depColID-1)) == id {
			dep, err := r.decodeRow(row)
			if err != nil {
				return 0, models.Departure{}, err
			}
			return i + 1, dep, nil
		}
	}
	return 0, models.Departure{}, nil
}

func (r *DepartureRepository) decodeRows(rows [][]string) []models.Departure {
	out := make([]models.Departure, 0, len(rows))
	for _, row := range rows {
		d, err := r.decodeRow(row)
		if err != nil {
			r.logger.WithError(err).WithField("row", row).Warn("Skipping malformed departure row")
			continue
		}
		out = append(out, d)
	}
	return out
}

func (r *DepartureRepository) decodeRow(row []string) (models.Departure, error) {
	d := models.Departure{
		ID:              parseSheetInt(cellAt(row, depColID-1)),
		PersonName:      cellAt(row, depColPersonName-1),
		Destination:     cellAt(row, depColDestination-1),
		Phone:           cellAt(row, depColPhone-1),
		Supervisor:      cellAt(row, depColSupervisor-1),
		Company:         cellAt(row, depColCompany-1),
		ExtensionsCount: int(parseSheetInt(cellAt(row, depColExtensions-1))),
		GroupID:         parseSheetInt(cellAt(row, depColGroupID-1)),
	}
	if d.ID == 0 {
		return models.Departure{}, fmt.Errorf("departure row has no id")
	}

	var err error
	if d.DepartedAt, err = parseSheetTime(cellAt(row, depColDepartedAt-1), r.loc); err != nil {
		return models.Departure{}, fmt.Errorf("departure %d departed_at: %w", d.ID, err)
	}
	if d.ExpectedReturn, err = parseSheetTime(cellAt(row, depColExpectedReturn-1), r.loc); err != nil {
		return models.Departure{}, fmt.Errorf("departure %d expected_return: %w", d.ID, err)
	}
	if cell := cellAt(row, depColActualReturn-1); cell != "" {
		at, err := parseSheetTime(cell, r.loc)
		if err != nil {
			return models.Departure{}, fmt.Errorf("departure %d actual_return: %w", d.ID, err)
		}
		d.ActualReturn = &at
	}
	// Column K (is_overdue) is intentionally ignored: overdue status is
	// derived from expected_return at read time, never trusted from the sheet.
	if d.LastLocation, err = geo.Decode(cellAt(row, depColLastLocation-1)); err != nil {
		return models.Departure{}, fmt.Errorf("departure %d last_location: %w", d.ID, err)
	}
	return d, nil
}

func encodeDeparture(d models.Departure) ([]string, error) {
	actualReturn := ""
	if d.ActualReturn != nil {
		actualReturn = formatSheetTime(*d.ActualReturn)
	}
	groupID := ""
	if d.GroupID != 0 {
		groupID = strconv.FormatInt(d.GroupID, 10)
	}
	location := ""
	if d.LastLocation != nil {
		cell, err := d.LastLocation.Encode()
		if err != nil {
			return nil, err
		}
		location = cell
	}

	return []string{
		strconv.FormatInt(d.ID, 10),
		d.PersonName,
		d.Destination,
		formatSheetTime(d.DepartedAt),
		formatSheetTime(d.ExpectedReturn),
		actualReturn,
		d.Phone,
		d.Supervisor,
		d.Company,
		strconv.Itoa(d.ExtensionsCount),
		"FALSE", // legacy is_overdue column, kept for sheet layout compatibility
		groupID,
		location,
	}, nil
}
