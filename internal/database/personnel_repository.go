package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

// Personnel worksheet columns, 1-based.
const (
	perColName            = 1
	perColPhone           = 2
	perColSupervisor      = 3
	perColSupervisorPhone = 4
	perColCompany         = 5
	perColCreatedAt       = 6
	perColUpdatedAt       = 7
)

// PersonnelRepository handles store operations for the Personnel worksheet.
// Name is the unique key; Upsert overwrites contact fields in place and
// preserves the original created_at.
type PersonnelRepository struct {
	store  TabularStore
	cache  *Cache
	loc    *time.Location
	logger *logrus.Logger
}

// NewPersonnelRepository creates a new PersonnelRepository.
func NewPersonnelRepository(store TabularStore, cache *Cache, loc *time.Location, logger *logrus.Logger) *PersonnelRepository {
	return &PersonnelRepository{store: store, cache: cache, loc: loc, logger: logger}
}

func (r *PersonnelRepository) rows(ctx context.Context) ([][]string, error) {
	if rows, ok := r.cache.Get(TablePersonnel); ok {
		return rows, nil
	}
	rows, err := r.store.ReadAll(ctx, TablePersonnel)
	if err != nil {
		return nil, err
	}
	r.cache.Set(TablePersonnel, rows)
	return rows, nil
}

// ListAll returns all manifest entries, skipping blank rows.
func (r *PersonnelRepository) ListAll(ctx context.Context) ([]models.Person, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("personnel.ListAll: %w", err)
	}

	out := make([]models.Person, 0, len(rows))
	for _, row := range rows {
		p, err := r.decodeRow(row)
		if err != nil {
			r.logger.WithError(err).Warn("Skipping malformed personnel row")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GetByName returns one person by their unique name.
func (r *PersonnelRepository) GetByName(ctx context.Context, name string) (models.Person, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return models.Person{}, err
	}
	for _, p := range all {
		if p.Name == name {
			return p, nil
		}
	}
	return models.Person{}, fmt.Errorf("personnel.GetByName %q: %w", name, models.ErrNotFound)
}

// Upsert adds a person or updates their contact fields in place.
// The original created_at is preserved on update; updated_at always moves.
func (r *PersonnelRepository) Upsert(ctx context.Context, p models.Person) error {
	// Fresh read for row addressing; a stale snapshot would update the wrong row.
	rows, err := r.store.ReadAll(ctx, TablePersonnel)
	if err != nil {
		return fmt.Errorf("personnel.Upsert %q: %w", p.Name, err)
	}

	for i, row := range rows {
		if cellAt(row, perColName-1) != p.Name {
			continue
		}
		dataRow := i + 1
		createdAt := cellAt(row, perColCreatedAt-1)
		updates := map[int]string{
			perColPhone:           p.Phone,
			perColSupervisor:      p.Supervisor,
			perColSupervisorPhone: p.SupervisorPhone,
			perColCompany:         p.Company,
			perColUpdatedAt:       formatSheetTime(p.UpdatedAt),
		}
		if createdAt == "" {
			updates[perColCreatedAt] = formatSheetTime(p.CreatedAt)
		}
		for col, value := range updates {
			if err := r.store.UpdateCell(ctx, TablePersonnel, dataRow, col, value); err != nil {
				return fmt.Errorf("personnel.Upsert %q: %w", p.Name, err)
			}
		}
		r.cache.Invalidate(TablePersonnel)
		return nil
	}

	row := []string{
		p.Name,
		p.Phone,
		p.Supervisor,
		p.SupervisorPhone,
		p.Company,
		formatSheetTime(p.CreatedAt),
		formatSheetTime(p.UpdatedAt),
	}
	if err := r.store.AppendRow(ctx, TablePersonnel, row); err != nil {
		return fmt.Errorf("personnel.Upsert %q: %w", p.Name, err)
	}
	r.cache.Invalidate(TablePersonnel)
	return nil
}

func (r *PersonnelRepository) decodeRow(row []string) (models.Person, error) {
	p := models.Person{
		Name:            strings.TrimSpace(cellAt(row, perColName-1)),
		Phone:           cellAt(row, perColPhone-1),
		Supervisor:      cellAt(row, perColSupervisor-1),
		SupervisorPhone: cellAt(row, perColSupervisorPhone-1),
		Company:         cellAt(row, perColCompany-1),
	}
	if p.Name == "" {
		return models.Person{}, fmt.Errorf("personnel row has no name")
	}
	if cell := cellAt(row, perColCreatedAt-1); cell != "" {
		if t, err := parseSheetTime(cell, r.loc); err == nil {
			p.CreatedAt = t
		}
	}
	if cell := cellAt(row, perColUpdatedAt-1); cell != "" {
		if t, err := parseSheetTime(cell, r.loc); err == nil {
			p.UpdatedAt = t
		}
	}
	return p, nil
}
