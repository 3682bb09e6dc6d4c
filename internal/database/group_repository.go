package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

// Groups worksheet columns, 1-based.
const (
	grpColID          = 1
	grpColName        = 2
	grpColMembers     = 3
	grpColResponsible = 4
	grpColCreatedAt   = 5
)

// memberSeparator joins the member list into a single cell.
const memberSeparator = ", "

// GroupRepository handles store operations for the Groups worksheet.
type GroupRepository struct {
	store  TabularStore
	cache  *Cache
	loc    *time.Location
	logger *logrus.Logger

	// appendMu serializes max(id)+1 assignment within this process.
	appendMu sync.Mutex
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(store TabularStore, cache *Cache, loc *time.Location, logger *logrus.Logger) *GroupRepository {
	return &GroupRepository{store: store, cache: cache, loc: loc, logger: logger}
}

func (r *GroupRepository) rows(ctx context.Context) ([][]string, error) {
	if rows, ok := r.cache.Get(TableGroups); ok {
		return rows, nil
	}
	rows, err := r.store.ReadAll(ctx, TableGroups)
	if err != nil {
		return nil, err
	}
	r.cache.Set(TableGroups, rows)
	return rows, nil
}

// ListAll returns every group.
func (r *GroupRepository) ListAll(ctx context.Context) ([]models.Group, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("groups.ListAll: %w", err)
	}

	out := make([]models.Group, 0, len(rows))
	for _, row := range rows {
		g, err := r.decodeRow(row)
		if err != nil {
			r.logger.WithError(err).Warn("Skipping malformed group row")
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

// GetByID returns one group. Returns models.ErrNotFound if the id is unknown.
func (r *GroupRepository) GetByID(ctx context.Context, id int64) (models.Group, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return models.Group{}, err
	}
	for _, g := range all {
		if g.ID == id {
			return g, nil
		}
	}
	return models.Group{}, fmt.Errorf("groups.GetByID %d: %w", id, models.ErrNotFound)
}

// Append assigns the next sequential id and appends the group row.
func (r *GroupRepository) Append(ctx context.Context, g models.Group) (models.Group, error) {
	r.appendMu.Lock()
	defer r.appendMu.Unlock()

	rows, err := r.store.ReadAll(ctx, TableGroups)
	if err != nil {
		return models.Group{}, fmt.Errorf("groups.Append: %w", err)
	}

	var maxID int64
	for _, row := range rows {
		if id := parseSheetInt(cellAt(row, grpColID-1)); id > maxID {
			maxID = id
		}
	}
	g.ID = maxID + 1

	row := []string{
		strconv.FormatInt(g.ID, 10),
		g.GroupName,
		strings.Join(g.Members, memberSeparator),
		g.ResponsiblePerson,
		formatSheetTime(g.CreatedAt),
	}
	if err := r.store.AppendRow(ctx, TableGroups, row); err != nil {
		return models.Group{}, fmt.Errorf("groups.Append: %w", err)
	}

	r.cache.Invalidate(TableGroups)
	return g, nil
}

// Update overwrites the member list and responsible person of an existing
// group. Last write wins on the same key; no stronger contract is offered.
func (r *GroupRepository) Update(ctx context.Context, id int64, members []string, responsible string) error {
	rows, err := r.store.ReadAll(ctx, TableGroups)
	if err != nil {
		return fmt.Errorf("groups.Update %d: %w", id, err)
	}

	for i, row := range rows {
		if parseSheetInt(cellAt(row, grpColID-1)) != id {
			continue
		}
		dataRow := i + 1
		if err := r.store.UpdateCell(ctx, TableGroups, dataRow, grpColMembers, strings.Join(members, memberSeparator)); err != nil {
			return fmt.Errorf("groups.Update %d: %w", id, err)
		}
		if err := r.store.UpdateCell(ctx, TableGroups, dataRow, grpColResponsible, responsible); err != nil {
			return fmt.Errorf("groups.Update %d: %w", id, err)
		}
		r.cache.Invalidate(TableGroups)
		return nil
	}
	return fmt.Errorf("groups.Update %d: %w", id, models.ErrNotFound)
}

func (r *GroupRepository) decodeRow(row []string) (models.Group, error) {
	g := models.Group{
		ID:                parseSheetInt(cellAt(row, grpColID-1)),
		GroupName:         cellAt(row, grpColName-1),
		ResponsiblePerson: cellAt(row, grpColResponsible-1),
	}
	if g.ID == 0 {
		return models.Group{}, fmt.Errorf("group row has no id")
	}
	for _, m := range strings.Split(cellAt(row, grpColMembers-1), ",") {
		if name := strings.TrimSpace(m); name != "" {
			g.Members = append(g.Members, name)
		}
	}
	if cell := cellAt(row, grpColCreatedAt-1); cell != "" {
		if t, err := parseSheetTime(cell, r.loc); err == nil {
			g.CreatedAt = t
		}
	}
	return g, nil
}
