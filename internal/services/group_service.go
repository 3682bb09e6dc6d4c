package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/database"
	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

// GroupService manages named groups of personnel.
type GroupService struct {
	groups *database.GroupRepository
	logger *logrus.Logger
	now    func() time.Time
}

// NewGroupService creates a new GroupService.
func NewGroupService(groups *database.GroupRepository, logger *logrus.Logger) *GroupService {
	return &GroupService{groups: groups, logger: logger, now: time.Now}
}

// List returns every group.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groups.ListAll(ctx)
}

// Get returns one group by id.
func (s *GroupService) Get(ctx context.Context, id int64) (models.Group, error) {
	return s.groups.GetByID(ctx, id)
}

// Add creates a group. Members are trimmed and de-duplicated preserving
// order. The responsible person defaults to the first member when empty and
// may also name someone outside the member list (a supervisor in camp).
func (s *GroupService) Add(ctx context.Context, name string, members []string, responsible string) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, fmt.Errorf("%w: group name is required", models.ErrValidation)
	}

	cleaned := normalizeMembers(members)
	if len(cleaned) == 0 {
		return models.Group{}, fmt.Errorf("%w: group cannot be empty", models.ErrValidation)
	}

	responsible = strings.TrimSpace(responsible)
	if responsible == "" {
		responsible = cleaned[0]
	}

	g, err := s.groups.Append(ctx, models.Group{
		GroupName:         name,
		Members:           cleaned,
		ResponsiblePerson: responsible,
		CreatedAt:         s.now(),
	})
	if err != nil {
		return models.Group{}, fmt.Errorf("add group: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"group_id": g.ID,
		"name":     g.GroupName,
		"members":  len(g.Members),
	}).Info("Group created")
	return g, nil
}

// Update replaces the member list and/or responsible person of a group.
// Nil members or empty responsible leave the current value in place.
func (s *GroupService) Update(ctx context.Context, id int64, members []string, responsible string) (models.Group, error) {
	current, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return models.Group{}, fmt.Errorf("update group: %w", err)
	}

	newMembers := current.Members
	if members != nil {
		newMembers = normalizeMembers(members)
		if len(newMembers) == 0 {
			return models.Group{}, fmt.Errorf("%w: group cannot be empty", models.ErrValidation)
		}
	}

	newResponsible := current.ResponsiblePerson
	if strings.TrimSpace(responsible) != "" {
		newResponsible = strings.TrimSpace(responsible)
	}

	if err := s.groups.Update(ctx, id, newMembers, newResponsible); err != nil {
		return models.Group{}, fmt.Errorf("update group: %w", err)
	}

	current.Members = newMembers
	current.ResponsiblePerson = newResponsible
	s.logger.WithField("group_id", id).Info("Group updated")
	return current, nil
}

// normalizeMembers trims, drops empties, and de-duplicates preserving order.
func normalizeMembers(members []string) []string {
	seen := make(map[string]bool, len(members))
	var out []string
	for _, m := range members {
		name := strings.TrimSpace(m)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
