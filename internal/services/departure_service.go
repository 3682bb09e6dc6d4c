// Package services contains the business logic of the JMP Tracker: the
// status engine, the mutation operations, statistics, exports, and the
// overdue alert job. Services validate inputs and orchestrate repository
// calls; no cell addressing lives here.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/database"
	"github.com/jmpboard/jmp-tracker-backend/internal/models"
	"github.com/jmpboard/jmp-tracker-backend/pkg/geo"
)

// DepartureService implements the departure lifecycle: log, extend, return,
// and the group variants. These are the only code paths that mutate
// departure or extension state.
type DepartureService struct {
	departures *database.DepartureRepository
	extensions *database.ExtensionRepository
	groups     *database.GroupRepository
	engine     *StatusEngine
	logger     *logrus.Logger

	maxExtensionHours int

	// createMu serializes max(id)+1 assignment within this process.
	// Two separate processes can still race the shared sheet; that window
	// is accepted and documented rather than hidden.
	createMu sync.Mutex

	// now is swapped out by tests.
	now func() time.Time
}

// NewDepartureService creates a new DepartureService.
func NewDepartureService(
	departures *database.DepartureRepository,
	extensions *database.ExtensionRepository,
	groups *database.GroupRepository,
	engine *StatusEngine,
	maxExtensionHours int,
	logger *logrus.Logger,
) *DepartureService {
	return &DepartureService{
		departures:        departures,
		extensions:        extensions,
		groups:            groups,
		engine:            engine,
		logger:            logger,
		maxExtensionHours: maxExtensionHours,
		now:               time.Now,
	}
}

// AddDepartureInput carries the fields for logging one departure.
// Contact fields are the denormalized snapshot copied onto the record.
type AddDepartureInput struct {
	PersonName      string        `json:"person_name"`
	Destination     string        `json:"destination"`
	ExpectedReturn  time.Time     `json:"expected_return"`
	Phone           string        `json:"phone"`
	Supervisor      string        `json:"supervisor"`
	Company         string        `json:"company"`
	GroupID         int64         `json:"group_id"`
	InitialLocation *geo.Location `json:"initial_location"`
}

// Add logs one departure. The new id is max(existing)+1; creation is not
// idempotent, so callers must not blindly retry an ambiguous failure without
// checking whether the row landed.
func (s *DepartureService) Add(ctx context.Context, in AddDepartureInput) (models.Departure, error) {
	now := s.now()

	if strings.TrimSpace(in.PersonName) == "" || strings.TrimSpace(in.Destination) == "" {
		return models.Departure{}, fmt.Errorf("%w: person name and destination are required", models.ErrValidation)
	}
	if !in.ExpectedReturn.After(now) {
		return models.Departure{}, fmt.Errorf("%w: expected return must be after the departure time", models.ErrValidation)
	}
	if in.InitialLocation != nil && !in.InitialLocation.Valid() {
		return models.Departure{}, fmt.Errorf("%w: initial location coordinates out of range", models.ErrValidation)
	}

	d := models.Departure{
		PersonName:     strings.TrimSpace(in.PersonName),
		Destination:    strings.TrimSpace(in.Destination),
		DepartedAt:     now,
		ExpectedReturn: in.ExpectedReturn,
		Phone:          in.Phone,
		Supervisor:     in.Supervisor,
		Company:        in.Company,
		GroupID:        in.GroupID,
		LastLocation:   in.InitialLocation,
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	created, err := s.departures.Append(ctx, d)
	if err != nil {
		return models.Departure{}, fmt.Errorf("add departure: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"departure_id": created.ID,
		"person":       created.PersonName,
		"destination":  created.Destination,
		"group_id":     created.GroupID,
	}).Info("Departure logged")
	return created, nil
}

// GroupDepartureResult reports the outcome of a group fan-out per member.
// The group is not transactional: some members can be logged while others
// fail, and the caller sees exactly which.
type GroupDepartureResult struct {
	GroupID int64              `json:"group_id"`
	Logged  []models.Departure `json:"logged"`
	Failed  map[string]string  `json:"failed,omitempty"` // member name -> error
}

// AddGroupDeparture logs one departure per group member with a shared group
// id and destination. Contact snapshots are looked up per member by the
// caller-provided resolver (nil fields fall back to empty snapshots).
func (s *DepartureService) AddGroupDeparture(ctx context.Context, groupID int64, destination string, expectedReturn time.Time, contacts map[string]models.Person, location *geo.Location) (GroupDepartureResult, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return GroupDepartureResult{}, fmt.Errorf("group departure: %w", err)
	}
	if len(group.Members) == 0 {
		return GroupDepartureResult{}, fmt.Errorf("%w: group has no members", models.ErrValidation)
	}

	result := GroupDepartureResult{GroupID: groupID}
	for _, member := range group.Members {
		in := AddDepartureInput{
			PersonName:      member,
			Destination:     destination,
			ExpectedReturn:  expectedReturn,
			GroupID:         groupID,
			InitialLocation: location,
		}
		if p, ok := contacts[member]; ok {
			in.Phone = p.Phone
			in.Supervisor = p.Supervisor
			in.Company = p.Company
		}

		d, err := s.Add(ctx, in)
		if err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[member] = err.Error()
			s.logger.WithError(err).WithFields(logrus.Fields{
				"group_id": groupID,
				"member":   member,
			}).Error("Group departure member failed")
			continue
		}
		result.Logged = append(result.Logged, d)
	}
	return result, nil
}

// Extend pushes out a departure's expected return by 1..max hours,
// increments the extension counter, optionally records a location, and
// appends an audit row. The audit row is written before the departure cells
// so a crash between the two leaves a trail rather than a silent change.
func (s *DepartureService) Extend(ctx context.Context, departureID int64, hours int, location *geo.Location) (models.Departure, error) {
	if hours <= 0 {
		return models.Departure{}, fmt.Errorf("%w: extension hours must be positive", models.ErrValidation)
	}
	if hours > s.maxExtensionHours {
		return models.Departure{}, fmt.Errorf("%w: extension exceeds maximum of %d hours", models.ErrValidation, s.maxExtensionHours)
	}
	if location != nil && !location.Valid() {
		return models.Departure{}, fmt.Errorf("%w: location coordinates out of range", models.ErrValidation)
	}

	current, err := s.departures.GetByID(ctx, departureID)
	if err != nil {
		return models.Departure{}, fmt.Errorf("extend departure: %w", err)
	}
	if !current.Active() {
		return models.Departure{}, fmt.Errorf("%w: departure %d is already returned", models.ErrValidation, departureID)
	}

	if _, err := s.extensions.Append(ctx, models.Extension{
		DepartureID:   departureID,
		HoursExtended: hours,
		ExtendedAt:    s.now(),
		Location:      location,
	}); err != nil {
		return models.Departure{}, fmt.Errorf("extend departure: %w", err)
	}

	newExpected := current.ExpectedReturn.Add(time.Duration(hours) * time.Hour)
	updated, err := s.departures.ApplyExtension(ctx, departureID, current.ExpectedReturn, newExpected, current.ExtensionsCount+1, location)
	if err != nil {
		return models.Departure{}, fmt.Errorf("extend departure: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"departure_id":     departureID,
		"hours":            hours,
		"expected_return":  updated.ExpectedReturn,
		"extensions_count": updated.ExtensionsCount,
	}).Info("Departure extended")
	return updated, nil
}

// ReturnResult reports whether MarkReturned actually transitioned the record.
type ReturnResult struct {
	DepartureID  int64 `json:"departure_id"`
	Transitioned bool  `json:"transitioned"` // false: already returned or id unknown
}

// MarkReturned sets actual_return now if it is still empty. Calling it twice
// is a safe no-op, not an error: retries and duplicate clicks are expected.
func (s *DepartureService) MarkReturned(ctx context.Context, departureID int64) (ReturnResult, error) {
	changed, err := s.departures.SetActualReturn(ctx, departureID, s.now())
	if err != nil {
		return ReturnResult{}, fmt.Errorf("mark returned: %w", err)
	}
	if changed {
		s.logger.WithField("departure_id", departureID).Info("Departure returned")
	}
	return ReturnResult{DepartureID: departureID, Transitioned: changed}, nil
}

// GroupReturnResult reports, per member, who was transitioned versus who was
// already back.
type GroupReturnResult struct {
	GroupID         int64    `json:"group_id"`
	Returned        []string `json:"returned"`
	AlreadyReturned []string `json:"already_returned,omitempty"`
}

// MarkGroupReturned applies MarkReturned to every departure of the group
// whose actual_return is still empty at read time. Already-returned members
// are skipped without error.
func (s *DepartureService) MarkGroupReturned(ctx context.Context, groupID int64) (GroupReturnResult, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return GroupReturnResult{}, fmt.Errorf("mark group returned: %w", err)
	}

	departures, err := s.departures.ListByGroup(ctx, groupID)
	if err != nil {
		return GroupReturnResult{}, fmt.Errorf("mark group returned: %w", err)
	}

	result := GroupReturnResult{GroupID: groupID}
	now := s.now()
	for _, d := range departures {
		if !d.Active() {
			result.AlreadyReturned = append(result.AlreadyReturned, d.PersonName)
			continue
		}
		changed, err := s.departures.SetActualReturn(ctx, d.ID, now)
		if err != nil {
			return GroupReturnResult{}, fmt.Errorf("mark group returned %d: %w", d.ID, err)
		}
		if changed {
			result.Returned = append(result.Returned, d.PersonName)
		} else {
			result.AlreadyReturned = append(result.AlreadyReturned, d.PersonName)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"group_id":         groupID,
		"returned":         len(result.Returned),
		"already_returned": len(result.AlreadyReturned),
	}).Info("Group marked returned")
	return result, nil
}

// UpdateLocation records a fresh GPS fix on an existing departure.
func (s *DepartureService) UpdateLocation(ctx context.Context, departureID int64, lat, lon float64) error {
	loc := geo.Location{Lat: lat, Lon: lon, Timestamp: s.now()}
	if !loc.Valid() {
		return fmt.Errorf("%w: coordinates out of range", models.ErrValidation)
	}
	if err := s.departures.SetLastLocation(ctx, departureID, loc); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

// ListActive returns the derived views of all active departures, ordered
// most-critical first.
func (s *DepartureService) ListActive(ctx context.Context) ([]models.ActiveDeparture, error) {
	active, err := s.departures.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}
	return s.engine.EvaluateAll(active, s.now()), nil
}

// ActiveGroups returns the aggregated status of every group that currently
// has at least one active member.
func (s *DepartureService) ActiveGroups(ctx context.Context) ([]models.GroupStatus, error) {
	groups, err := s.groups.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("active groups: %w", err)
	}

	now := s.now()
	var out []models.GroupStatus
	for _, g := range groups {
		members, err := s.departures.ListByGroup(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("active groups: %w", err)
		}
		gs := s.engine.AggregateGroup(g, members, now)
		if len(gs.Members) > 0 {
			out = append(out, gs)
		}
	}
	return out, nil
}

// Extensions returns the audit trail for one departure.
func (s *DepartureService) Extensions(ctx context.Context, departureID int64) ([]models.Extension, error) {
	return s.extensions.ListByDeparture(ctx, departureID)
}
