package services

import (
	"sort"
	"time"

	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

// StatusEngine computes derived status for departures: overdue flag, signed
// time remaining, three-way classification, sort order, and group
// aggregation. It holds no state beyond the due-soon window and never talks
// to the store; callers pass a snapshot and a single `now` that is reused for
// every field of an evaluation so a record cannot flip classification
// mid-computation.
type StatusEngine struct {
	dueSoonWindow time.Duration
}

// NewStatusEngine creates a StatusEngine with the given due-soon window
// (30 minutes in the stock configuration).
func NewStatusEngine(dueSoonWindow time.Duration) *StatusEngine {
	return &StatusEngine{dueSoonWindow: dueSoonWindow}
}

// TimeRemainingHours returns the signed hours until the expected return.
// Negative means overdue by that many hours. The sign of this value and the
// Classify result always agree: both derive from the same subtraction.
func (e *StatusEngine) TimeRemainingHours(d models.Departure, now time.Time) float64 {
	return d.ExpectedReturn.Sub(now).Hours()
}

// Classify returns the three-way display classification of a departure.
// A departure exactly at its expected return is overdue, not due-soon:
// remaining <= 0 is overdue, 0 < remaining < window is due-soon.
func (e *StatusEngine) Classify(d models.Departure, now time.Time) models.DepartureStatus {
	remaining := d.ExpectedReturn.Sub(now)
	switch {
	case remaining <= 0:
		return models.StatusOverdue
	case remaining < e.dueSoonWindow:
		return models.StatusDueSoon
	default:
		return models.StatusOnTime
	}
}

// Evaluate computes the full derived view of one departure.
func (e *StatusEngine) Evaluate(d models.Departure, now time.Time) models.ActiveDeparture {
	remaining := e.TimeRemainingHours(d, now)
	status := e.Classify(d, now)
	return models.ActiveDeparture{
		Departure:          d,
		TimeRemainingHours: remaining,
		IsOverdue:          status == models.StatusOverdue,
		Status:             status,
	}
}

// EvaluateAll computes derived views for a snapshot of active departures and
// sorts them ascending by time remaining, so the most-overdue records surface
// first. A nil or empty snapshot yields an empty, all-clear slice.
func (e *StatusEngine) EvaluateAll(departures []models.Departure, now time.Time) []models.ActiveDeparture {
	out := make([]models.ActiveDeparture, 0, len(departures))
	for _, d := range departures {
		out = append(out, e.Evaluate(d, now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimeRemainingHours < out[j].TimeRemainingHours
	})
	return out
}

// AggregateGroup folds the active members of a group into one status.
// The worst-case member dominates: effective time remaining is the minimum
// over active members, and the group is overdue if any active member is.
// A group with no active members is all clear (on time, zero remaining).
func (e *StatusEngine) AggregateGroup(g models.Group, members []models.Departure, now time.Time) models.GroupStatus {
	gs := models.GroupStatus{
		GroupID:           g.ID,
		GroupName:         g.GroupName,
		ResponsiblePerson: g.ResponsiblePerson,
		Status:            models.StatusOnTime,
	}

	first := true
	for _, d := range members {
		if !d.Active() {
			continue
		}
		view := e.Evaluate(d, now)
		gs.Members = append(gs.Members, view)

		if first || view.TimeRemainingHours < gs.TimeRemainingHours {
			gs.TimeRemainingHours = view.TimeRemainingHours
		}
		first = false

		if view.IsOverdue {
			gs.IsOverdue = true
		}
	}

	// Classification of the group follows its worst member.
	switch {
	case first:
		// no active members
	case gs.IsOverdue:
		gs.Status = models.StatusOverdue
	case gs.TimeRemainingHours*float64(time.Hour) < float64(e.dueSoonWindow):
		gs.Status = models.StatusDueSoon
	}

	sort.SliceStable(gs.Members, func(i, j int) bool {
		return gs.Members[i].TimeRemainingHours < gs.Members[j].TimeRemainingHours
	})
	return gs
}
