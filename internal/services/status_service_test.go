package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

func departureDueIn(id int64, name string, remaining time.Duration, now time.Time) models.Departure {
	return models.Departure{
		ID:             id,
		PersonName:     name,
		Destination:    "Pump station",
		DepartedAt:     now.Add(-time.Hour),
		ExpectedReturn: now.Add(remaining),
	}
}

func TestClassify(t *testing.T) {
	engine := NewStatusEngine(30 * time.Minute)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		remaining time.Duration
		want      models.DepartureStatus
	}{
		{"well past due", -2 * time.Hour, models.StatusOverdue},
		{"one second past due", -time.Second, models.StatusOverdue},
		{"exactly at expected return", 0, models.StatusOverdue},
		{"one second left", time.Second, models.StatusDueSoon},
		{"inside due-soon window", 29 * time.Minute, models.StatusDueSoon},
		{"exactly at window edge", 30 * time.Minute, models.StatusOnTime},
		{"plenty of time", 3 * time.Hour, models.StatusOnTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := departureDueIn(1, "Amina", tt.remaining, now)
			assert.Equal(t, tt.want, engine.Classify(d, now))
		})
	}
}

func TestTimeRemainingSignMatchesClassification(t *testing.T) {
	engine := NewStatusEngine(30 * time.Minute)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	for _, remaining := range []time.Duration{-90 * time.Minute, -time.Minute, 0, time.Minute, 2 * time.Hour} {
		d := departureDueIn(1, "Amina", remaining, now)
		view := engine.Evaluate(d, now)

		assert.InDelta(t, remaining.Hours(), view.TimeRemainingHours, 1e-9)
		if view.TimeRemainingHours <= 0 {
			assert.True(t, view.IsOverdue, "remaining %v", remaining)
			assert.Equal(t, models.StatusOverdue, view.Status)
		} else {
			assert.False(t, view.IsOverdue, "remaining %v", remaining)
		}
	}
}

func TestEvaluateAllSortsMostOverdueFirst(t *testing.T) {
	engine := NewStatusEngine(30 * time.Minute)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	departures := []models.Departure{
		departureDueIn(1, "Chidi", 2*time.Hour, now),
		departureDueIn(2, "Amina", -3*time.Hour, now),
		departureDueIn(3, "Bayo", 10*time.Minute, now),
		departureDueIn(4, "Dada", -30*time.Minute, now),
	}

	views := engine.EvaluateAll(departures, now)
	require.Len(t, views, 4)

	assert.Equal(t, int64(2), views[0].ID)
	assert.Equal(t, int64(4), views[1].ID)
	assert.Equal(t, int64(3), views[2].ID)
	assert.Equal(t, int64(1), views[3].ID)
}

func TestEvaluateAllEmpty(t *testing.T) {
	engine := NewStatusEngine(30 * time.Minute)

	views := engine.EvaluateAll(nil, time.Now())
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestAggregateGroupWorstMemberDominates(t *testing.T) {
	engine := NewStatusEngine(30 * time.Minute)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	group := models.Group{ID: 7, GroupName: "Pipeline crew", ResponsiblePerson: "Amina", Members: []string{"Amina", "Bayo", "Chidi"}}

	returned := departureDueIn(3, "Chidi", -5*time.Hour, now)
	returnedAt := now.Add(-time.Hour)
	returned.ActualReturn = &returnedAt

	members := []models.Departure{
		departureDueIn(1, "Amina", 2*time.Hour, now),
		departureDueIn(2, "Bayo", -time.Hour, now),
		returned, // returned members never drag the group status
	}

	gs := engine.AggregateGroup(group, members, now)

	assert.Equal(t, int64(7), gs.GroupID)
	assert.True(t, gs.IsOverdue)
	assert.Equal(t, models.StatusOverdue, gs.Status)
	assert.InDelta(t, -1.0, gs.TimeRemainingHours, 1e-9)
	require.Len(t, gs.Members, 2)
	assert.Equal(t, "Bayo", gs.Members[0].PersonName)
	assert.Equal(t, "Amina", gs.Members[1].PersonName)
}

func TestAggregateGroupDueSoon(t *testing.T) {
	engine := NewStatusEngine(30 * time.Minute)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	group := models.Group{ID: 7, GroupName: "Pipeline crew"}

	members := []models.Departure{
		departureDueIn(1, "Amina", 4*time.Hour, now),
		departureDueIn(2, "Bayo", 15*time.Minute, now),
	}

	gs := engine.AggregateGroup(group, members, now)

	assert.False(t, gs.IsOverdue)
	assert.Equal(t, models.StatusDueSoon, gs.Status)
	assert.InDelta(t, 0.25, gs.TimeRemainingHours, 1e-9)
}

func TestAggregateGroupAllReturnedIsAllClear(t *testing.T) {
	engine := NewStatusEngine(30 * time.Minute)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	group := models.Group{ID: 7, GroupName: "Pipeline crew"}

	// All members back, even the one that came back hours late.
	d1 := departureDueIn(1, "Amina", -6*time.Hour, now)
	d2 := departureDueIn(2, "Bayo", -time.Hour, now)
	back := now.Add(-30 * time.Minute)
	d1.ActualReturn = &back
	d2.ActualReturn = &back

	gs := engine.AggregateGroup(group, []models.Departure{d1, d2}, now)

	assert.False(t, gs.IsOverdue)
	assert.Equal(t, models.StatusOnTime, gs.Status)
	assert.Zero(t, gs.TimeRemainingHours)
	assert.Empty(t, gs.Members)
}
