package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmpboard/jmp-tracker-backend/internal/database"
	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

func newGroupService(t *testing.T) *GroupService {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := database.NewMemoryStore()
	cache := database.NewCache(map[string]time.Duration{
		database.TableGroups: time.Minute,
	})
	repo := database.NewGroupRepository(store, cache, time.UTC, logger)
	return NewGroupService(repo, logger)
}

func TestAddGroupNormalizesMembers(t *testing.T) {
	svc := newGroupService(t)
	ctx := context.Background()

	g, err := svc.Add(ctx, "Pipeline crew", []string{" Amina ", "Bayo", "", "Amina", "Chidi"}, "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), g.ID)
	assert.Equal(t, []string{"Amina", "Bayo", "Chidi"}, g.Members)
	assert.Equal(t, "Amina", g.ResponsiblePerson, "defaults to the first member")
}

func TestAddGroupResponsibleOutsideMembers(t *testing.T) {
	svc := newGroupService(t)

	g, err := svc.Add(context.Background(), "Survey team", []string{"Bayo"}, "Ngozi")
	require.NoError(t, err)
	assert.Equal(t, "Ngozi", g.ResponsiblePerson)
	assert.False(t, g.HasMember("Ngozi"))
}

func TestAddGroupValidation(t *testing.T) {
	svc := newGroupService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "", []string{"Amina"}, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Add(ctx, "Empty crew", []string{"  ", ""}, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdateGroup(t *testing.T) {
	svc := newGroupService(t)
	ctx := context.Background()

	g, err := svc.Add(ctx, "Pipeline crew", []string{"Amina", "Bayo"}, "")
	require.NoError(t, err)

	// Nil members keep the roster, responsible changes.
	updated, err := svc.Update(ctx, g.ID, nil, "Ngozi")
	require.NoError(t, err)
	assert.Equal(t, []string{"Amina", "Bayo"}, updated.Members)
	assert.Equal(t, "Ngozi", updated.ResponsiblePerson)

	// New roster, responsible untouched.
	updated, err = svc.Update(ctx, g.ID, []string{"Chidi", "Dada"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chidi", "Dada"}, updated.Members)
	assert.Equal(t, "Ngozi", updated.ResponsiblePerson)

	// The write stuck.
	stored, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chidi", "Dada"}, stored.Members)
	assert.Equal(t, "Ngozi", stored.ResponsiblePerson)
}

func TestUpdateGroupValidation(t *testing.T) {
	svc := newGroupService(t)
	ctx := context.Background()

	g, err := svc.Add(ctx, "Pipeline crew", []string{"Amina"}, "")
	require.NoError(t, err)

	_, err = svc.Update(ctx, g.ID, []string{" "}, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Update(ctx, 42, []string{"Amina"}, "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGroupIDsAreSequential(t *testing.T) {
	svc := newGroupService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, "Crew A", []string{"Amina"}, "")
	require.NoError(t, err)
	second, err := svc.Add(ctx, "Crew B", []string{"Bayo"}, "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestConcurrentGroupAddsGetUniqueIDs(t *testing.T) {
	svc := newGroupService(t)
	ctx := context.Background()

	const n = 25
	results := make([]models.Group, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := svc.Add(ctx, fmt.Sprintf("Crew %d", i), []string{fmt.Sprintf("Member %d", i)}, "")
			assert.NoError(t, err)
			results[i] = g
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, g := range results {
		assert.False(t, seen[g.ID], "duplicate group id %d", g.ID)
		seen[g.ID] = true
	}
	assert.Len(t, seen, n)
}
