package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmpboard/jmp-tracker-backend/internal/database"
	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

func newPersonnelService(t *testing.T) *PersonnelService {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := database.NewMemoryStore()
	cache := database.NewCache(map[string]time.Duration{
		database.TablePersonnel: time.Minute,
	})
	repo := database.NewPersonnelRepository(store, cache, time.UTC, logger)
	return NewPersonnelService(repo, logger)
}

func TestUpsertAndGet(t *testing.T) {
	svc := newPersonnelService(t)
	ctx := context.Background()

	err := svc.Upsert(ctx, models.Person{
		Name:            "Amina Yusuf",
		Phone:           "0803 111 2222",
		Supervisor:      "Ngozi",
		SupervisorPhone: "0803 333 4444",
		Company:         "Acme Oilfield",
	})
	require.NoError(t, err)

	p, err := svc.Get(ctx, "Amina Yusuf")
	require.NoError(t, err)
	assert.Equal(t, "0803 111 2222", p.Phone)
	assert.Equal(t, "Acme Oilfield", p.Company)

	_, err = svc.Get(ctx, "Nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpsertRequiresName(t *testing.T) {
	svc := newPersonnelService(t)

	err := svc.Upsert(context.Background(), models.Person{Name: "  "})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpsertPreservesCreatedAt(t *testing.T) {
	svc := newPersonnelService(t)
	ctx := context.Background()

	created := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return created }
	require.NoError(t, svc.Upsert(ctx, models.Person{Name: "Amina", Phone: "0803"}))

	svc.now = func() time.Time { return updated }
	require.NoError(t, svc.Upsert(ctx, models.Person{Name: "Amina", Phone: "0999"}))

	p, err := svc.Get(ctx, "Amina")
	require.NoError(t, err)
	assert.Equal(t, "0999", p.Phone)
	assert.True(t, p.CreatedAt.Equal(created), "created_at should survive the update")
	assert.True(t, p.UpdatedAt.Equal(updated))

	// Still exactly one entry for the name.
	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestImportCSV(t *testing.T) {
	svc := newPersonnelService(t)
	ctx := context.Background()

	input := strings.Join([]string{
		"name,phone,supervisor,supervisor_phone,company",
		"Amina Yusuf,0803 111 2222,Ngozi,0803 333 4444,Acme Oilfield",
		"Bayo Ade,0804 555 6666,Ngozi,,Acme Oilfield",
		",,,,",
		"Chidi Eze",
	}, "\n")

	imported, skipped, err := svc.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, imported)
	assert.Equal(t, 1, skipped)

	p, err := svc.Get(ctx, "Chidi Eze")
	require.NoError(t, err)
	assert.Empty(t, p.Phone)
}

func TestImportCSVUpdatesExisting(t *testing.T) {
	svc := newPersonnelService(t)
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, models.Person{Name: "Amina", Phone: "0803"}))

	imported, skipped, err := svc.ImportCSV(ctx, strings.NewReader("Amina,0999,Ngozi,,Acme\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Zero(t, skipped)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "0999", all[0].Phone)
}

func TestExportCSVRoundTrip(t *testing.T) {
	svc := newPersonnelService(t)
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, models.Person{Name: "Amina", Phone: "0803", Supervisor: "Ngozi", Company: "Acme"}))
	require.NoError(t, svc.Upsert(ctx, models.Person{Name: "Bayo", Phone: "0804"}))

	data, err := svc.ExportCSV(ctx)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,phone,supervisor,supervisor_phone,company", lines[0])

	// A fresh service can swallow its own export.
	other := newPersonnelService(t)
	imported, skipped, err := other.ImportCSV(ctx, strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Zero(t, skipped)

	p, err := other.Get(ctx, "Amina")
	require.NoError(t, err)
	assert.Equal(t, "Ngozi", p.Supervisor)
}

func TestContactsByName(t *testing.T) {
	svc := newPersonnelService(t)
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, models.Person{Name: "Amina", Phone: "0803"}))
	require.NoError(t, svc.Upsert(ctx, models.Person{Name: "Bayo", Phone: "0804"}))

	contacts, err := svc.ContactsByName(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "0803", contacts["Amina"].Phone)
}
