package services

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jmpboard/jmp-tracker-backend/internal/database"
	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

func TestWorkbookExport(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := database.NewMemoryStore()
	cache := database.NewCache(nil)
	departures := database.NewDepartureRepository(store, cache, time.UTC, logger)
	personnel := database.NewPersonnelRepository(store, cache, time.UTC, logger)

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	back := now.Add(-time.Hour)
	_, err := departures.Append(ctx, models.Departure{
		PersonName: "Amina", Destination: "Wellhead 12", Company: "Acme",
		DepartedAt: now.Add(-4 * time.Hour), ExpectedReturn: now.Add(-2 * time.Hour),
		ActualReturn: &back,
	})
	require.NoError(t, err)
	_, err = departures.Append(ctx, models.Departure{
		PersonName: "Bayo", Destination: "Ridge line",
		DepartedAt: now.Add(-time.Hour), ExpectedReturn: now.Add(-30 * time.Minute),
	})
	require.NoError(t, err)

	require.NoError(t, personnel.Upsert(ctx, models.Person{Name: "Amina", Phone: "0803", CreatedAt: now, UpdatedAt: now}))

	svc := NewExportService(departures, personnel, NewStatusEngine(30*time.Minute))
	svc.now = func() time.Time { return now }

	data, err := svc.Workbook(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Departures", "Personnel"}, f.GetSheetList())

	rows, err := f.GetRows("Departures")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "Amina", rows[1][1])

	// Returned trips carry no live status; active ones do.
	header := rows[0]
	statusCol := -1
	for i, h := range header {
		if h == "status" {
			statusCol = i
		}
	}
	require.GreaterOrEqual(t, statusCol, 0)
	assert.Equal(t, string(models.StatusOverdue), rows[2][statusCol])

	people, err := f.GetRows("Personnel")
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "Amina", people[1][0])
}
