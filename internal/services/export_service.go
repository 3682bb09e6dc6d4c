package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jmpboard/jmp-tracker-backend/internal/database"
)

// Export sheet names inside the generated workbook.
const (
	exportSheetDepartures = "Departures"
	exportSheetPersonnel  = "Personnel"
)

// ExportService builds the management-page workbook download: one sheet of
// departures with derived status, one sheet of the personnel manifest.
type ExportService struct {
	departures *database.DepartureRepository
	personnel  *database.PersonnelRepository
	engine     *StatusEngine
	now        func() time.Time
}

// NewExportService creates a new ExportService.
func NewExportService(departures *database.DepartureRepository, personnel *database.PersonnelRepository, engine *StatusEngine) *ExportService {
	return &ExportService{departures: departures, personnel: personnel, engine: engine, now: time.Now}
}

// Workbook renders the full export as an xlsx file.
func (s *ExportService) Workbook(ctx context.Context) ([]byte, error) {
	departures, err := s.departures.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}
	personnel, err := s.personnel.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheetDepartures); err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}
	if _, err := f.NewSheet(exportSheetPersonnel); err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}
	f.DeleteSheet("Sheet1")

	now := s.now()
	depHeader := []interface{}{
		"id", "person_name", "destination", "departed_at", "expected_return",
		"actual_return", "phone", "supervisor", "company", "extensions_count",
		"status", "time_remaining_hours", "group_id",
	}
	if err := f.SetSheetRow(exportSheetDepartures, "A1", &depHeader); err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}
	for i, d := range departures {
		actualReturn := ""
		status := ""
		remaining := ""
		if d.ActualReturn != nil {
			actualReturn = d.ActualReturn.Format(time.RFC3339)
		} else {
			status = string(s.engine.Classify(d, now))
			remaining = strconv.FormatFloat(s.engine.TimeRemainingHours(d, now), 'f', 2, 64)
		}
		groupID := ""
		if d.GroupID != 0 {
			groupID = strconv.FormatInt(d.GroupID, 10)
		}
		row := []interface{}{
			d.ID, d.PersonName, d.Destination,
			d.DepartedAt.Format(time.RFC3339), d.ExpectedReturn.Format(time.RFC3339),
			actualReturn, d.Phone, d.Supervisor, d.Company, d.ExtensionsCount,
			status, remaining, groupID,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(exportSheetDepartures, cell, &row); err != nil {
			return nil, fmt.Errorf("export workbook: %w", err)
		}
	}

	perHeader := []interface{}{"name", "phone", "supervisor", "supervisor_phone", "company"}
	if err := f.SetSheetRow(exportSheetPersonnel, "A1", &perHeader); err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}
	for i, p := range personnel {
		row := []interface{}{p.Name, p.Phone, p.Supervisor, p.SupervisorPhone, p.Company}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(exportSheetPersonnel, cell, &row); err != nil {
			return nil, fmt.Errorf("export workbook: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}
	return buf.Bytes(), nil
}
