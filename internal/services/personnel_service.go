package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/database"
	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

// PersonnelService manages the personnel manifest: upserts, lookups, and the
// CSV import/export used by the management page.
type PersonnelService struct {
	personnel *database.PersonnelRepository
	logger    *logrus.Logger
	now       func() time.Time
}

// NewPersonnelService creates a new PersonnelService.
func NewPersonnelService(personnel *database.PersonnelRepository, logger *logrus.Logger) *PersonnelService {
	return &PersonnelService{personnel: personnel, logger: logger, now: time.Now}
}

// List returns the full manifest.
func (s *PersonnelService) List(ctx context.Context) ([]models.Person, error) {
	return s.personnel.ListAll(ctx)
}

// Get returns one person by name.
func (s *PersonnelService) Get(ctx context.Context, name string) (models.Person, error) {
	return s.personnel.GetByName(ctx, name)
}

// Upsert adds or updates a manifest entry. Re-adding an existing name
// overwrites contact fields but preserves the original created_at.
func (s *PersonnelService) Upsert(ctx context.Context, p models.Person) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	}

	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.personnel.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert personnel: %w", err)
	}

	s.logger.WithField("name", p.Name).Info("Personnel upserted")
	return nil
}

// ContactsByName returns the manifest keyed by name, used to build the
// denormalized snapshots on group departures.
func (s *PersonnelService) ContactsByName(ctx context.Context) (map[string]models.Person, error) {
	all, err := s.personnel.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Person, len(all))
	for _, p := range all {
		out[p.Name] = p
	}
	return out, nil
}

// csvHeader is the column order of the manifest CSV, matching the worksheet.
var csvHeader = []string{"name", "phone", "supervisor", "supervisor_phone", "company"}

// ImportCSV upserts one person per CSV record. A header row matching the
// expected columns is skipped. Rows without a name are counted as skipped,
// not errors, so a ragged export can be re-imported as-is.
func (s *PersonnelService) ImportCSV(ctx context.Context, r io.Reader) (imported, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("%w: csv line %d: %v", models.ErrValidation, line+1, err)
		}

		field := func(i int) string {
			if i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		name := field(0)
		if line == 0 && strings.EqualFold(name, "name") {
			continue
		}
		if name == "" {
			skipped++
			continue
		}

		p := models.Person{
			Name:            name,
			Phone:           field(1),
			Supervisor:      field(2),
			SupervisorPhone: field(3),
			Company:         field(4),
		}
		if err := s.Upsert(ctx, p); err != nil {
			return imported, skipped, fmt.Errorf("import csv line %d: %w", line+1, err)
		}
		imported++
	}

	s.logger.WithFields(logrus.Fields{"imported": imported, "skipped": skipped}).Info("Personnel CSV imported")
	return imported, skipped, nil
}

// ExportCSV renders the manifest as CSV with the worksheet column order.
func (s *PersonnelService) ExportCSV(ctx context.Context) ([]byte, error) {
	all, err := s.personnel.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	for _, p := range all {
		record := []string{p.Name, p.Phone, p.Supervisor, p.SupervisorPhone, p.Company}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("export csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	return buf.Bytes(), nil
}
