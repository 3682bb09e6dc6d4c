package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jmpboard/jmp-tracker-backend/internal/models"
)

// SheetsStore is the Google Sheets implementation of TabularStore.
// It authenticates with a service account and addresses cells in A1 notation.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *logrus.Logger
}

// NewSheetsStore creates a SheetsStore from service-account credentials JSON.
func NewSheetsStore(ctx context.Context, spreadsheetID string, credentialsJSON []byte, logger *logrus.Logger) (*SheetsStore, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create sheets client: %v", models.ErrStoreUnavailable, err)
	}
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// EnsureWorksheets creates any missing worksheets with their header rows.
// Called once at startup so every later table access can assume the sheet exists.
func (s *SheetsStore) EnsureWorksheets(ctx context.Context) error {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: get spreadsheet: %v", models.ErrStoreUnavailable, err)
	}

	existing := make(map[string]bool, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		existing[sh.Properties.Title] = true
	}

	for table, headers := range TableHeaders {
		if existing[table] {
			continue
		}
		s.logger.WithField("table", table).Info("Creating missing worksheet")

		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: table},
				},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("%w: add worksheet %s: %v", models.ErrStoreUnavailable, table, err)
		}

		headerRow := make([]interface{}, len(headers))
		for i, h := range headers {
			headerRow[i] = h
		}
		vr := &sheets.ValueRange{Values: [][]interface{}{headerRow}}
		_, err := s.svc.Spreadsheets.Values.
			Update(s.spreadsheetID, fmt.Sprintf("%s!A1", table), vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%w: write headers for %s: %v", models.ErrStoreUnavailable, table, err)
		}
	}
	return nil
}

// ReadAll returns all data rows of the worksheet (header excluded).
func (s *SheetsStore) ReadAll(ctx context.Context, table string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, table).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrStoreUnavailable, table, err)
	}

	if len(resp.Values) <= 1 {
		return nil, nil
	}

	rows := make([][]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRow appends one row to the worksheet.
func (s *SheetsStore) AppendRow(ctx context.Context, table string, row []string) error {
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{values}}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, table, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: append to %s: %v", models.ErrStoreUnavailable, table, err)
	}
	return nil
}

// UpdateCell overwrites a single cell. dataRow 1 maps to spreadsheet row 2
// because row 1 holds the headers.
func (s *SheetsStore) UpdateCell(ctx context.Context, table string, dataRow, col int, value string) error {
	a1 := fmt.Sprintf("%s!%s%d", table, columnLetter(col), dataRow+1)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}

	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, a1, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: update %s: %v", models.ErrStoreUnavailable, a1, err)
	}
	return nil
}

// Ping verifies the spreadsheet is reachable.
func (s *SheetsStore) Ping(ctx context.Context) error {
	if _, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}
