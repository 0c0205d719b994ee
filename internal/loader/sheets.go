package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// SheetsSource reads a sales table from one sheet of a Google spreadsheet.
// The first row of the sheet is the header.
type SheetsSource struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsSource creates a source over an already initialized service.
func NewSheetsSource(svc *gsheet.Service, spreadsheetID, sheetName string) *SheetsSource {
	return &SheetsSource{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// NewSheetsSourceFromEnv builds a read-only Sheets source using service
// account credentials. Required: GOOGLE_SPREADSHEET_ID.
// Optional: GOOGLE_SHEET_NAME (default "Sales"), and one of
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS for auth.
func NewSheetsSourceFromEnv(ctx context.Context) (*SheetsSource, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Sales"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewSheetsSource(svc, spreadsheetID, sheetName), nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// Load fetches the sheet's populated range and splits off the header row.
func (s *SheetsSource) Load(ctx context.Context) ([]string, [][]string, error) {
	if s.svc == nil {
		return nil, nil, errors.New("sheets service not initialized")
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("get sheet %s: %w", s.sheetName, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, ErrEmptySource
	}

	header := cellsToStrings(resp.Values[0])
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, cells := range resp.Values[1:] {
		rows = append(rows, cellsToStrings(cells))
	}
	return header, rows, nil
}

func cellsToStrings(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fmt.Sprint(c)
	}
	return out
}
