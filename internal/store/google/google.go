package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"budgetr/internal/core"
	"budgetr/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is used when no sheet name is configured.
const DefaultSheetName = "Expenditures"

// Column F holds the record id so an export can be recognised on replay.
const idColumn = "F"

// Exporter appends expenditures to a Google Sheet, one row per record:
// Date | Description | Amount | Category | Priority | ID.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	mu       sync.Mutex
	exported map[string]struct{}
	loaded   bool
}

var _ store.ExpenditureExporter = (*Exporter)(nil)


// New creates an exporter. With no options it authenticates with service
// account credentials from the environment (GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS).
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	if len(opts) == 0 {
		creds, err := credentialsFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready", "sheet", sheetName)
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheetName,
		exported:      make(map[string]struct{}),
	}, nil
}

// NewFromEnv reads GOOGLE_SPREADSHEET_ID and GOOGLE_SHEET_NAME.
func NewFromEnv(ctx context.Context) (*Exporter, error) {
	return New(ctx, os.Getenv("GOOGLE_SPREADSHEET_ID"), os.Getenv("GOOGLE_SHEET_NAME"))
}

func credentialsFromEnv(ctx context.Context) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Export appends e as a new row and returns the updated range. Records already
// present in the sheet return store.ErrAlreadyExported.
func (x *Exporter) Export(ctx context.Context, e core.Expenditure) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if x.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.loadExportedLocked(ctx); err != nil {
		return "", err
	}
	if e.ID != "" {
		if _, ok := x.exported[e.ID]; ok {
			return "", store.ErrAlreadyExported
		}
	}

	vr := &gsheet.ValueRange{Values: [][]any{rowFor(e)}}
	resp, err := x.svc.Spreadsheets.Values.Append(x.spreadsheetID, x.rangeOf("A:"+idColumn), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", x.sheet, err)
	}

	if e.ID != "" {
		x.exported[e.ID] = struct{}{}
	}
	ref := x.rangeOf("A:" + idColumn)
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// loadExportedLocked reads the id column once per process.
func (x *Exporter) loadExportedLocked(ctx context.Context) error {
	if x.loaded {
		return nil
	}
	rng := x.rangeOf(idColumn + ":" + idColumn)
	resp, err := x.svc.Spreadsheets.Values.Get(x.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id := strings.TrimSpace(fmt.Sprint(row[0])); id != "" {
			x.exported[id] = struct{}{}
		}
	}
	x.loaded = true
	return nil
}

func (x *Exporter) rangeOf(cols string) string {
	name := x.sheet
	if strings.ContainsAny(name, " '!") {
		name = "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name + "!" + cols
}

func rowFor(e core.Expenditure) []any {
	return []any{
		e.Date.Format("2006-01-02"),
		e.Description,
		e.Amount.StringFixed(2),
		e.CategoryOrDefault(),
		e.Priority,
		e.ID,
	}
}
