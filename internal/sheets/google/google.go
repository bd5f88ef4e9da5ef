package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/amqp"
	"ledger/internal/log"
	ports "ledger/internal/sheets"
)

const defaultSheetName = "Ledger"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.EventWriter = (*Client)(nil)

// Config selects the target sheet. Credentials come from the environment,
// see newSheetsService.
type Config struct {
	SpreadsheetID string
	SheetName     string
	Logger        *log.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if len(opts) == 0 {
		creds, err := credentialsFromEnv(ctx, cfg.Logger)
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
	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

// credentialsFromEnv reads service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func credentialsFromEnv(ctx context.Context, logger *log.Logger) ([]byte, error) {
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		logger.InfoContext(ctx, "Reading service account credentials", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendEvent adds one row after the last non-empty row of the sheet and
// returns the updated A1 range.
func (c *Client) AppendEvent(ctx context.Context, event *amqp.LedgerEvent) (string, error) {
	if event == nil {
		return "", errors.New("nil ledger event")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := ports.EventRow(event)
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}

	rng := fmt.Sprintf("%s!A:H", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Appended ledger event",
		log.FieldOperation, log.OpAppend,
		log.FieldKind, event.Kind,
		log.FieldRecordID, event.ID,
		log.FieldSheetsRef, ref)
	return ref, nil
}

// EnsureHeader writes the header row when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:H1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Wrote header row", log.FieldSheetsRef, rng)
	return nil
}
