package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"linesheet/internal/config"
)

const defaultReadPageSize = 100

var (
	// ErrCredentialsMissing is returned when the service-account credentials
	// are absent from configuration.
	ErrCredentialsMissing = errors.New("credentials missing: GOOGLE_SERVICE_ACCOUNT_EMAIL or GOOGLE_PRIVATE_KEY not set")
	// ErrSheetIDMissing is returned when no destination spreadsheet is configured.
	ErrSheetIDMissing = errors.New("GOOGLE_SHEET_ID is missing")
)

// NormalizePrivateKey strips wrapping double quotes and converts literal
// backslash-n escape sequences into real line breaks. Deployment dashboards
// commonly mangle multi-line secrets this way; without this step the JWT
// signature fails with no useful error.
func NormalizePrivateKey(key string) string {
	key = strings.TrimPrefix(key, `"`)
	key = strings.TrimSuffix(key, `"`)
	return strings.ReplaceAll(key, `\n`, "\n")
}

// Client is an append-only writer and bounded reader over one Google Sheet.
type Client struct {
	svc           *sheetsv4.Service
	spreadsheetID string
	sheetName     string
	readPageSize  int
}

// New builds a Client from configuration. Missing credentials are not an
// error here: the Client is still constructed and every operation reports
// ErrCredentialsMissing, so the connectivity endpoint can describe the
// problem instead of the process failing to start.
func New(ctx context.Context, cfg config.SheetsConfig) (*Client, error) {
	c := newClient(nil, cfg)
	if cfg.ClientEmail == "" || cfg.PrivateKey == "" {
		return c, nil
	}

	auth := &jwt.Config{
		Email:      cfg.ClientEmail,
		PrivateKey: []byte(NormalizePrivateKey(cfg.PrivateKey)),
		Scopes:     []string{sheetsv4.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	svc, err := sheetsv4.NewService(ctx, option.WithTokenSource(auth.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	c.svc = svc
	return c, nil
}

// NewWithService builds a Client over an explicit Sheets service. Used by
// tests to point at a fake API server.
func NewWithService(svc *sheetsv4.Service, cfg config.SheetsConfig) *Client {
	return newClient(svc, cfg)
}

func newClient(svc *sheetsv4.Service, cfg config.SheetsConfig) *Client {
	pageSize := cfg.ReadPageSize
	if pageSize <= 1 {
		pageSize = defaultReadPageSize
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		readPageSize:  pageSize,
	}
}

// SheetID returns the configured destination spreadsheet ID, possibly empty.
func (c *Client) SheetID() string { return c.spreadsheetID }

// writeRange spans the whole A:F column range; the API appends after the
// last populated row.
func (c *Client) writeRange() string {
	return c.sheetName + "!A:F"
}

// readRange covers the first page of the data region, skipping the header
// row. Rows past the page are invisible to ReadRecent; that ceiling is why
// the page size is configurable.
func (c *Client) readRange() string {
	return fmt.Sprintf("%s!A2:F%d", c.sheetName, c.readPageSize)
}

// Append writes the rows to the sheet in one call, preserving their order.
// Failures (missing configuration, auth, permission, not-found) propagate to
// the caller.
func (c *Client) Append(ctx context.Context, rows []Row) error {
	if c.svc == nil {
		return ErrCredentialsMissing
	}
	if c.spreadsheetID == "" {
		return ErrSheetIDMissing
	}
	if len(rows) == 0 {
		return nil
	}

	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r.values()
	}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.writeRange(), &sheetsv4.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending rows: %w", err)
	}
	return nil
}

// ReadRecent returns at most limit rows, newest first. Read failures are
// non-fatal: missing configuration or a backend error yields an empty result
// and a log line, never an error, so dashboard reads degrade gracefully.
func (c *Client) ReadRecent(ctx context.Context, limit int) ([]Row, error) {
	if c.svc == nil || c.spreadsheetID == "" {
		return nil, nil
	}

	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, c.readRange()).
		Context(ctx).
		Do()
	if err != nil {
		slog.Warn("reading recent rows failed", "error", err)
		return nil, nil
	}

	vals := resp.Values
	rows := make([]Row, 0, limit)
	for i := len(vals) - 1; i >= 0 && len(rows) < limit; i-- {
		rows = append(rows, rowFromValues(vals[i]))
	}
	return rows, nil
}

// Probe performs a lightweight metadata fetch against the spreadsheet. It is
// used only for connectivity reporting.
func (c *Client) Probe(ctx context.Context) error {
	if c.svc == nil {
		return ErrCredentialsMissing
	}
	if c.spreadsheetID == "" {
		return ErrSheetIDMissing
	}

	_, err := c.svc.Spreadsheets.
		Get(c.spreadsheetID).
		Fields("spreadsheetId").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("fetching spreadsheet metadata: %w", err)
	}
	return nil
}
