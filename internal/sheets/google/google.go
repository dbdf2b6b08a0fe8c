package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"laporan/internal/core"
	ports "laporan/internal/sheets"
)

const (
	lastColumn  = "I"
	rowCacheTTL = 5 * time.Minute
)

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// Client mirrors entries into one sheet, column A holding the entry id.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// row index cache: entry id -> 1-based row number
	mu       sync.Mutex
	rows     map[string]int
	nextRow  int
	loadedAt time.Time
	ttl      time.Duration
}

var _ ports.EntryMirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
// Inline JSON takes precedence over the credentials file.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Transaksi"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		ttl:           rowCacheTTL,
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}
}

// Upsert writes e into its existing row or the next free row
func (c *Client) Upsert(ctx context.Context, e core.Entry, menuLabel string) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, found, err := c.rowFor(ctx, e.ID)
	if err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
	vr := &gsheet.ValueRange{Values: [][]any{ports.EntryRow(e, menuLabel)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		c.invalidateRowCache()
		return fmt.Errorf("update %s: %w", rng, err)
	}

	if !found {
		c.mu.Lock()
		if c.rows != nil {
			c.rows[e.ID] = row
		}
		if row >= c.nextRow {
			c.nextRow = row + 1
		}
		c.mu.Unlock()
	}
	slog.InfoContext(ctx, "Mirrored entry", "entry_id", e.ID, "range", rng, "new_row", !found)
	return nil
}

// Remove clears the row of entryID
func (c *Client) Remove(ctx context.Context, entryID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, found, err := c.rowFor(ctx, entryID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		c.invalidateRowCache()
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	c.mu.Lock()
	delete(c.rows, entryID)
	c.mu.Unlock()
	slog.InfoContext(ctx, "Removed mirrored entry", "entry_id", entryID, "range", rng)
	return nil
}

// EntryIDs lists the ids in column A, in sheet order.
func (c *Client) EntryIDs(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if err := c.loadRows(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.rows))
	for id := range c.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return c.rows[ids[i]] < c.rows[ids[j]] })
	return ids, nil
}

// rowFor returns the row holding id, or the next free row when absent.
func (c *Client) rowFor(ctx context.Context, id string) (row int, found bool, err error) {
	if err := c.loadRows(ctx); err != nil {
		return 0, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rows[id]; ok {
		return r, true, nil
	}
	return c.nextRow, false, nil
}

func (c *Client) loadRows(ctx context.Context) error {
	c.mu.Lock()
	valid := c.rows != nil && time.Since(c.loadedAt) < c.ttl
	c.mu.Unlock()
	if valid {
		return nil
	}

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}

	if len(resp.Values) == 0 {
		if err := c.writeHeader(ctx); err != nil {
			return err
		}
		resp.Values = [][]any{{ports.Header[0]}}
	}

	rows, next := indexRows(resp.Values)
	c.mu.Lock()
	c.rows = rows
	c.nextRow = next
	c.loadedAt = time.Now()
	c.mu.Unlock()
	return nil
}

func (c *Client) writeHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:%s1", c.sheetName, lastColumn)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{ports.Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// indexRows maps ids in column A to row numbers, skipping the header row.
// The next free row follows the last non-empty one.
func indexRows(values [][]any) (map[string]int, int) {
	rows := make(map[string]int, len(values))
	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[0]))
		if id == "" {
			continue
		}
		rows[id] = i + 1
	}
	return rows, len(values) + 1
}

func (c *Client) invalidateRowCache() {
	c.mu.Lock()
	c.rows = nil
	c.mu.Unlock()
}
