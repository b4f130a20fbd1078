// Package sheets backs the remote store ports with a Google Sheets
// spreadsheet. Each record is one row keyed by its id column, which
// makes the ledger auditable by anyone the sheet is shared with.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"kasku/internal/core"
	"kasku/internal/remote"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	transactionsRange = "!A2:H"
	eventsRange       = "!A2:F"
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	eventsSheet       string
}

var _ remote.Store = (*Client)(nil)

type Config struct {
	SpreadsheetID     string
	TransactionsSheet string // defaults to "Transaksi"
	EventsSheet       string // defaults to "Kegiatan"
	// CredentialsJSON takes precedence over CredentialsFile. When both
	// are empty, GOOGLE_APPLICATION_CREDENTIALS is consulted.
	CredentialsJSON string
	CredentialsFile string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if cfg.TransactionsSheet == "" {
		cfg.TransactionsSheet = "Transaksi"
	}
	if cfg.EventsSheet == "" {
		cfg.EventsSheet = "Kegiatan"
	}

	svc, err := newService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     cfg.SpreadsheetID,
		transactionsSheet: cfg.TransactionsSheet,
		eventsSheet:       cfg.EventsSheet,
	}, nil
}

func newService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	if len(credentialsJSON) == 0 {
		file := strings.TrimSpace(cfg.CredentialsFile)
		if file == "" {
			file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		}
		if file == "" {
			return nil, errors.New("missing service account credentials")
		}
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = raw
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	values, err := c.read(ctx, c.transactionsSheet+transactionsRange)
	if err != nil {
		return nil, err
	}

	var txs []core.Transaction
	for i, row := range values {
		t, err := parseTransactionRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed transaction row",
				"sheet", c.transactionsSheet, "row", i+2, "error", err)
			continue
		}
		txs = append(txs, t)
	}
	sortTransactions(txs)
	return txs, nil
}

func (c *Client) InsertTransaction(ctx context.Context, t core.Transaction) error {
	return c.append(ctx, c.transactionsSheet+transactionsRange, transactionRow(t))
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) error {
	rowIdx, row, err := c.findRow(ctx, c.transactionsSheet, transactionsRange, id)
	if err != nil {
		return err
	}
	t, err := parseTransactionRow(row)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowIdx, err)
	}
	p.Apply(&t)
	return c.writeRow(ctx, fmt.Sprintf("%s!A%d:H%d", c.transactionsSheet, rowIdx, rowIdx), transactionRow(t))
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	rowIdx, _, err := c.findRow(ctx, c.transactionsSheet, transactionsRange, id)
	if err != nil {
		return err
	}
	return c.deleteRow(ctx, c.transactionsSheet, rowIdx)
}

func (c *Client) ListEvents(ctx context.Context) ([]core.Event, error) {
	values, err := c.read(ctx, c.eventsSheet+eventsRange)
	if err != nil {
		return nil, err
	}

	var events []core.Event
	for i, row := range values {
		e, err := parseEventRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed event row",
				"sheet", c.eventsSheet, "row", i+2, "error", err)
			continue
		}
		events = append(events, e)
	}
	sortEvents(events)
	return events, nil
}

func (c *Client) InsertEvent(ctx context.Context, e core.Event) error {
	return c.append(ctx, c.eventsSheet+eventsRange, eventRow(e))
}

func (c *Client) UpdateEvent(ctx context.Context, id string, p core.EventPatch) error {
	rowIdx, row, err := c.findRow(ctx, c.eventsSheet, eventsRange, id)
	if err != nil {
		return err
	}
	e, err := parseEventRow(row)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowIdx, err)
	}
	p.Apply(&e)
	return c.writeRow(ctx, fmt.Sprintf("%s!A%d:F%d", c.eventsSheet, rowIdx, rowIdx), eventRow(e))
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	rowIdx, _, err := c.findRow(ctx, c.eventsSheet, eventsRange, id)
	if err != nil {
		return err
	}
	return c.deleteRow(ctx, c.eventsSheet, rowIdx)
}

func (c *Client) read(ctx context.Context, rng string) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) append(ctx context.Context, rng string, row []any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", rng, err)
	}
	return nil
}

func (c *Client) writeRow(ctx context.Context, rng string, row []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// findRow locates the 1-based sheet row whose first column equals id.
func (c *Client) findRow(ctx context.Context, sheet, rng, id string) (int, []any, error) {
	values, err := c.read(ctx, sheet+rng)
	if err != nil {
		return 0, nil, err
	}
	for i, row := range values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 2, row, nil
		}
	}
	return 0, nil, remote.ErrNotFound
}

func (c *Client) deleteRow(ctx context.Context, sheet string, rowIdx int) error {
	sheetID, err := c.sheetID(ctx, sheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIdx - 1),
					EndIndex:   int64(rowIdx),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", rowIdx, sheet, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("worksheet %q not found", title)
}
