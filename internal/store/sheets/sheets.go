// Package sheets implements the remote EntryStore on a Google Spreadsheet.
// Each committed entry is one row on the entries sheet, keyed by a
// store-assigned id in column A; categories live on their own sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"famspend/internal/core"
	applog "famspend/internal/log"
	"famspend/internal/store"
)

const (
	defaultEntriesSheet    = "Entries"
	defaultCategoriesSheet = "Categories"

	// Column layout of the entries sheet (A:M).
	entriesRange = "A:M"
)

type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	entriesSheet    string
	categoriesSheet string
	logger          *applog.Logger

	// sheetIDs caches numeric sheet ids by title for row deletion.
	sheetIDs map[string]int64
}

var _ store.EntryStore = (*Client)(nil)

// NewFromEnv creates a Sheets-backed store using environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, logger *applog.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	entries := strings.TrimSpace(os.Getenv("GOOGLE_ENTRIES_SHEET_NAME"))
	if entries == "" {
		entries = defaultEntriesSheet
	}
	categories := strings.TrimSpace(os.Getenv("GOOGLE_CATEGORIES_SHEET_NAME"))
	if categories == "" {
		categories = defaultCategoriesSheet
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentStore)
	}

	return &Client{
		svc:             svc,
		spreadsheetID:   spreadsheetID,
		entriesSheet:    entries,
		categoriesSheet: categories,
		logger:          logger,
		sheetIDs:        make(map[string]int64),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// classify maps an API error to the write-failure taxonomy: HTTP-level 4xx
// responses are rejections, everything else (transport errors, 5xx) is a
// connectivity failure.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
		return store.Rejected(err)
	}
	return store.Connectivity(err)
}

func entryRow(e core.LedgerEntry) []any {
	return []any{
		e.ID,
		e.FamilyID,
		e.CreatedBy,
		e.CategoryID,
		e.CategoryName,
		e.Date.String(),
		strconv.FormatInt(e.AmountOriginalMinor, 10),
		string(e.CurrencyOriginal),
		string(e.CurrencyBase),
		strconv.FormatFloat(e.FxRate, 'f', -1, 64),
		e.FxDate.String(),
		strconv.FormatInt(e.AmountBaseMinor, 10),
		e.Notes,
	}
}

func parseEntryRow(row []any) (core.LedgerEntry, bool) {
	cols := make([]string, 13)
	for i := range cols {
		if i < len(row) {
			cols[i] = strings.TrimSpace(fmt.Sprint(row[i]))
		}
	}
	if cols[0] == "" || cols[0] == "id" {
		// blank (deleted) row or header
		return core.LedgerEntry{}, false
	}
	date, err := core.ParseDate(cols[5])
	if err != nil {
		return core.LedgerEntry{}, false
	}
	amountMinor, err := strconv.ParseInt(cols[6], 10, 64)
	if err != nil {
		return core.LedgerEntry{}, false
	}
	rate, err := strconv.ParseFloat(cols[9], 64)
	if err != nil {
		return core.LedgerEntry{}, false
	}
	fxDate, err := core.ParseDate(cols[10])
	if err != nil {
		return core.LedgerEntry{}, false
	}
	baseMinor, err := strconv.ParseInt(cols[11], 10, 64)
	if err != nil {
		return core.LedgerEntry{}, false
	}
	return core.LedgerEntry{
		ID:                  cols[0],
		FamilyID:            cols[1],
		CreatedBy:           cols[2],
		CategoryID:          cols[3],
		CategoryName:        cols[4],
		Date:                date,
		AmountOriginalMinor: amountMinor,
		CurrencyOriginal:    core.CurrencyCode(cols[7]),
		CurrencyBase:        core.CurrencyCode(cols[8]),
		FxRate:              rate,
		FxDate:              fxDate,
		AmountBaseMinor:     baseMinor,
		Notes:               cols[12],
	}, true
}

func (c *Client) CreateEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", store.Rejected(err)
	}
	e.ID = uuid.NewString()

	rng := fmt.Sprintf("%s!%s", c.entriesSheet, entriesRange)
	vr := &gsheet.ValueRange{Values: [][]any{entryRow(e)}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", classify(fmt.Errorf("append entry: %w", err))
	}

	c.logger.InfoContext(ctx, "Entry appended to spreadsheet",
		applog.FieldEntryID, e.ID,
		applog.FieldFamilyID, e.FamilyID)
	return e.ID, nil
}

func (c *Client) ReplaceEntry(ctx context.Context, e core.LedgerEntry) error {
	if err := e.Validate(); err != nil {
		return store.Rejected(err)
	}
	rowNum, err := c.findRow(ctx, c.entriesSheet, e.ID)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d:M%d", c.entriesSheet, rowNum, rowNum)
	vr := &gsheet.ValueRange{Values: [][]any{entryRow(e)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return classify(fmt.Errorf("update entry row %d: %w", rowNum, err))
	}
	return nil
}

func (c *Client) DeleteEntry(ctx context.Context, familyID, id string) error {
	rowNum, err := c.findRow(ctx, c.entriesSheet, id)
	if err != nil {
		return err
	}
	sheetID, err := c.sheetID(ctx, c.entriesSheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowNum - 1),
					EndIndex:   int64(rowNum),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classify(fmt.Errorf("delete entry row %d: %w", rowNum, err))
	}
	_ = familyID // rows are already family-scoped via column B; id lookup is global
	return nil
}

func (c *Client) ListEntries(ctx context.Context, filter store.EntryFilter) ([]core.LedgerEntry, error) {
	rng := fmt.Sprintf("%s!%s", c.entriesSheet, entriesRange)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Errorf("read entries: %w", err))
	}
	var out []core.LedgerEntry
	for _, row := range resp.Values {
		e, ok := parseEntryRow(row)
		if !ok {
			continue
		}
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, cat core.Category) (string, error) {
	if err := cat.Validate(); err != nil {
		return "", store.Rejected(err)
	}
	cat.ID = uuid.NewString()

	rng := fmt.Sprintf("%s!A:D", c.categoriesSheet)
	vr := &gsheet.ValueRange{Values: [][]any{{cat.ID, cat.FamilyID, cat.Name, strconv.FormatBool(cat.Active)}}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", classify(fmt.Errorf("append category: %w", err))
	}
	return cat.ID, nil
}

func (c *Client) ListCategories(ctx context.Context, familyID string) ([]core.Category, error) {
	rng := fmt.Sprintf("%s!A:D", c.categoriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Errorf("read categories: %w", err))
	}
	var out []core.Category
	for _, row := range resp.Values {
		cols := make([]string, 4)
		for i := range cols {
			if i < len(row) {
				cols[i] = strings.TrimSpace(fmt.Sprint(row[i]))
			}
		}
		if cols[0] == "" || cols[0] == "id" || cols[1] != familyID {
			continue
		}
		out = append(out, core.Category{
			ID:       cols[0],
			FamilyID: cols[1],
			Name:     cols[2],
			Active:   cols[3] != "false",
		})
	}
	return out, nil
}

// findRow returns the 1-based row number whose column A equals id.
func (c *Client) findRow(ctx context.Context, sheetName, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, classify(fmt.Errorf("scan %s ids: %w", sheetName, err))
	}
	for i, row := range resp.Values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return 0, store.Rejected(fmt.Errorf("%w: %s", store.ErrNotFound, id))
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	if id, ok := c.sheetIDs[title]; ok {
		return id, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, classify(fmt.Errorf("get spreadsheet metadata: %w", err))
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := c.sheetIDs[title]
	if !ok {
		return 0, store.Rejected(fmt.Errorf("sheet %q not found", title))
	}
	return id, nil
}
