// Package rest implements the remote EntryStore over a JSON HTTP API of the
// hosted backend. Transport failures and 5xx responses classify as
// connectivity; 4xx responses classify as rejections.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"famspend/internal/core"
	applog "famspend/internal/log"
	"famspend/internal/store"
)

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  *applog.Logger
}

var _ store.EntryStore = (*Client)(nil)

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *applog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentStore)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// entryDTO mirrors the hosted backend's expense row shape.
type entryDTO struct {
	ID                  string  `json:"id,omitempty"`
	FamilyID            string  `json:"family_id"`
	CreatedBy           string  `json:"created_by"`
	CategoryID          string  `json:"category_id"`
	CategoryName        string  `json:"category_name,omitempty"`
	ExpenseDate         string  `json:"expense_date"`
	AmountOriginalMinor int64   `json:"amount_original_minor"`
	CurrencyOriginal    string  `json:"currency_original"`
	CurrencyBase        string  `json:"currency_base"`
	FxRate              float64 `json:"fx_rate"`
	FxDate              string  `json:"fx_date"`
	AmountBaseMinor     int64   `json:"amount_base_minor"`
	Notes               string  `json:"notes,omitempty"`
}

type categoryDTO struct {
	ID       string `json:"id,omitempty"`
	FamilyID string `json:"family_id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
}

func toDTO(e core.LedgerEntry) entryDTO {
	return entryDTO{
		ID:                  e.ID,
		FamilyID:            e.FamilyID,
		CreatedBy:           e.CreatedBy,
		CategoryID:          e.CategoryID,
		CategoryName:        e.CategoryName,
		ExpenseDate:         e.Date.String(),
		AmountOriginalMinor: e.AmountOriginalMinor,
		CurrencyOriginal:    string(e.CurrencyOriginal),
		CurrencyBase:        string(e.CurrencyBase),
		FxRate:              e.FxRate,
		FxDate:              e.FxDate.String(),
		AmountBaseMinor:     e.AmountBaseMinor,
		Notes:               e.Notes,
	}
}

func fromDTO(d entryDTO) (core.LedgerEntry, error) {
	date, err := core.ParseDate(d.ExpenseDate)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %s: bad expense_date %q", d.ID, d.ExpenseDate)
	}
	fxDate, err := core.ParseDate(d.FxDate)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %s: bad fx_date %q", d.ID, d.FxDate)
	}
	return core.LedgerEntry{
		ID:                  d.ID,
		FamilyID:            d.FamilyID,
		CreatedBy:           d.CreatedBy,
		CategoryID:          d.CategoryID,
		CategoryName:        d.CategoryName,
		Date:                date,
		AmountOriginalMinor: d.AmountOriginalMinor,
		CurrencyOriginal:    core.CurrencyCode(d.CurrencyOriginal),
		CurrencyBase:        core.CurrencyCode(d.CurrencyBase),
		FxRate:              d.FxRate,
		FxDate:              fxDate,
		AmountBaseMinor:     d.AmountBaseMinor,
		Notes:               d.Notes,
	}, nil
}

func (c *Client) CreateEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", store.Rejected(err)
	}
	var out struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/v1/families/%s/entries", url.PathEscape(e.FamilyID))
	if err := c.do(ctx, http.MethodPost, path, toDTO(e), &out); err != nil {
		return "", err
	}
	c.logger.InfoContext(ctx, "Entry committed to remote store",
		applog.FieldEntryID, out.ID,
		applog.FieldFamilyID, e.FamilyID,
		applog.FieldBaseMinor, e.AmountBaseMinor)
	return out.ID, nil
}

func (c *Client) ReplaceEntry(ctx context.Context, e core.LedgerEntry) error {
	if err := e.Validate(); err != nil {
		return store.Rejected(err)
	}
	path := fmt.Sprintf("/v1/families/%s/entries/%s",
		url.PathEscape(e.FamilyID), url.PathEscape(e.ID))
	return c.do(ctx, http.MethodPut, path, toDTO(e), nil)
}

func (c *Client) DeleteEntry(ctx context.Context, familyID, id string) error {
	path := fmt.Sprintf("/v1/families/%s/entries/%s",
		url.PathEscape(familyID), url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListEntries(ctx context.Context, filter store.EntryFilter) ([]core.LedgerEntry, error) {
	q := url.Values{}
	if !filter.From.IsZero() {
		q.Set("from", filter.From.String())
	}
	if !filter.To.IsZero() {
		q.Set("to", filter.To.String())
	}
	if filter.CategoryID != "" {
		q.Set("category_id", filter.CategoryID)
	}
	if filter.CreatedBy != "" {
		q.Set("created_by", filter.CreatedBy)
	}
	path := fmt.Sprintf("/v1/families/%s/entries", url.PathEscape(filter.FamilyID))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var dtos []entryDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	entries := make([]core.LedgerEntry, 0, len(dtos))
	for _, d := range dtos {
		e, err := fromDTO(d)
		if err != nil {
			return nil, fmt.Errorf("decode entry list: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *Client) CreateCategory(ctx context.Context, cat core.Category) (string, error) {
	if err := cat.Validate(); err != nil {
		return "", store.Rejected(err)
	}
	var out struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/v1/families/%s/categories", url.PathEscape(cat.FamilyID))
	body := categoryDTO{FamilyID: cat.FamilyID, Name: cat.Name, Active: cat.Active}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) ListCategories(ctx context.Context, familyID string) ([]core.Category, error) {
	var dtos []categoryDTO
	path := fmt.Sprintf("/v1/families/%s/categories", url.PathEscape(familyID))
	if err := c.do(ctx, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	cats := make([]core.Category, 0, len(dtos))
	for _, d := range dtos {
		cats = append(cats, core.Category{ID: d.ID, FamilyID: d.FamilyID, Name: d.Name, Active: d.Active})
	}
	return cats, nil
}

// do performs a JSON request and classifies failures. Reads (GET) report
// connectivity failures too, but only writes feed the offline queue; the
// caller decides what the classification means.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return store.Rejected(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return store.Rejected(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return store.Connectivity(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return store.Connectivity(fmt.Errorf("decode response: %w", err))
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return store.Rejected(fmt.Errorf("%w: %s", store.ErrNotFound, path))
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests:
		return store.Connectivity(fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return store.Rejected(fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg)))
	}
}
