package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"famspend/internal/core"
	applog "famspend/internal/log"
)

// DefaultBaseURL is the public Frankfurter endpoint (ECB rates, supports
// historical dates).
const DefaultBaseURL = "https://api.frankfurter.app"

// Client resolves rates against a Frankfurter-style HTTP API:
// GET {base}/{YYYY-MM-DD}?from=X&to=Y -> {"rates": {"Y": 0.92}}.
//
// The client holds no cache; each differing-currency write performs exactly
// one lookup.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *applog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *applog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentFX)
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Resolve(ctx context.Context, from, to core.CurrencyCode, date core.Date) (float64, error) {
	// Same-currency short circuit: required for correctness and to avoid
	// unnecessary I/O.
	if from == to {
		return 1, nil
	}

	u := fmt.Sprintf("%s/%s?from=%s&to=%s",
		c.baseURL,
		url.PathEscape(date.String()),
		url.QueryEscape(string(from)),
		url.QueryEscape(string(to)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build fx request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode >= 500:
		return 0, fmt.Errorf("%w: status %d", ErrSourceUnreachable, resp.StatusCode)
	default:
		// 404 for unknown dates, 422 for unsupported currencies.
		return 0, fmt.Errorf("%w: %s/%s on %s (status %d)",
			ErrRateUnavailable, from, to, date, resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrSourceUnreachable, err)
	}

	rate, ok := body.Rates[string(to)]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%w: %s/%s on %s", ErrRateUnavailable, from, to, date)
	}

	c.logger.DebugContext(ctx, "Resolved fx rate",
		applog.FieldCurrencyFrom, string(from),
		applog.FieldCurrencyTo, string(to),
		applog.FieldFxDate, date.String(),
		applog.FieldFxRate, rate)

	return rate, nil
}
