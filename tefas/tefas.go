// Package tefas fetches Turkish mutual fund prices from the TEFAS
// BindHistoryInfo endpoint. TEFAS publishes one table per business day and
// per umbrella fund type, so the client loads the latest published day once
// and answers per-symbol lookups from that table.
package tefas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	portfolio "github.com/emrek92/Portfoy-Takip"
	"github.com/emrek92/Portfoy-Takip/date"
)

const (
	DefaultBaseURL   = "https://www.tefas.gov.tr/api/DB/BindHistoryInfo"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second

	// TEFAS skips weekends and holidays; walking back a business week always
	// reaches a published day.
	maxLookbackDays = 5

	wireDateFormat = "02.01.2006"
)

// fundTypes are the umbrella types whose tables together cover every listed
// fund code.
var fundTypes = []string{"YAT", "EMK", "BYF", "GYF", "GSYF"}

// Client loads and caches the latest published fund table.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger

	mu        sync.Mutex
	published date.Date
	fetchedAt time.Time
	funds     map[string]portfolio.Quote
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets the endpoint URL, used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithRateLimit sets the upstream request rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// NewClient creates a TEFAS client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote implements portfolio.QuoteProvider. The class argument is ignored:
// everything TEFAS lists is a fund.
func (c *Client) Quote(ctx context.Context, symbol string, _ portfolio.AssetType) (portfolio.Quote, error) {
	funds, err := c.table(ctx)
	if err != nil {
		return portfolio.Quote{}, &portfolio.ProviderError{Symbol: symbol, Provider: "tefas", Err: err}
	}
	q, ok := funds[strings.ToUpper(symbol)]
	if !ok {
		return portfolio.Quote{}, &portfolio.ProviderError{
			Symbol: symbol, Provider: "tefas",
			Err: fmt.Errorf("fund not in %s table", c.published),
		}
	}
	return q, nil
}

// table returns the latest published fund table, loading it on first use.
// The published day itself is the cache key: once loaded, the same table
// serves until a newer business day appears.
func (c *Client) table(ctx context.Context) (map[string]portfolio.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.funds != nil && time.Since(c.fetchedAt) < time.Hour {
		return c.funds, nil
	}

	day, first, err := c.findPublishedDay(ctx)
	if err != nil {
		return nil, err
	}
	if !day.After(c.published) && c.funds != nil {
		// Nothing newer published; keep serving the loaded table.
		c.fetchedAt = time.Now()
		return c.funds, nil
	}

	funds := make(map[string]portfolio.Quote)
	mergeRows(funds, first, day)
	for _, fundType := range fundTypes[1:] {
		rows, err := c.fetchDay(ctx, fundType, day)
		if err != nil {
			// A missing umbrella type degrades coverage, not the whole load.
			c.log.Warn().Err(err).Str("fontip", fundType).Msg("Fund table fetch failed")
			continue
		}
		mergeRows(funds, rows, day)
	}
	if len(funds) == 0 {
		return nil, fmt.Errorf("no funds published for %s", day)
	}

	c.published = day
	c.fetchedAt = time.Now()
	c.funds = funds
	c.log.Info().Stringer("published", day).Int("funds", len(funds)).Msg("Loaded fund table")
	return funds, nil
}

// findPublishedDay walks back from today over business days until one fund
// type returns rows, and returns those rows along with the day.
func (c *Client) findPublishedDay(ctx context.Context) (date.Date, []any, error) {
	day := date.Today()
	for i := 0; i < maxLookbackDays; i, day = i+1, day.Add(-1) {
		if day.IsWeekend() {
			continue
		}
		rows, err := c.fetchDay(ctx, fundTypes[0], day)
		if err != nil {
			return date.Date{}, nil, err
		}
		if len(rows) > 0 {
			return day, rows, nil
		}
	}
	return date.Date{}, nil, fmt.Errorf("no published fund data in the last %d days", maxLookbackDays)
}

// fetchDay posts the history form for one fund type and day and returns the
// raw data rows.
func (c *Client) fetchDay(ctx context.Context, fundType string, day date.Date) ([]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	wireDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).Format(wireDateFormat)
	form := url.Values{
		"fontip":   {fundType},
		"bastarih": {wireDay},
		"bittarih": {wireDay},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("POST fontip=%s %s: %s", fundType, wireDay, resp.Status)
	}

	var jobj any
	if err := json.NewDecoder(resp.Body).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("decoding fontip=%s response: %w", fundType, err)
	}
	jval, err := jsonpath.Get("$.data", jobj)
	if err != nil {
		return nil, fmt.Errorf("no data array in fontip=%s response: %w", fundType, err)
	}
	rows, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("fontip=%s data is not an array", fundType)
	}
	return rows, nil
}

// mergeRows extracts fund quotes out of raw table rows. The price may live
// under any of three keys depending on the fund type.
func mergeRows(into map[string]portfolio.Quote, rows []any, day date.Date) {
	asOf := time.Date(day.Year(), day.Month(), day.Day(), 18, 0, 0, 0, time.Local)
	for _, row := range rows {
		fund, ok := row.(map[string]any)
		if !ok {
			continue
		}
		symbol, _ := fund["FONKODU"].(string)
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		name, _ := fund["FONUNVAN"].(string)

		price := floatField(fund, "FIYAT", "SONFIYAT", "BORSABULTENFIYAT")
		if price <= 0 {
			continue
		}
		change := floatField(fund, "GUNLUKGETIRI")

		into[symbol] = portfolio.Quote{
			Symbol:        symbol,
			Name:          name,
			LastPrice:     price,
			ChangePercent: change,
			AsOf:          asOf,
		}
	}
}

// floatField returns the first of the named keys holding a number.
func floatField(fund map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := fund[key].(float64); ok {
			return v
		}
	}
	return 0
}
