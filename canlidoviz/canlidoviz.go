// Package canlidoviz scrapes canlidoviz.com price tables for currencies,
// precious metals, equities and crypto. The site publishes one HTML table per
// asset class, so the client fetches a whole page at a time and answers
// per-symbol lookups from the memoized table.
package canlidoviz

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	portfolio "github.com/emrek92/Portfoy-Takip"
)

const (
	DefaultBaseURL   = "https://canlidoviz.com"
	DefaultTimeout   = 20 * time.Second
	DefaultRateLimit = 2 // requests per second

	// Pages change every few seconds; one fetch per class per refresh run
	// is enough.
	tableMaxAge = time.Minute

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// pagePath maps an asset class to its table page.
func pagePath(class portfolio.AssetType) (string, error) {
	switch class {
	case portfolio.FX:
		return "/doviz-kurlari", nil
	case portfolio.Commodity:
		return "/altin-fiyatlari", nil
	case portfolio.Equity, portfolio.Index:
		return "/borsa", nil
	case portfolio.Crypto:
		return "/kripto-paralar", nil
	default:
		return "", fmt.Errorf("canlidoviz does not list %s", class)
	}
}

// Client fetches and caches the class tables.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger

	mu     sync.Mutex
	tables map[string]*table
}

type table struct {
	fetchedAt time.Time
	quotes    map[string]portfolio.Quote
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL, used by tests to point at a local server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
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

// NewClient creates a canlidoviz client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:        zerolog.Nop(),
		tables:     make(map[string]*table),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote implements portfolio.QuoteProvider.
func (c *Client) Quote(ctx context.Context, symbol string, class portfolio.AssetType) (portfolio.Quote, error) {
	path, err := pagePath(class)
	if err != nil {
		return portfolio.Quote{}, &portfolio.ProviderError{Symbol: symbol, Provider: "canlidoviz", Err: err}
	}

	t, err := c.tableFor(ctx, path)
	if err != nil {
		return portfolio.Quote{}, &portfolio.ProviderError{Symbol: symbol, Provider: "canlidoviz", Err: err}
	}

	q, ok := t.quotes[strings.ToUpper(symbol)]
	if !ok {
		return portfolio.Quote{}, &portfolio.ProviderError{
			Symbol: symbol, Provider: "canlidoviz",
			Err: fmt.Errorf("symbol not listed on %s", path),
		}
	}
	return q, nil
}

func (c *Client) tableFor(ctx context.Context, path string) (*table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tables[path]; ok && time.Since(t.fetchedAt) < tableMaxAge {
		return t, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	quotes := scrapeTable(doc, path)
	c.log.Debug().Str("page", path).Int("symbols", len(quotes)).Msg("Scraped price table")
	if len(quotes) == 0 {
		return nil, fmt.Errorf("no price rows found on %s", path)
	}

	t := &table{fetchedAt: time.Now(), quotes: quotes}
	c.tables[path] = t
	return t, nil
}

// The selector sets cover both the desktop and mobile markup variants the
// site serves.
const (
	rowSelector    = "tr.currency-list-row, tr.table-row-md"
	nameSelector   = "span[itemprop='name'], span.truncate.text-theme.text-base"
	priceSelector  = "span[dt='bA'], span[dt='amount']"
	codeSelector   = "span[itemprop='currency'], span.table-code, span.code"
	changeSelector = "span[dt='change'], span[dt='perc'], span[dt='p'], span.table-perc, span.currency-change-text"
)

func scrapeTable(doc *goquery.Document, path string) map[string]portfolio.Quote {
	crypto := strings.Contains(path, "kripto")
	now := time.Now()
	quotes := make(map[string]portfolio.Quote)

	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find(nameSelector).First().Text())
		priceText := row.Find(priceSelector).First().Text()
		symbol := strings.TrimSpace(row.Find(codeSelector).First().Text())
		changeText := row.Find(changeSelector).First().Text()

		if name == "" || priceText == "" {
			return
		}
		if symbol == "" {
			symbol = symbolFromName(name)
		}
		symbol = strings.ToUpper(symbol)
		if crypto {
			symbol += "-C"
			symbol = strings.Replace(symbol, "-C-C", "-C", 1)
		}

		price, err := ParseTurkishFloat(cleanNumber(priceText, false))
		if err != nil || price <= 0 {
			return
		}
		change, err := ParseTurkishFloat(cleanNumber(changeText, true))
		if err != nil {
			change = 0
		}

		quotes[symbol] = portfolio.Quote{
			Symbol:        symbol,
			Name:          name,
			LastPrice:     price,
			ChangePercent: change,
			AsOf:          now,
		}
	})
	return quotes
}

// symbolFromName derives a symbol for rows without a code span: the first
// five alphanumeric characters of the name, uppercased.
func symbolFromName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= 5 {
				break
			}
		}
	}
	return strings.ToUpper(b.String())
}

// cleanNumber strips everything but digits and separators (and sign when
// signed) from a scraped cell.
func cleanNumber(s string, signed bool) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			b.WriteRune(r)
		case signed && (r == '-' || r == '+'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseTurkishFloat parses a number that may use Turkish formatting, where
// '.' groups thousands and ',' marks the decimal. "1.234,56" and "1,234.56"
// are disambiguated by which separator comes last.
func ParseTurkishFloat(s string) (float64, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return 0, fmt.Errorf("empty number")
	}
	hasComma := strings.Contains(clean, ",")
	hasDot := strings.Contains(clean, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(clean, ",") > strings.LastIndex(clean, ".") {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.ReplaceAll(clean, ",", ".")
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case hasComma:
		clean = strings.ReplaceAll(clean, ",", ".")
	}
	return strconv.ParseFloat(clean, 64)
}
