// Package coingecko provides a minimal client for the CoinGecko simple price API.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public CoinGecko API root
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	// DefaultTimeout bounds a single Prices call, retries included
	DefaultTimeout = 10 * time.Second
)

// Quote is the USD market data for one asset.
// Change24h and MarketCap are nil when the API did not report them.
type Quote struct {
	PriceUSD  float64
	Change24h *float64
	MarketCap *float64
}

// Quotes maps lowercase asset ids to their quotes.
type Quotes map[string]Quote

// Lookup reports the quote for id and whether the API returned one.
func (q Quotes) Lookup(id string) (Quote, bool) {
	quote, ok := q[id]
	return quote, ok
}

// Client queries the /simple/price endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL overrides the API root, e.g. for the pro API or a test server
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

// WithTimeout bounds each Prices call. Zero or negative keeps the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New returns a client. Without WithHTTPClient a plain client with DefaultTimeout is used.
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coingecko api status %d", e.StatusCode)
}

// apiQuote mirrors one entry of the /simple/price response.
type apiQuote struct {
	USD          *float64 `json:"usd"`
	USD24hChange *float64 `json:"usd_24h_change"`
	USDMarketCap *float64 `json:"usd_market_cap"`
}

// Prices fetches USD quotes for the given ids.
// Ids missing from the response are missing from the returned Quotes; that is not an error.
func (c *Client) Prices(ctx context.Context, ids ...string) (Quotes, error) {
	if len(ids) == 0 {
		return Quotes{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL, err := c.buildPriceURL(ids)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("price request timed out after %s: %w", c.timeout, err)
		}
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var raw map[string]apiQuote
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	quotes := make(Quotes, len(raw))
	for id, q := range raw {
		// An entry without a usd price carries no quote.
		if q.USD == nil {
			continue
		}
		quotes[id] = Quote{
			PriceUSD:  *q.USD,
			Change24h: q.USD24hChange,
			MarketCap: q.USDMarketCap,
		}
	}
	return quotes, nil
}

func (c *Client) buildPriceURL(ids []string) (string, error) {
	u, err := url.Parse(c.baseURL + "/simple/price")
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	q.Set("include_market_cap", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
