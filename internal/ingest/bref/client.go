// Package bref fetches NBA advanced statistics from Basketball Reference.
// The provider is a best-effort public source that occasionally rate-limits,
// so every page fetch goes through a bounded retry loop with a fixed delay
// and a polite minimum interval between requests.
package bref

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fuku8/nba-rating-visualizer/internal/normalize"
	"github.com/fuku8/nba-rating-visualizer/internal/table"
)

const (
	// BaseURL for Basketball Reference
	BaseURL = "https://www.basketball-reference.com"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to prevent rate limiting
	MinRequestInterval = 2 * time.Second

	defaultMaxRetries = 3
	defaultRetryDelay = 5 * time.Second
	requestTimeout    = 30 * time.Second
)

// FetchError reports an upstream fetch that failed after every retry
// attempt. It wraps the last underlying error.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client scrapes Basketball Reference with rate limiting and bounded retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration

	interval    time.Duration
	lastRequest time.Time

	// Optional headless-browser fallback for pages whose tables only
	// appear after JS rendering.
	rendered *Rendered
}

// Option configures a Client.
type Option func(*Client)

// WithRetryPolicy overrides the default retry count and fixed delay.
func WithRetryPolicy(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// WithRequestInterval overrides the minimum spacing between requests.
func WithRequestInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.interval = interval
	}
}

// WithRenderedFallback attaches a headless-browser client used when the
// static HTML yields no stats table.
func WithRenderedFallback(r *Rendered) Option {
	return func(c *Client) {
		c.rendered = r
	}
}

// NewClient creates a Basketball Reference client. An empty baseURL selects
// the production site.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		interval:   MinRequestInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the rendered-fallback browser, if any.
func (c *Client) Close() {
	if c.rendered != nil {
		c.rendered.Close()
	}
}

// Provider identifies the column mapping for tables this client produces.
func (c *Client) Provider() normalize.Provider {
	return normalize.BasketballReference
}

// TeamRatings fetches the team advanced stats table for a season.
func (c *Client) TeamRatings(ctx context.Context, season string) (*table.Raw, error) {
	url := fmt.Sprintf("%s/leagues/NBA_%s.html", c.baseURL, seasonYear(season))
	return c.fetchTable(ctx, url, "advanced-team", "ORtg")
}

// PlayerRatings fetches the player advanced stats table for a season.
func (c *Client) PlayerRatings(ctx context.Context, season string) (*table.Raw, error) {
	url := fmt.Sprintf("%s/leagues/NBA_%s_advanced.html", c.baseURL, seasonYear(season))
	return c.fetchTable(ctx, url, "advanced", "WS")
}

// fetchTable downloads a page and extracts the identified stats table,
// falling back to a rendered fetch when the static HTML has no table.
func (c *Client) fetchTable(ctx context.Context, url, tableID, marker string) (*table.Raw, error) {
	html, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}

	raw, err := ExtractTable(html, tableID, marker)
	if err == nil {
		return raw, nil
	}

	if c.rendered != nil {
		log.Printf("[bref] no %q table in static HTML, retrying with rendered fetch", tableID)
		rendered, rerr := c.rendered.Fetch(ctx, url)
		if rerr != nil {
			return nil, &FetchError{URL: url, Attempts: 1, Err: rerr}
		}
		if raw, err = ExtractTable(rendered, tableID, marker); err == nil {
			return raw, nil
		}
	}

	return nil, &FetchError{URL: url, Attempts: 1, Err: err}
}

// fetchWithRetry performs the page download with rate limiting and the
// fixed-backoff retry policy. It returns the page HTML or a FetchError
// wrapping the last underlying error.
func (c *Client) fetchWithRetry(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		c.waitForInterval()

		html, err := c.fetch(ctx, url)
		c.lastRequest = time.Now()
		if err == nil {
			return html, nil
		}
		lastErr = err

		log.Printf("[bref] fetch attempt %d/%d for %s failed: %v", attempt, c.maxRetries, url, err)
		if attempt < c.maxRetries {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return "", &FetchError{URL: url, Attempts: attempt, Err: ctx.Err()}
			}
		}
	}
	return "", &FetchError{URL: url, Attempts: c.maxRetries, Err: lastErr}
}

// waitForInterval enforces the polite minimum spacing between requests.
func (c *Client) waitForInterval() {
	if c.lastRequest.IsZero() || c.interval <= 0 {
		return
	}
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.interval {
		time.Sleep(c.interval - elapsed)
	}
}

func (c *Client) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("empty response body")
	}

	return string(body), nil
}

// ParseHTML converts raw HTML to a goquery Document for parsing.
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// seasonYear converts a season label like "2025-26" to the ending year
// Basketball Reference uses in its URLs ("2026"). Labels that are already a
// plain year pass through unchanged.
func seasonYear(season string) string {
	start, rest, found := strings.Cut(season, "-")
	if !found {
		return season
	}
	startYear, err := strconv.Atoi(start)
	if err != nil || len(rest) != 2 {
		return season
	}
	return strconv.Itoa(startYear + 1)
}
