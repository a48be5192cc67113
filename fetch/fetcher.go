package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"demandflow/logger"
)

// Fetcher is the contract the source adapters consume. Implementations return
// the response body for a URL or a single generic fetch-failure error.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, headers map[string]string) (string, error)
}

// Hosts the client is willing to talk to. Everything else is rejected before
// a connection is attempted.
var allowedHosts = map[string]struct{}{
	"suggestqueries.google.com": {},
	"completion.amazon.com":     {},
	"trends.google.com":         {},
	"www.amazon.com":            {},
	"www.walmart.com":           {},
	"www.target.com":            {},
	"redsky.target.com":         {},
}

// Client is a rate-limited HTTP fetcher shared by all source adapters. The
// cookie jar is deliberate: Google Trends requires session cookies primed by
// an earlier page fetch before its API endpoints respond.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	log        *logger.Log
}

// NewClient builds the shared fetcher with timeout, user agent and
// client-side rate limiting.
func NewClient(timeout time.Duration, userAgent string, requestsPerSecond float64, burst int) (*Client, error) {
	if requestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be greater than 0")
	}
	if burst < 1 {
		burst = 1
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        8,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   timeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		userAgent: userAgent,
		log:       logger.GetLogger(),
	}, nil
}

// Fetch retrieves rawURL and returns the body as a string. Any network, HTTP
// status or timeout problem surfaces as a single wrapped error; callers treat
// all of them as a recoverable source failure.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	host, err := assertAllowedHost(rawURL)
	if err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to fetch URL %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response from %s: %w", rawURL, err)
	}

	logger.LogPerformanceEntry(c.log.WithComponent("fetch"), "fetch", "http_request", time.Since(start), logger.Fields{
		"host":   host,
		"status": resp.StatusCode,
	})
	logger.RecordFetch(host, len(body))

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP Error %d: %s fetching %s", resp.StatusCode, http.StatusText(resp.StatusCode), rawURL)
	}

	return string(body), nil
}

func assertAllowedHost(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}
	if parsed.Scheme != "https" {
		return "", fmt.Errorf("only https URLs are allowed: %s", rawURL)
	}
	host := parsed.Hostname()
	if _, ok := allowedHosts[host]; !ok {
		return "", fmt.Errorf("host not allowed for discovery fetches: %s", host)
	}
	return host, nil
}
