// Package jobboard queries the Adzuna job search API. Responses are handed
// back as raw JSON; the server proxies them to the client unmodified.
package jobboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.adzuna.com/v1/api/jobs"
	DefaultTimeout = 10 * time.Second

	defaultCountry = "in"
	defaultWhat    = "software"
	internWhat     = "intern"

	// Adzuna pages are a few hundred KB at most.
	maxResponseBytes = 5 << 20
)

// ErrUpstream is returned for any transport failure or non-2xx answer.
var ErrUpstream = errors.New("job board request failed")

// Query selects one page of search results. Zero fields take the
// defaults (country "in", what "software", page 1).
type Query struct {
	Country string
	What    string
	Where   string
	Page    int
}

// Client calls Adzuna with one application's credentials.
type Client struct {
	baseURL string
	appID   string
	appKey  string
	http    *http.Client
	logger  *zap.Logger

	maxBytes int64
}

// New builds a client. An empty baseURL means DefaultBaseURL.
func New(baseURL, appID, appKey string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		appID:   appID,
		appKey:  appKey,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logger,

		maxBytes: maxResponseBytes,
	}
}

// SearchJobs returns the raw JSON of one search page.
func (c *Client) SearchJobs(ctx context.Context, q Query) ([]byte, error) {
	if q.Country == "" {
		q.Country = defaultCountry
	}
	if q.What == "" {
		q.What = defaultWhat
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return c.search(ctx, q)
}

// SearchInternships searches India for internships, optionally near where.
func (c *Client) SearchInternships(ctx context.Context, where string) ([]byte, error) {
	return c.search(ctx, Query{Country: defaultCountry, What: internWhat, Where: where, Page: 1})
}

func (c *Client) search(ctx context.Context, q Query) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", c.baseURL, url.PathEscape(q.Country), q.Page)

	params := url.Values{}
	params.Set("app_id", c.appID)
	params.Set("app_key", c.appKey)
	params.Set("what", q.What)
	if q.Where != "" {
		params.Set("where", q.Where)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building job board request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, app key included; keep the cause only.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		c.logger.Warn("job board unreachable",
			zap.String("path", req.URL.Path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUpstream, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}
	if int64(len(body)) > c.maxBytes {
		c.logger.Warn("job board response too large",
			zap.String("path", req.URL.Path),
			zap.Int64("limit", c.maxBytes),
		)
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrUpstream, c.maxBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The query string carries the app key; log the path only.
		c.logger.Warn("job board returned an error",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	c.logger.Debug("job board search",
		zap.String("path", req.URL.Path),
		zap.String("what", q.What),
		zap.Duration("duration", time.Since(start)),
	)
	return body, nil
}
