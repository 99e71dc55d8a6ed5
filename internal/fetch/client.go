// Package fetch is the shared HTTP layer underneath every source adapter:
// response caching, per-source rate limiting, and bounded retry with
// exponential backoff. Adapters own their retry policy; everything else is
// common.
package fetch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/okarpov/athanor/internal/cache"
	"github.com/okarpov/athanor/internal/model"
)

// RetryPolicy bounds an adapter's retries on 429 and 5xx responses. Backoff
// doubles from BaseDelay on each attempt, without jitter, so request
// schedules stay deterministic under test.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultRetry is used when an adapter does not declare its own policy.
var DefaultRetry = RetryPolicy{Attempts: 4, BaseDelay: 500 * time.Millisecond}

func (p RetryPolicy) orDefault() RetryPolicy {
	if p.Attempts <= 0 {
		return DefaultRetry
	}
	return p
}

// Client performs cached, rate-limited GETs for the source adapters.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	limiter   *Limiter
	robots    *RobotsChecker
	userAgent string
	maxBytes  int64
}

// NewClient builds the shared client. The cache may be cache.Nop.
func NewClient(cfg model.HTTPConfig, store cache.Cache, limiter *Limiter) *Client {
	transport := &http.Transport{
		Proxy: proxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		cache:     store,
		limiter:   limiter,
		robots:    NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
	}
}

// serverError marks retryable failures: 5xx responses and transport errors
// (status 0).
type serverError struct {
	status int
	err    error
}

func (e *serverError) Error() string {
	if e.status == 0 {
		return fmt.Sprintf("network error: %v", e.err)
	}
	return fmt.Sprintf("server error: status %d", e.status)
}

// Get fetches rawURL on behalf of the named source, consulting the cache
// first. Retries are bounded by pol; once the budget is spent the error is
// a SourceUnavailableError. A 404 surfaces as model.ErrNotFound and is
// never retried. Cache write failures are ignored: the cache degrades to a
// miss, it never breaks a fetch.
func (c *Client) Get(ctx context.Context, source, rawURL string, pol RetryPolicy) ([]byte, error) {
	key := cache.Fingerprint(source, rawURL)
	if data, ok := c.cache.Get(key); ok {
		return data, nil
	}

	pol = pol.orDefault()
	delay := pol.BaseDelay
	var lastErr error

	for attempt := 0; attempt < pol.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(nextDelay(delay, lastErr)):
			}
			delay *= 2
		}

		if err := c.limiter.Wait(ctx, source); err != nil {
			return nil, err
		}

		data, err := c.do(ctx, source, rawURL)
		if err == nil {
			_ = c.cache.Set(key, data, 0)
			return data, nil
		}
		if !retryable(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}

	return nil, &model.SourceUnavailableError{Source: source, Err: lastErr}
}

func (c *Client) do(ctx context.Context, source, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json,application/xml,text/html;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &serverError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%s: %w", rawURL, model.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &model.RateLimitedError{
			Source:     source,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, &serverError{status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// GetJSON fetches and decodes a JSON response into v.
func (c *Client) GetJSON(ctx context.Context, source, rawURL string, pol RetryPolicy, v any) error {
	data, err := c.Get(ctx, source, rawURL, pol)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s response: %w", source, err)
	}
	return nil
}

// GetXML fetches and decodes an XML response into v.
func (c *Client) GetXML(ctx context.Context, source, rawURL string, pol RetryPolicy, v any) error {
	data, err := c.Get(ctx, source, rawURL, pol)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s response: %w", source, err)
	}
	return nil
}

// GetHTML fetches a page for scraping, honoring robots.txt and any crawl
// delay the site declares.
func (c *Client) GetHTML(ctx context.Context, source, rawURL string, pol RetryPolicy) (*html.Node, error) {
	allowed, delay, err := c.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("robots.txt disallows %s", rawURL)
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	data, err := c.Get(ctx, source, rawURL, pol)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", source, err)
	}
	return doc, nil
}

// nextDelay is the wait before the next attempt: the backoff delay, or the
// server's Retry-After when it asks for longer.
func nextDelay(backoff time.Duration, lastErr error) time.Duration {
	var rl *model.RateLimitedError
	if errors.As(lastErr, &rl) && rl.RetryAfter > backoff {
		return rl.RetryAfter
	}
	return backoff
}

func retryable(err error) bool {
	var rl *model.RateLimitedError
	var se *serverError
	return errors.As(err, &rl) || errors.As(err, &se)
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}
