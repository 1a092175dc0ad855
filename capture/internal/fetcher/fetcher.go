// CLAUDE:SUMMARY Asset fetcher: bounded concurrent HTTP retrieval outside the browser with retries, per-host rate limit, per-fetch timeout, blob filtering.
// Package fetcher retrieves resources outside the browser session.
//
// It is a second, independent pass over the URLs the page used, catching
// resources served from cache or by service workers that never produced a
// readable network event. Each fetch is independent: one failure never
// cancels another.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hazyhaar/pagesnap/capture/internal/classify"
	"github.com/hazyhaar/pagesnap/capture/internal/layout"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// Target is one URL to retrieve. Category is a hint used when the
// response does not classify to anything more specific.
type Target struct {
	URL      string
	Category snapshot.Category
	Source   snapshot.AssetSource
}

// Result splits fetch outcomes. Skipped holds URLs filtered out before any
// request (in-memory references, data: URLs, duplicates).
type Result struct {
	Assets  []snapshot.Asset
	Failed  []snapshot.Asset
	Skipped []string
}

// Config configures the fetcher.
type Config struct {
	// Concurrency bounds in-flight requests. Default: 8.
	Concurrency int

	// Timeout bounds one fetch including retries. Default: 30s.
	Timeout time.Duration

	// MaxBytes caps a single body. Default: 200MB.
	MaxBytes int64

	// RatePerSecond limits requests per host. 0 means the default of 10;
	// negative disables limiting.
	RatePerSecond float64

	// Retries on 5xx/429/transport errors. Default: 2.
	Retries int

	// RetryWaitMin and RetryWaitMax bound the backoff. Defaults: 250ms, 3s.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	UserAgent string

	// URLValidator rejects URLs before any request. Default: ValidateScheme.
	URLValidator func(string) error

	// Layout receives bodies. Required.
	Layout *layout.Layout

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 200 << 20
	}
	if c.RatePerSecond == 0 {
		c.RatePerSecond = 10
	}
	if c.Retries < 0 {
		c.Retries = 0
	} else if c.Retries == 0 {
		c.Retries = 2
	}
	if c.RetryWaitMin <= 0 {
		c.RetryWaitMin = 250 * time.Millisecond
	}
	if c.RetryWaitMax <= 0 {
		c.RetryWaitMax = 3 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; pagesnap/1.0)"
	}
	if c.URLValidator == nil {
		c.URLValidator = ValidateScheme
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Fetcher performs concurrent retrievals.
type Fetcher struct {
	cfg    Config
	client *retryablehttp.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the underlying *http.Client (tests, proxies).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client.HTTPClient = c }
}

// New creates a Fetcher.
func New(cfg Config, opts ...Option) *Fetcher {
	cfg.defaults()
	rc := retryablehttp.NewClient()
	rc.Logger = log.New(io.Discard, "", 0)
	rc.RetryMax = cfg.Retries
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	validate := cfg.URLValidator
	rc.HTTPClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return fmt.Errorf("too many redirects (%d)", len(via))
		}
		if err := validate(req.URL.String()); err != nil {
			return fmt.Errorf("redirect blocked: %w", err)
		}
		return nil
	}

	f := &Fetcher{cfg: cfg, client: rc, limiters: make(map[string]*rate.Limiter)}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FetchAll retrieves every retrievable target concurrently. Duplicates and
// non-retrievable URLs (blob:, data:) are skipped before any work starts.
// The context cancels pending work; it is never cancelled by a failure.
func (f *Fetcher) FetchAll(ctx context.Context, targets []Target) Result {
	var res Result
	seen := make(map[string]bool, len(targets))
	var work []Target
	for _, t := range targets {
		if seen[t.URL] {
			continue
		}
		seen[t.URL] = true
		if !snapshot.IsRetrievable(t.URL) {
			res.Skipped = append(res.Skipped, t.URL)
			continue
		}
		work = append(work, t)
	}

	out := make([]snapshot.Asset, len(work))
	var g errgroup.Group
	g.SetLimit(f.cfg.Concurrency)
	for i, t := range work {
		g.Go(func() error {
			out[i] = f.Fetch(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	for _, a := range out {
		if a.Error != "" {
			res.Failed = append(res.Failed, a)
		} else {
			res.Assets = append(res.Assets, a)
		}
	}
	f.cfg.Logger.Info("fetcher: done",
		"fetched", len(res.Assets), "failed", len(res.Failed), "skipped", len(res.Skipped))
	return res
}

// Fetch retrieves one target and writes it to the layout. Failures are
// reported in Asset.Error, never as a Go error.
func (f *Fetcher) Fetch(ctx context.Context, t Target) snapshot.Asset {
	src := t.Source
	if src == "" {
		src = snapshot.SourceFetch
	}
	a := snapshot.Asset{URL: t.URL, Category: t.Category, Source: src}
	if a.Category == "" {
		a.Category = classify.Classify(t.URL, "")
	}
	if snapshot.IsBlobURL(t.URL) {
		a.Unresolved = true
		a.Error = "in-memory reference: not retrievable"
		return a
	}

	body, ct, err := f.get(ctx, t.URL)
	if err != nil {
		a.Error = err.Error()
		f.cfg.Logger.Debug("fetcher: failed", "url", t.URL, "error", err)
		return a
	}
	a.ContentType = ct
	if c := classify.Classify(t.URL, ct); c != snapshot.CategoryOther || t.Category == "" {
		a.Category = c
	}

	rel, size, err := f.cfg.Layout.WriteAsset(t.URL, a.Category, body)
	if err != nil {
		a.Error = err.Error()
		return a
	}
	a.Path = rel
	a.Size = size
	return a
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := f.cfg.URLValidator(rawURL); err != nil {
		return nil, "", fmt.Errorf("fetcher: blocked: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	if err := f.wait(ctx, rawURL); err != nil {
		return nil, "", fmt.Errorf("fetcher: rate wait: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetcher: new request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, "", fmt.Errorf("fetcher: timeout after %s", f.cfg.Timeout)
		}
		return nil, "", fmt.Errorf("fetcher: do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetcher: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("fetcher: read body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBytes {
		return nil, "", fmt.Errorf("fetcher: body exceeds %d bytes", f.cfg.MaxBytes)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (f *Fetcher) wait(ctx context.Context, rawURL string) error {
	if f.cfg.RatePerSecond < 0 {
		return nil
	}
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(u.Host)
	}
	f.mu.Lock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(f.cfg.RatePerSecond), f.cfg.Concurrency)
		f.limiters[host] = lim
	}
	f.mu.Unlock()
	return lim.Wait(ctx)
}
