// CLAUDE:SUMMARY Response interceptor: classifies every network response, persists bodies of asset categories in tracked goroutines, keeps an append-only entry log.
// Package intercept records every network response of a page session.
//
// Observe never blocks the caller: body reads run in goroutines tracked by
// a WaitGroup. Close is the join point; after it returns the log is final.
package intercept

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/hazyhaar/pagesnap/capture/internal/classify"
	"github.com/hazyhaar/pagesnap/capture/internal/layout"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// ErrClosed is recorded on entries observed after Close.
var ErrClosed = errors.New("intercept: closed before body read")

// Response is the browser-agnostic view of one network response.
type Response struct {
	RequestID    string
	URL          string
	Status       int
	MimeType     string
	Headers      map[string]string
	ResourceType string
	FromCache    bool
}

// ContentType returns the Content-Type header, or the MIME type reported
// by the browser when the header is absent.
func (r Response) ContentType() string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, "content-type") {
			return v
		}
	}
	return r.MimeType
}

// BodyFunc reads the complete body of a response.
type BodyFunc func(ctx context.Context) ([]byte, error)

// Config configures an Interceptor.
type Config struct {
	// Layout receives persisted bodies. Nil disables persistence.
	Layout *layout.Layout

	// Persist lists the categories whose bodies are written. Default:
	// classify.DefaultPersistSet().
	Persist classify.PersistSet

	// PageURL is used to flag third-party entries.
	PageURL string

	// MaxBodyBytes caps a single persisted body. Default: 200MB.
	MaxBodyBytes int64

	// ReadTimeout bounds one body read. Default: 30s.
	ReadTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Persist == nil {
		c.Persist = classify.DefaultPersistSet()
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 200 << 20
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Interceptor accumulates NetworkEntries. Safe for concurrent use.
type Interceptor struct {
	cfg      Config
	pageSite string

	mu      sync.Mutex
	entries []snapshot.NetworkEntry
	claimed map[string]bool // URLs saved or being saved
	closed  bool
	wg      sync.WaitGroup
}

// New creates an Interceptor.
func New(cfg Config) *Interceptor {
	cfg.defaults()
	return &Interceptor{cfg: cfg, pageSite: site(cfg.PageURL), claimed: make(map[string]bool)}
}

// Observe records one response. When the status is 2xx (except 206 partial
// content) and the category is persisted, the body is read and written in
// a background goroutine; the entry is appended once that completes.
// Only the first response for a URL is written; later ones are logged
// without a body so the file on disk matches the recorded size.
func (i *Interceptor) Observe(ctx context.Context, r Response, body BodyFunc) {
	entry := i.entryFor(r)

	if body == nil || !i.shouldPersist(entry) {
		if entry.Status == 206 && i.cfg.Persist.Has(entry.Category) {
			entry.Error = "partial content: deferred to fetch"
		}
		i.append(entry)
		return
	}

	i.mu.Lock()
	if i.closed {
		entry.Error = ErrClosed.Error()
		i.entries = append(i.entries, entry)
		i.mu.Unlock()
		return
	}
	if i.claimed[entry.URL] {
		i.entries = append(i.entries, entry)
		i.mu.Unlock()
		return
	}
	i.claimed[entry.URL] = true
	i.wg.Add(1)
	i.mu.Unlock()

	go func() {
		defer i.wg.Done()
		e := i.persist(ctx, entry, body)
		i.mu.Lock()
		if e.SavedPath == "" {
			delete(i.claimed, e.URL)
		}
		i.entries = append(i.entries, e)
		i.mu.Unlock()
	}()
}

// ObserveFailure records a response whose loading failed or never
// completed. The reason becomes the entry's error note.
func (i *Interceptor) ObserveFailure(r Response, reason string) {
	entry := i.entryFor(r)
	entry.Error = reason
	i.append(entry)
}

func (i *Interceptor) persist(ctx context.Context, entry snapshot.NetworkEntry, body BodyFunc) snapshot.NetworkEntry {
	log := i.cfg.Logger
	rctx, cancel := context.WithTimeout(ctx, i.cfg.ReadTimeout)
	defer cancel()

	data, err := body(rctx)
	if err != nil {
		entry.Error = fmt.Sprintf("body: %v", err)
		log.Debug("intercept: body read failed", "url", entry.URL, "error", err)
		return entry
	}
	if int64(len(data)) > i.cfg.MaxBodyBytes {
		entry.Error = fmt.Sprintf("body: %d bytes exceeds cap %d", len(data), i.cfg.MaxBodyBytes)
		return entry
	}
	rel, size, err := i.cfg.Layout.WriteAsset(entry.URL, entry.Category, data)
	if err != nil {
		entry.Error = fmt.Sprintf("write: %v", err)
		log.Warn("intercept: write failed", "url", entry.URL, "error", err)
		return entry
	}
	entry.SavedPath = rel
	entry.Size = size
	return entry
}

func (i *Interceptor) shouldPersist(e snapshot.NetworkEntry) bool {
	if i.cfg.Layout == nil || !i.cfg.Persist.Has(e.Category) {
		return false
	}
	if !snapshot.IsRetrievable(e.URL) {
		return false
	}
	return e.Status >= 200 && e.Status < 300 && e.Status != 206
}

func (i *Interceptor) entryFor(r Response) snapshot.NetworkEntry {
	headers := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		headers[k] = v
	}
	ct := r.ContentType()
	return snapshot.NetworkEntry{
		URL:          r.URL,
		Status:       r.Status,
		ContentType:  ct,
		Headers:      headers,
		Category:     classify.Classify(r.URL, ct),
		ResourceType: r.ResourceType,
		RequestID:    r.RequestID,
		ThirdParty:   i.thirdParty(r.URL),
		FromCache:    r.FromCache,
		Source:       snapshot.SourceIntercept,
	}
}

func (i *Interceptor) append(e snapshot.NetworkEntry) {
	i.mu.Lock()
	i.entries = append(i.entries, e)
	i.mu.Unlock()
}

// Close stops accepting body reads and waits for outstanding ones.
func (i *Interceptor) Close() {
	i.mu.Lock()
	i.closed = true
	i.mu.Unlock()
	i.wg.Wait()
}

// Entries returns a copy of the log in recording order.
func (i *Interceptor) Entries() []snapshot.NetworkEntry {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]snapshot.NetworkEntry, len(i.entries))
	copy(out, i.entries)
	return out
}

// Assets returns the bodies persisted so far, one per URL.
func (i *Interceptor) Assets() []snapshot.Asset {
	seen := make(map[string]bool)
	var out []snapshot.Asset
	for _, e := range i.Entries() {
		if e.SavedPath == "" || e.Error != "" || seen[e.URL] {
			continue
		}
		seen[e.URL] = true
		out = append(out, snapshot.Asset{
			URL:         e.URL,
			Category:    e.Category,
			Path:        e.SavedPath,
			Size:        e.Size,
			ContentType: e.ContentType,
			Source:      snapshot.SourceIntercept,
		})
	}
	return out
}

// URLs returns the deduplicated, retrievable URLs of persisted categories
// in first-seen order. In-memory references are never included.
func (i *Interceptor) URLs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range i.Entries() {
		if seen[e.URL] || !snapshot.IsRetrievable(e.URL) || !i.cfg.Persist.Has(e.Category) {
			continue
		}
		seen[e.URL] = true
		out = append(out, e.URL)
	}
	return out
}

func (i *Interceptor) thirdParty(raw string) bool {
	if i.pageSite == "" || !snapshot.IsRetrievable(raw) {
		return false
	}
	s := site(raw)
	return s != "" && s != i.pageSite
}

// site returns the registrable domain (eTLD+1) of a URL, or the bare host
// for IPs and single-label hosts.
func site(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}
