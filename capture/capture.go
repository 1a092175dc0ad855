// CLAUDE:SUMMARY Capture orchestrator: drives one browser session through idle→navigated→settled→extracted→fetched→compiled→closed and always produces a report.
// Package capture turns a live web page into a reproducible snapshot:
// rendered markup, design tokens, computed styles, media and font assets,
// screenshots, and a manifest of every network resource observed.
//
// A Capturer drives one browser tab per capture. The response interceptor
// runs for the whole session; the DOM extractor and the asset fetcher run
// after the page settles. Whatever happens, a report is compiled and
// written from what was captured.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/pagesnap/capture/internal/catalog"
	"github.com/hazyhaar/pagesnap/capture/internal/report"
	"github.com/hazyhaar/pagesnap/capture/internal/sink"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// ErrNoCatalog is returned by catalog lookups when the Capturer has none.
var ErrNoCatalog = errors.New("capture: catalog disabled")

// ErrNotFound is returned for unknown capture IDs.
var ErrNotFound = catalog.ErrNotFound

// Request describes one capture.
type Request struct {
	URL string `json:"url"`

	// OutputDir is the capture root. Empty = <base_dir>/pagesnap_<host>_<yyyymmdd_hhmmss>.
	OutputDir string `json:"output_dir,omitempty"`

	// Viewports overrides the configured screenshot sizes.
	Viewports []ViewportConfig `json:"viewports,omitempty"`

	// PDF forces printing page.pdf regardless of configuration.
	PDF bool `json:"pdf,omitempty"`
}

// Capturer runs captures. Safe for concurrent use; each capture gets its
// own tab.
type Capturer struct {
	cfg          *Config
	logger       *slog.Logger
	launcher     Launcher
	ownsLauncher bool
	catalog      *catalog.Catalog
	sinks        *sink.Router
	writer       *report.Writer
	httpClient   *http.Client
	now          func() time.Time
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithLauncher replaces the go-rod launcher. The Capturer does not close
// a launcher it did not create.
func WithLauncher(l Launcher) Option {
	return func(c *Capturer) { c.launcher = l }
}

// WithCatalog records every finished capture in cat.
func WithCatalog(cat *Catalog) Option {
	return func(c *Capturer) { c.catalog = cat }
}

// WithSinks delivers every finished report to sinks.
func WithSinks(sinks ...Sink) Option {
	return func(c *Capturer) { c.sinks = sink.NewRouter(c.logger, sinks...) }
}

// WithHTTPClient replaces the client of the asset fetcher.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Capturer) { c.httpClient = hc }
}

// New creates a Capturer. A nil cfg means DefaultConfig().
func New(cfg *Config, logger *slog.Logger, opts ...Option) *Capturer {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.ApplyDefaults()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Capturer{
		cfg:    cfg,
		logger: logger,
		sinks:  sink.NewRouter(logger),
		writer: report.NewWriter(logger),
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.launcher == nil {
		c.launcher = NewRodLauncher(cfg.Browser, logger)
		c.ownsLauncher = true
	}
	return c
}

// Config returns the effective configuration.
func (c *Capturer) Config() *Config { return c.cfg }

// Close releases the browser (when owned) and the sinks. The catalog is
// left to its owner.
func (c *Capturer) Close() error {
	var errs []error
	if c.ownsLauncher {
		errs = append(errs, c.launcher.Close())
	}
	errs = append(errs, c.sinks.Close())
	return errors.Join(errs...)
}

// Capture runs one capture and returns its report. The report is always
// non-nil; a fatal failure is recorded in report.Error. The error is
// non-nil only when the report artifacts could not be written.
func (c *Capturer) Capture(ctx context.Context, req Request) (*snapshot.CaptureReport, error) {
	r := newRun(c, req)
	c.logger.Info("capture: start", "id", r.id, "url", req.URL, "dir", r.dir)

	r.browse(ctx)
	r.step(snapshot.PhaseFetched, func() error { return r.fetch(ctx) })

	var b *report.Bundle
	r.step(snapshot.PhaseCompiled, func() error {
		b = report.Compile(r.input())
		return nil
	})
	if b == nil {
		b = report.Compile(r.input())
	}
	r.close()
	rep := b.Report
	rep.Phases = r.phases

	var writeErr error
	if r.layout == nil {
		writeErr = fmt.Errorf("capture: no output directory: %w", r.fatal)
	} else if err := c.writer.Write(r.layout, b); err != nil {
		writeErr = fmt.Errorf("capture: write report: %w", err)
	}
	if writeErr != nil {
		c.logger.Error("capture: artifacts not written", "id", rep.ID, "error", writeErr)
	}

	// Delivery must not depend on the caller's context still being live.
	dctx := context.WithoutCancel(ctx)
	if err := c.sinks.SendReport(dctx, rep); err != nil {
		c.logger.Warn("capture: sink delivery failed", "id", rep.ID, "error", err)
	}
	if c.catalog != nil {
		if err := c.catalog.Insert(dctx, rep, c.now()); err != nil {
			c.logger.Warn("capture: catalog insert failed", "id", rep.ID, "error", err)
		}
	}

	c.logger.Info("capture: done",
		"id", rep.ID, "status", rep.Status(),
		"assets", rep.Assets.Total, "failed", len(rep.Assets.Failed),
		"entries", len(rep.Network), "dir", rep.OutputDir)
	return rep, writeErr
}

// List returns recent captures from the catalog.
func (c *Capturer) List(ctx context.Context, limit int) ([]CatalogEntry, error) {
	if c.catalog == nil {
		return nil, ErrNoCatalog
	}
	return c.catalog.List(ctx, limit)
}

// Get returns a stored report from the catalog.
func (c *Capturer) Get(ctx context.Context, id string) (*snapshot.CaptureReport, error) {
	if c.catalog == nil {
		return nil, ErrNoCatalog
	}
	return c.catalog.Get(ctx, id)
}

// Lookup returns the catalog row of a capture.
func (c *Capturer) Lookup(ctx context.Context, id string) (*CatalogEntry, error) {
	if c.catalog == nil {
		return nil, ErrNoCatalog
	}
	return c.catalog.Lookup(ctx, id)
}

// DefaultOutputDir returns <base>/pagesnap_<host>_<yyyymmdd_hhmmss>.
func DefaultOutputDir(base, rawURL string, at time.Time) string {
	host := "page"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	var b strings.Builder
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return filepath.Join(base, "pagesnap_"+b.String()+"_"+at.Format("20060102_150405"))
}
