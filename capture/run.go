package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/pagesnap/capture/internal/classify"
	"github.com/hazyhaar/pagesnap/capture/internal/discover"
	"github.com/hazyhaar/pagesnap/capture/internal/extractor"
	"github.com/hazyhaar/pagesnap/capture/internal/fetcher"
	"github.com/hazyhaar/pagesnap/capture/internal/intercept"
	"github.com/hazyhaar/pagesnap/capture/internal/layout"
	"github.com/hazyhaar/pagesnap/capture/internal/report"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// IndexFile is the serialized document at the capture root.
const IndexFile = "index.html"

// run is the state of one capture. It is confined to the goroutine that
// called Capture; only the interceptor is touched concurrently and it
// guards itself.
type run struct {
	c       *Capturer
	cfg     *Config
	log     *slog.Logger
	req     Request
	id      string
	dir     string
	started time.Time

	phase  snapshot.Phase
	phases []snapshot.PhaseRecord
	fatal  error

	layout      *layout.Layout
	persist     classify.PersistSet
	icpt        *intercept.Interceptor
	detach      func()
	extraction  *extractor.Result
	screenshots []snapshot.Screenshot
	palette     []string
	pdf         *snapshot.PDFInfo
	fetched     fetcher.Result
	incomplete  bool
}

func newRun(c *Capturer, req Request) *run {
	started := c.now()
	dir := req.OutputDir
	if dir == "" {
		dir = DefaultOutputDir(c.cfg.Output.BaseDir, req.URL, started)
	}
	id := snapshot.NewID()
	persist, _ := classify.ParsePersistSet(c.cfg.Persist)
	return &run{
		c:       c,
		cfg:     c.cfg,
		log:     c.logger.With("capture_id", id),
		req:     req,
		id:      id,
		dir:     dir,
		started: started,
		phase:   snapshot.PhaseIdle,
		persist: persist,
	}
}

// record appends a timeline entry. A non-nil err becomes the fatal error.
func (r *run) record(p snapshot.Phase, start time.Time, err error) {
	rec := snapshot.PhaseRecord{
		Phase:      p,
		StartedAt:  start,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
		r.fatal = err
		r.log.Error("capture: fatal", "phase", p, "error", err)
	}
	r.phases = append(r.phases, rec)
}

// step advances to phase to by running fn. Nothing runs once a fatal
// error is set.
func (r *run) step(to snapshot.Phase, fn func() error) {
	if r.fatal != nil {
		return
	}
	if !snapshot.CanAdvance(r.phase, to) {
		r.record(to, time.Now(), fmt.Errorf("capture: illegal transition %s -> %s", r.phase, to))
		return
	}
	start := time.Now()
	err := fn()
	r.record(to, start, err)
	if err == nil {
		r.phase = to
	}
}

// close is the terminal transition, taken on every path.
func (r *run) close() {
	r.phases = append(r.phases, snapshot.PhaseRecord{Phase: snapshot.PhaseClosed, StartedAt: time.Now()})
	r.phase = snapshot.PhaseClosed
}

// setup is the idle-phase work: output layout, URL validation, browser
// session, interceptor attachment.
func (r *run) setup(ctx context.Context) Session {
	start := time.Now()
	sess, err := r.open(ctx)
	r.record(snapshot.PhaseIdle, start, err)
	return sess
}

func (r *run) open(ctx context.Context) (Session, error) {
	l, err := layout.New(r.dir)
	if err != nil {
		return nil, fmt.Errorf("capture: output dir: %w", err)
	}
	r.layout = l

	if err := fetcher.ValidateScheme(r.req.URL); err != nil {
		return nil, fmt.Errorf("capture: invalid url %q: %w", r.req.URL, err)
	}
	if r.cfg.Fetch.PublicOnly {
		if err := fetcher.ValidatePublic(r.req.URL); err != nil {
			return nil, fmt.Errorf("capture: refused url %q: %w", r.req.URL, err)
		}
	}

	r.icpt = intercept.New(intercept.Config{
		Layout:       l,
		Persist:      r.persist,
		PageURL:      r.req.URL,
		MaxBodyBytes: r.cfg.Fetch.MaxBytes,
		ReadTimeout:  r.cfg.Timeouts.BodyRead,
		Logger:       r.log,
	})

	sess, err := r.c.launcher.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture: open browser: %w", err)
	}
	var once sync.Once
	detach := sess.Attach(ctx, r.icpt)
	r.detach = func() { once.Do(detach) }
	return sess, nil
}

// browse runs every phase that needs the browser. The session is released
// and the interceptor joined on every path before browse returns.
func (r *run) browse(ctx context.Context) {
	sess := r.setup(ctx)
	defer r.release(sess)
	if sess == nil {
		return
	}

	r.step(snapshot.PhaseNavigated, func() error { return r.navigate(ctx, sess) })
	r.step(snapshot.PhaseSettled, func() error { return r.settle(ctx, sess) })
	r.step(snapshot.PhaseExtracted, func() error { return r.extract(ctx, sess) })
}

func (r *run) release(sess Session) {
	if r.detach != nil {
		r.detach()
	}
	if r.icpt != nil {
		r.icpt.Close()
	}
	if sess != nil {
		if err := sess.Close(); err != nil {
			r.log.Warn("capture: close tab failed", "error", err)
		}
	}
}

func (r *run) navigate(ctx context.Context, sess Session) error {
	timeout := r.cfg.Timeouts.Navigation
	deadline := time.Now().Add(timeout)
	nctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	if err := sess.Navigate(nctx, r.req.URL); err != nil {
		if ctx.Err() == nil && errors.Is(nctx.Err(), context.DeadlineExceeded) {
			r.timedOut()
			return nil
		}
		return fmt.Errorf("capture: navigate: %w", err)
	}

	err := sess.WaitIdle(ctx, time.Until(deadline), r.cfg.Timeouts.NetworkQuiet)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNavigationTimeout):
		r.timedOut()
		return nil
	default:
		return fmt.Errorf("capture: wait idle: %w", err)
	}
}

func (r *run) timedOut() {
	r.incomplete = true
	r.log.Warn("capture: navigation timeout, continuing with partial page",
		"url", r.req.URL, "timeout", r.cfg.Timeouts.Navigation)
}

func (r *run) settle(ctx context.Context, sess Session) error {
	t := r.cfg.Timeouts
	if err := sess.ScrollSweep(ctx, t.ScrollPause, t.ScrollBudget); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("capture: settle: %w", ctx.Err())
		}
		r.log.Warn("capture: scroll sweep failed", "error", err)
	}
	timer := time.NewTimer(t.Settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("capture: settle: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (r *run) extract(ctx context.Context, sess Session) error {
	res := extractor.Extract(ctx, sess, extractor.Options{
		MaxSamples:  r.cfg.Extract.MaxSamples,
		MaxAnimated: r.cfg.Extract.MaxAnimated,
		Logger:      r.log,
	})
	r.extraction = res
	if res.Markup != "" {
		if err := r.layout.WriteFile(IndexFile, []byte(res.Markup)); err != nil {
			return fmt.Errorf("capture: write %s: %w", IndexFile, err)
		}
	} else {
		r.log.Warn("capture: no markup extracted", "error", res.Errors[extractor.NameMarkup])
	}

	r.shoot(ctx, sess)
	if r.cfg.PDF.Enabled || r.req.PDF {
		r.printPDF(ctx, sess)
	}

	// Join outstanding body reads before anything reads the log.
	r.detach()
	r.icpt.Close()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("capture: extract: %w", err)
	}
	return nil
}

// fetch retrieves what the browser saw but did not persist, plus what the
// document references without having loaded it.
func (r *run) fetch(ctx context.Context) error {
	if r.cfg.Fetch.Disabled {
		return nil
	}
	saved := make(map[string]bool)
	for _, a := range r.icpt.Assets() {
		saved[a.URL] = true
	}
	cats := make(map[string]snapshot.Category)
	for _, e := range r.icpt.Entries() {
		cats[e.URL] = e.Category
	}

	var targets []fetcher.Target
	add := func(u string, c snapshot.Category, src snapshot.AssetSource) {
		if saved[u] || !r.persist.Has(c) {
			return
		}
		targets = append(targets, fetcher.Target{URL: u, Category: c, Source: src})
	}
	for _, u := range r.icpt.URLs() {
		add(u, cats[u], snapshot.SourceFetch)
	}
	if x := r.extraction; x != nil {
		for _, d := range x.DiscoveredURLs() {
			add(d.URL, d.Category, snapshot.SourceDOM)
		}
		if x.Markup != "" {
			refs, err := discover.Assets(x.Markup, r.pageURL())
			if err != nil {
				r.log.Warn("capture: static discovery failed", "error", err)
			}
			for _, ref := range refs {
				add(ref.URL, ref.Category, snapshot.SourceDOM)
			}
		}
	}
	if len(targets) == 0 {
		return nil
	}

	fc := r.cfg.Fetch
	validator := fetcher.ValidateScheme
	if fc.PublicOnly {
		validator = fetcher.ValidatePublic
	}
	var opts []fetcher.Option
	if r.c.httpClient != nil {
		opts = append(opts, fetcher.WithHTTPClient(r.c.httpClient))
	}
	f := fetcher.New(fetcher.Config{
		Concurrency:   fc.Concurrency,
		Timeout:       fc.Timeout,
		MaxBytes:      fc.MaxBytes,
		RatePerSecond: fc.RatePerSecond,
		Retries:       fc.Retries,
		UserAgent:     fc.UserAgent,
		URLValidator:  validator,
		Layout:        r.layout,
		Logger:        r.log,
	}, opts...)
	r.fetched = f.FetchAll(ctx, targets)
	return nil
}

func (r *run) pageURL() string {
	if r.extraction != nil && r.extraction.Meta.URL != "" {
		return r.extraction.Meta.URL
	}
	return r.req.URL
}

func (r *run) input() report.Input {
	in := report.Input{
		ID:                   r.id,
		URL:                  r.req.URL,
		OutputDir:            r.dir,
		ExtractedAt:          r.started,
		Extraction:           r.extraction,
		Fetch:                r.fetched,
		Screenshots:          r.screenshots,
		Palette:              r.palette,
		PDF:                  r.pdf,
		Phases:               r.phases,
		NavigationIncomplete: r.incomplete,
		Err:                  r.fatal,
	}
	if r.icpt != nil {
		in.Entries = r.icpt.Entries()
		in.InterceptAssets = r.icpt.Assets()
	}
	return in
}
