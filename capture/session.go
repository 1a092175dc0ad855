package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/pagesnap/capture/internal/browser"
	"github.com/hazyhaar/pagesnap/capture/internal/intercept"
)

// ErrNavigationTimeout is returned by Session.WaitIdle when the page never
// reached network quiescence. The capture continues with what loaded.
var ErrNavigationTimeout = browser.ErrNavigationTimeout

// Session is one browser tab driven by a capture. Calls are sequential.
type Session interface {
	// Attach subscribes the interceptor to the tab's network events. The
	// returned func stops the subscription and flushes pending responses.
	Attach(ctx context.Context, i *intercept.Interceptor) (detach func())
	Navigate(ctx context.Context, url string) error
	WaitIdle(ctx context.Context, timeout, quiet time.Duration) error
	ScrollSweep(ctx context.Context, pause, budget time.Duration) error
	SetViewport(ctx context.Context, width, height int) error
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	PDF(ctx context.Context) ([]byte, error)
	Eval(ctx context.Context, js string) (string, error)
	Close() error
}

// Launcher opens sessions. The default is backed by go-rod.
type Launcher interface {
	Open(ctx context.Context) (Session, error)
	Close() error
}

// NewRodLauncher returns a Launcher driving Chrome through go-rod with
// stealth tabs.
func NewRodLauncher(cfg BrowserConfig, logger *slog.Logger) Launcher {
	return &rodLauncher{mgr: browser.NewManager(browser.Config{
		RemoteURL:        cfg.Remote,
		Bin:              cfg.Bin,
		Headful:          cfg.Headful,
		NoStealth:        cfg.NoStealth,
		IgnoreCertErrors: cfg.IgnoreCertErrors,
		UserAgent:        cfg.UserAgent,
		Logger:           logger,
	})}
}

type rodLauncher struct {
	mgr *browser.Manager
}

func (l *rodLauncher) Open(ctx context.Context) (Session, error) {
	tab, err := l.mgr.Open(ctx)
	if err != nil {
		return nil, err
	}
	return rodSession{tab}, nil
}

func (l *rodLauncher) Close() error { return l.mgr.Close() }

type rodSession struct {
	*browser.Tab
}

func (s rodSession) Attach(ctx context.Context, i *intercept.Interceptor) func() {
	return i.AttachRod(ctx, s.Page)
}
