// CLAUDE:SUMMARY Chrome lifecycle for captures: lazy launch or remote connect via Rod, stealth tabs, idempotent close.
// Package browser manages the Chrome instance used by captures: launch a
// local headless Chrome (or connect to a remote one), open stealth tabs,
// shut everything down.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// ErrClosed is returned by Open after Close.
var ErrClosed = errors.New("browser: manager is closed")

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// Bin is an explicit Chrome binary. Empty = launcher lookup/download.
	Bin string

	// Headful disables headless mode (debugging only).
	Headful bool

	// NoStealth opens plain tabs instead of stealth-patched ones.
	NoStealth bool

	// IgnoreCertErrors accepts invalid TLS certificates.
	IgnoreCertErrors bool

	// UserAgent overrides the tab user agent when set.
	UserAgent string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns one Chrome process (or remote connection). Chrome is
// started on the first Open and reused by later captures.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a Manager. Nothing is launched until Open.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Open returns a new tab on the managed browser, launching it if needed.
func (m *Manager) Open(ctx context.Context) (*Tab, error) {
	b, err := m.ensure(ctx)
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if m.cfg.NoStealth {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	} else {
		page, err = stealth.Page(b)
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	if m.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: m.cfg.UserAgent}); err != nil {
			m.cfg.Logger.Warn("browser: set user agent failed", "error", err)
		}
	}
	if _, err := page.EvalOnNewDocument(objectURLHook); err != nil {
		m.cfg.Logger.Warn("browser: object URL hook not installed", "error", err)
	}
	return &Tab{Page: page, logger: m.cfg.Logger}, nil
}

// Close shuts down Chrome. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.cleanup()
}

func (m *Manager) ensure(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.browser != nil {
		return m.browser, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	b, err := m.launch()
	if err != nil {
		return nil, err
	}
	m.browser = b
	return b, nil
}

func (m *Manager) launch() (*rod.Browser, error) {
	log := m.cfg.Logger

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(!m.cfg.Headful)
		if m.cfg.Bin != "" {
			l = l.Bin(m.cfg.Bin)
		}
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "headful", m.cfg.Headful)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if m.lnch != nil {
			m.lnch.Cleanup()
			m.lnch = nil
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	if m.cfg.IgnoreCertErrors {
		if err := b.IgnoreCertErrors(true); err != nil {
			log.Warn("browser: ignore cert errors failed", "error", err)
		}
	}
	return b, nil
}

func (m *Manager) cleanup() error {
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	if err != nil {
		return fmt.Errorf("browser: close: %w", err)
	}
	return nil
}
