// CLAUDE:SUMMARY Defines pagesnap config structs, parses YAML files, applies defaults and validates viewports and persist categories.
// Package config handles pagesnap configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// Config is the top-level pagesnap configuration.
type Config struct {
	Browser   BrowserConfig    `yaml:"browser"`
	Viewports []ViewportConfig `yaml:"viewports"`
	Timeouts  TimeoutConfig    `yaml:"timeouts"`
	Fetch     FetchConfig      `yaml:"fetch"`
	Persist   []string         `yaml:"persist"`
	Extract   ExtractConfig    `yaml:"extract"`
	Output    OutputConfig     `yaml:"output"`
	Catalog   CatalogConfig    `yaml:"catalog"`
	Sinks     []SinkConfig     `yaml:"sinks"`
	PDF       PDFConfig        `yaml:"pdf"`
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	Remote           string `yaml:"remote"`
	Bin              string `yaml:"bin"`
	Headful          bool   `yaml:"headful"`
	NoStealth        bool   `yaml:"no_stealth"`
	IgnoreCertErrors bool   `yaml:"ignore_cert_errors"`
	UserAgent        string `yaml:"user_agent"`
}

// ViewportConfig is one named screenshot size.
type ViewportConfig struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// TimeoutConfig bounds every waiting step of a capture.
type TimeoutConfig struct {
	Navigation    time.Duration `yaml:"navigation"`
	NetworkQuiet  time.Duration `yaml:"network_quiet"`
	Settle        time.Duration `yaml:"settle"`
	ScrollPause   time.Duration `yaml:"scroll_pause"`
	ScrollBudget  time.Duration `yaml:"scroll_budget"`
	ViewportPause time.Duration `yaml:"viewport_pause"`
	BodyRead      time.Duration `yaml:"body_read"`
}

// FetchConfig controls the out-of-browser retrieval pass.
type FetchConfig struct {
	Concurrency   int           `yaml:"concurrency"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxBytes      int64         `yaml:"max_bytes"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Retries       int           `yaml:"retries"`
	UserAgent     string        `yaml:"user_agent"`
	PublicOnly    bool          `yaml:"public_only"` // refuse private/loopback hosts
	Disabled      bool          `yaml:"disabled"`
}

// ExtractConfig caps DOM extraction output.
type ExtractConfig struct {
	MaxSamples  int `yaml:"max_samples"`
	MaxAnimated int `yaml:"max_animated"`
	PaletteSize int `yaml:"palette_size"`
}

// OutputConfig controls where captures land.
type OutputConfig struct {
	BaseDir    string `yaml:"base_dir"`
	NoFullPage bool   `yaml:"no_full_page"`
}

// CatalogConfig locates the SQLite catalog.
type CatalogConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook
	URL  string `yaml:"url"`  // for webhook
}

// PDFConfig toggles printing the page to PDF.
type PDFConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultViewports are used when none are configured.
func DefaultViewports() []ViewportConfig {
	return []ViewportConfig{
		{Name: "mobile", Width: 390, Height: 844},
		{Name: "tablet", Width: 768, Height: 1024},
		{Name: "desktop", Width: 1440, Height: 900},
		{Name: "desktop_xl", Width: 1920, Height: 1080},
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	var c Config
	c.ApplyDefaults()
	return &c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if len(c.Viewports) == 0 {
		c.Viewports = DefaultViewports()
	}
	t := &c.Timeouts
	if t.Navigation <= 0 {
		t.Navigation = 30 * time.Second
	}
	if t.NetworkQuiet <= 0 {
		t.NetworkQuiet = 500 * time.Millisecond
	}
	if t.Settle <= 0 {
		t.Settle = 2 * time.Second
	}
	if t.ScrollPause <= 0 {
		t.ScrollPause = 300 * time.Millisecond
	}
	if t.ScrollBudget <= 0 {
		t.ScrollBudget = 20 * time.Second
	}
	if t.ViewportPause <= 0 {
		t.ViewportPause = 500 * time.Millisecond
	}
	if t.BodyRead <= 0 {
		t.BodyRead = 30 * time.Second
	}
	f := &c.Fetch
	if f.Concurrency <= 0 {
		f.Concurrency = 8
	}
	if f.Timeout <= 0 {
		f.Timeout = 30 * time.Second
	}
	if f.MaxBytes <= 0 {
		f.MaxBytes = 200 << 20
	}
	if len(c.Persist) == 0 {
		c.Persist = []string{"video", "image", "stylesheet", "script", "font"}
	}
	if c.Extract.MaxSamples <= 0 {
		c.Extract.MaxSamples = 500
	}
	if c.Extract.MaxAnimated <= 0 {
		c.Extract.MaxAnimated = 500
	}
	if c.Extract.PaletteSize <= 0 {
		c.Extract.PaletteSize = 5
	}
	if c.Output.BaseDir == "" {
		c.Output.BaseDir = "."
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "pagesnap.db"
	}
}

// Validate rejects values no capture could run with.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Viewports))
	for _, v := range c.Viewports {
		if v.Name == "" || v.Width <= 0 || v.Height <= 0 {
			return fmt.Errorf("config: invalid viewport %q (%dx%d)", v.Name, v.Width, v.Height)
		}
		if seen[v.Name] {
			return fmt.Errorf("config: duplicate viewport %q", v.Name)
		}
		seen[v.Name] = true
	}
	for _, p := range c.Persist {
		if _, ok := snapshot.ParseCategory(p); !ok {
			return fmt.Errorf("config: unknown persist category %q", p)
		}
	}
	for _, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: webhook sink without url")
			}
		default:
			return fmt.Errorf("config: unknown sink type %q", s.Type)
		}
	}
	return nil
}

// ParseViewport parses "name=WIDTHxHEIGHT".
func ParseViewport(s string) (ViewportConfig, error) {
	name, size, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return ViewportConfig{}, fmt.Errorf("config: viewport %q: want name=WxH", s)
	}
	ws, hs, ok := strings.Cut(strings.ToLower(size), "x")
	if !ok {
		return ViewportConfig{}, fmt.Errorf("config: viewport %q: want name=WxH", s)
	}
	w, err1 := strconv.Atoi(ws)
	h, err2 := strconv.Atoi(hs)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return ViewportConfig{}, fmt.Errorf("config: viewport %q: bad size", s)
	}
	return ViewportConfig{Name: name, Width: w, Height: h}, nil
}
