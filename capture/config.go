package capture

import (
	"github.com/hazyhaar/pagesnap/capture/internal/config"
)

// Config is the top-level pagesnap configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome.
type BrowserConfig = config.BrowserConfig

// ViewportConfig is one named screenshot size.
type ViewportConfig = config.ViewportConfig

// TimeoutConfig bounds every waiting step of a capture.
type TimeoutConfig = config.TimeoutConfig

// FetchConfig controls the out-of-browser retrieval pass.
type FetchConfig = config.FetchConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}

// DefaultViewports returns mobile, tablet, desktop and desktop_xl.
func DefaultViewports() []ViewportConfig {
	return config.DefaultViewports()
}

// ParseViewport parses "name=WIDTHxHEIGHT".
func ParseViewport(s string) (ViewportConfig, error) {
	return config.ParseViewport(s)
}
