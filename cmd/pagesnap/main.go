// CLAUDE:SUMMARY CLI entry point for pagesnap: capture a page, browse the catalog, serve the HTTP API or MCP over stdio.
// Command pagesnap captures web pages into reproducible snapshots.
//
// Usage:
//
//	pagesnap capture https://example.com -o out/ --viewport phone=390x844
//	pagesnap list
//	pagesnap show <id>
//	pagesnap serve --addr :8090
//	pagesnap mcp
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/pagesnap/capture"
)

const version = "0.1.0"

var (
	configPath string
	logLevel   string
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pagesnap",
	Short: "Capture web pages into reproducible snapshots",
	Long: `pagesnap drives a headless browser through a page and writes the rendered
markup, design tokens, computed styles, assets, screenshots and a report
describing every network resource observed.

  pagesnap capture <url>       Capture one page
  pagesnap list                Recent captures from the catalog
  pagesnap show <id>           One capture in detail
  pagesnap serve               HTTP API and sanitized previews
  pagesnap mcp                 MCP tools over stdio`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(logLevel)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to pagesnap.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.AddCommand(captureCmd, listCmd, showCmd, serveCmd, mcpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger(s string) *slog.Logger {
	var level slog.Level
	switch s {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config when given, defaults otherwise.
func loadConfig() (*capture.Config, error) {
	if configPath == "" {
		return capture.DefaultConfig(), nil
	}
	return capture.LoadConfigFile(configPath)
}

// newCapturer builds a Capturer with the configured catalog and sinks. The
// returned func releases everything.
func newCapturer(cfg *capture.Config) (*capture.Capturer, func(), error) {
	var opts []capture.Option
	var cat *capture.Catalog
	if !cfg.Catalog.Disabled {
		var err error
		cat, err = capture.OpenCatalog(cfg.Catalog.Path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, capture.WithCatalog(cat))
	}
	if sinks := capture.SinksFromConfig(cfg.Sinks, logger); len(sinks) > 0 {
		opts = append(opts, capture.WithSinks(sinks...))
	}
	c := capture.New(cfg, logger, opts...)
	release := func() {
		if err := c.Close(); err != nil {
			logger.Warn("pagesnap: close", "error", err)
		}
		if cat != nil {
			cat.Close()
		}
	}
	return c, release, nil
}
