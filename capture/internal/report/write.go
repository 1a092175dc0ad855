package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	readability "github.com/go-shiori/go-readability"

	"github.com/hazyhaar/pagesnap/capture/internal/layout"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// Data file names under data/.
const (
	FileReport         = "capture_report.json"
	FileNetwork        = "network_log.json"
	FileTokens         = "design_tokens.json"
	FileComputedStyles = "computed_styles.json"
	FileVideos         = "video_metadata.json"
	FileManifest       = "asset_manifest.json"
	FileAnimations     = "animations.json"
	FileCSSData        = "css_data.json"
)

// Root-level document names.
const (
	FileSummary  = "SUMMARY.md"
	FileCSSVars  = "design_tokens.css"
	FileTailwind = "tailwind.config.js"
	FileContent  = "content.md"
)

// Writer persists compiled bundles.
type Writer struct {
	logger *slog.Logger
	md     *converter.Converter
}

// NewWriter creates a Writer.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		logger: logger,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

type videoFile struct {
	Videos []snapshot.Video   `json:"videos"`
	Blobs  []snapshot.BlobRef `json:"blob_references"`
}

type animationFile struct {
	Keyframes   []snapshot.Keyframes       `json:"keyframes"`
	Animated    []snapshot.AnimatedElement `json:"animated_elements"`
	Transitions []string                   `json:"transitions"`
}

type cssFile struct {
	Variables map[string]string    `json:"css_variables"`
	Media     []snapshot.MediaRule `json:"media_queries"`
	FontFaces []snapshot.FontFace  `json:"font_faces"`
}

// Write persists the report and every derived document. The report JSON is
// written last so a reader that sees it can rely on the rest being present.
// A failed derived document does not stop the others or the report; all
// write failures are joined into the returned error. A content conversion
// failure is only logged.
func (w *Writer) Write(l *layout.Layout, b *Bundle) error {
	r := b.Report
	r.Normalize()

	var errs []error
	for rel, body := range b.InlineScripts {
		if err := l.WriteFile(rel, []byte(body)); err != nil {
			errs = append(errs, err)
		}
	}

	data := []struct {
		name string
		v    any
	}{
		{FileNetwork, r.Network},
		{FileTokens, r.DesignTokens},
		{FileComputedStyles, r.ComputedStyles},
		{FileVideos, videoFile{Videos: r.Videos, Blobs: r.BlobReferences}},
		{FileManifest, r.Assets},
		{FileAnimations, animationFile{Keyframes: r.Keyframes, Animated: r.AnimatedElements, Transitions: r.DesignTokens.Transitions}},
		{FileCSSData, cssFile{Variables: r.CSSVariables, Media: r.MediaQueries, FontFaces: r.FontFaces}},
	}
	for _, d := range data {
		raw, err := json.MarshalIndent(d.v, "", "  ")
		if err != nil {
			errs = append(errs, fmt.Errorf("report: marshal %s: %w", d.name, err))
			continue
		}
		if err := l.WriteData(d.name, raw); err != nil {
			errs = append(errs, err)
		}
	}

	docs := map[string]string{
		FileSummary:  Summary(r),
		FileCSSVars:  TokensCSS(r.DesignTokens, r.CSSVariables),
		FileTailwind: TailwindConfig(r.DesignTokens),
	}
	for name, body := range docs {
		if err := l.WriteFile(name, []byte(body)); err != nil {
			errs = append(errs, err)
		}
	}

	if b.Markup != "" {
		md, err := w.Content(b.Markup, r.FinalURL)
		if err != nil {
			w.logger.Warn("report: content conversion failed", "url", r.FinalURL, "error", err)
		} else if err := l.WriteFile(FileContent, []byte(md)); err != nil {
			errs = append(errs, err)
		}
	}

	raw, err := snapshot.MarshalReport(r)
	if err != nil {
		return fmt.Errorf("report: marshal report: %w", err)
	}
	if err := l.WriteData(FileReport, raw); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Content extracts the main article of the markup and converts it to
// Markdown. When no article is detected the whole body is converted.
func (w *Writer) Content(markup, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}
	html := markup
	var header strings.Builder
	if art, err := readability.FromReader(strings.NewReader(markup), u); err == nil && strings.TrimSpace(art.Content) != "" {
		html = art.Content
		if art.Title != "" {
			fmt.Fprintf(&header, "# %s\n\n", art.Title)
		}
		if art.Byline != "" {
			fmt.Fprintf(&header, "_%s_\n\n", art.Byline)
		}
	}
	md, err := w.md.ConvertString(html, converter.WithDomain(pageURL))
	if err != nil {
		return "", fmt.Errorf("report: markdown: %w", err)
	}
	return header.String() + strings.TrimSpace(md) + "\n", nil
}
