// CLAUDE:SUMMARY Report compiler: pure merge of interceptor log, extraction output and fetch results into a normalized CaptureReport.
// Package report aggregates capture outputs into a CaptureReport and writes
// the report documents.
//
// Compile is pure: it takes data already in memory and performs no I/O.
// Write persists the result.
package report

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/hazyhaar/pagesnap/capture/internal/classify"
	"github.com/hazyhaar/pagesnap/capture/internal/extractor"
	"github.com/hazyhaar/pagesnap/capture/internal/fetcher"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// Input gathers everything a capture produced. Any field may be empty when
// the capture stopped early.
type Input struct {
	ID                   string
	URL                  string
	OutputDir            string
	ExtractedAt          time.Time
	Extraction           *extractor.Result
	Entries              []snapshot.NetworkEntry
	InterceptAssets      []snapshot.Asset
	Fetch                fetcher.Result
	Screenshots          []snapshot.Screenshot
	Palette              []string
	PDF                  *snapshot.PDFInfo
	Phases               []snapshot.PhaseRecord
	NavigationIncomplete bool
	Err                  error
}

// Bundle is a compiled report plus the in-memory material Write needs.
type Bundle struct {
	Report *snapshot.CaptureReport

	// Markup is the serialized document.
	Markup string

	// InlineScripts maps a root-relative path to an inline script body.
	InlineScripts map[string]string
}

// Compile merges the inputs. Network entries and assets are deduplicated by
// URL; every manifest asset that is not an unresolved in-memory reference
// has a network entry with the same URL.
func Compile(in Input) *Bundle {
	r := &snapshot.CaptureReport{
		ID:                   in.ID,
		URL:                  in.URL,
		FinalURL:             in.URL,
		ExtractedAt:          in.ExtractedAt,
		OutputDir:            in.OutputDir,
		Screenshots:          in.Screenshots,
		PDF:                  in.PDF,
		Phases:               in.Phases,
		NavigationIncomplete: in.NavigationIncomplete,
	}
	if in.Err != nil {
		r.Error = in.Err.Error()
	}
	b := &Bundle{Report: r, InlineScripts: map[string]string{}}

	if x := in.Extraction; x != nil {
		b.Markup = x.Markup
		applyExtraction(r, x, b.InlineScripts)
	}
	r.DesignTokens.Palette = dedupe(in.Palette)

	r.Network = dedupeEntries(in.Entries)
	r.Assets = buildManifest(in, r)
	r.Network = withSynthesized(r.Network, r.Assets)
	linkScripts(r)

	r.Normalize()
	return b
}

func applyExtraction(r *snapshot.CaptureReport, x *extractor.Result, inline map[string]string) {
	r.Title = x.Meta.Title
	if x.Meta.URL != "" {
		r.FinalURL = x.Meta.URL
	}
	r.Metadata = make(map[string]string, len(x.Meta.Meta)+2)
	for k, v := range x.Meta.Meta {
		r.Metadata[k] = v
	}
	if x.Meta.Lang != "" {
		r.Metadata["lang"] = x.Meta.Lang
	}
	if x.Meta.Charset != "" {
		r.Metadata["charset"] = x.Meta.Charset
	}
	readable(r.Metadata, x.Markup, r.FinalURL)

	if x.Tokens != nil {
		r.DesignTokens = x.Tokens.Tokens()
	}
	r.ComputedStyles = make(map[string]snapshot.StyleSample, len(x.Samples))
	for _, s := range x.Samples {
		r.ComputedStyles[s.Key] = s
	}
	r.CSSVariables = x.Variables
	r.Keyframes = x.Sheets.Keyframes
	r.MediaQueries = x.Sheets.Media
	r.FontFaces = x.Sheets.FontFaces
	r.AnimatedElements = x.Animated
	r.Videos = x.Videos
	r.BlobReferences = x.Blobs
	r.ExtractionErrors = x.Errors

	r.Scripts = extractor.ScriptAssets(x.Scripts)
	n := 0
	for i, s := range x.Scripts {
		if !s.Inline || s.Content == "" {
			continue
		}
		n++
		p := filepath.Join(snapshot.CategoryScript.Dir(), fmt.Sprintf("inline_script_%d.js", n))
		r.Scripts[i].Path = p
		inline[p] = s.Content
	}
}

func ok(e snapshot.NetworkEntry) bool {
	return e.Error == "" && e.Status >= 200 && e.Status < 300
}

// dedupeEntries keeps one entry per URL in first-seen order. A later
// successful observation replaces an earlier failed one.
func dedupeEntries(entries []snapshot.NetworkEntry) []snapshot.NetworkEntry {
	idx := make(map[string]int, len(entries))
	out := make([]snapshot.NetworkEntry, 0, len(entries))
	for _, e := range entries {
		if i, seen := idx[e.URL]; seen {
			if !ok(out[i]) && ok(e) {
				out[i] = e
			} else if out[i].SavedPath == "" && e.SavedPath != "" && ok(e) {
				out[i] = e
			}
			continue
		}
		idx[e.URL] = len(out)
		out = append(out, e)
	}
	return out
}

func buildManifest(in Input, r *snapshot.CaptureReport) snapshot.Manifest {
	m := snapshot.Manifest{}
	m.Normalize()
	have := make(map[string]bool)

	addAvailable := func(a snapshot.Asset) {
		if a.URL == "" || have[a.URL] || snapshot.IsBlobURL(a.URL) {
			return
		}
		have[a.URL] = true
		m.Available[a.Category] = append(m.Available[a.Category], a)
	}
	for _, a := range in.InterceptAssets {
		addAvailable(a)
	}
	for _, a := range in.Fetch.Assets {
		addAvailable(a)
	}

	failed := make(map[string]bool)
	for _, a := range in.Fetch.Failed {
		if have[a.URL] || failed[a.URL] || snapshot.IsBlobURL(a.URL) {
			continue
		}
		failed[a.URL] = true
		m.Failed = append(m.Failed, a)
	}

	unresolved := make(map[string]bool)
	for _, b := range r.BlobReferences {
		if unresolved[b.URL] {
			continue
		}
		unresolved[b.URL] = true
		m.Unresolved = append(m.Unresolved, snapshot.Asset{
			URL:        b.URL,
			Category:   snapshot.CategoryVideo,
			Source:     snapshot.SourceDOM,
			Unresolved: true,
			Error:      "in-memory reference: not retrievable",
		})
	}

	for _, list := range m.Available {
		m.Total += len(list)
	}
	return m
}

// withSynthesized appends a network entry for every manifest asset whose
// URL was never observed by the interceptor (cache hits, service-worker
// responses, DOM-only references).
func withSynthesized(entries []snapshot.NetworkEntry, m snapshot.Manifest) []snapshot.NetworkEntry {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.URL] = true
	}
	add := func(a snapshot.Asset) {
		if seen[a.URL] || a.Unresolved {
			return
		}
		seen[a.URL] = true
		status := http.StatusOK
		if a.Error != "" {
			status = 0
		}
		entries = append(entries, snapshot.NetworkEntry{
			URL:         a.URL,
			Status:      status,
			ContentType: a.ContentType,
			Headers:     map[string]string{},
			Category:    classify.Classify(a.URL, a.ContentType),
			SavedPath:   a.Path,
			Size:        a.Size,
			Source:      a.Source,
			Error:       a.Error,
		})
	}
	for _, c := range snapshot.Categories() {
		for _, a := range m.Available[c] {
			add(a)
		}
	}
	for _, a := range m.Failed {
		add(a)
	}
	return entries
}

// linkScripts points external scripts at their saved copy.
func linkScripts(r *snapshot.CaptureReport) {
	saved := make(map[string]string)
	for _, list := range r.Assets.Available {
		for _, a := range list {
			saved[a.URL] = a.Path
		}
	}
	for i := range r.Scripts {
		if s := &r.Scripts[i]; !s.Inline && s.Path == "" {
			s.Path = saved[s.URL]
		}
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// readable fills excerpt, byline and site_name from the reading view when
// the page's own meta tags left them empty.
func readable(md map[string]string, markup, pageURL string) {
	if strings.TrimSpace(markup) == "" {
		return
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}
	art, err := readability.FromReader(strings.NewReader(markup), u)
	if err != nil {
		return
	}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" && md[k] == "" {
			md[k] = v
		}
	}
	set("excerpt", art.Excerpt)
	set("byline", art.Byline)
	set("site_name", art.SiteName)
}
