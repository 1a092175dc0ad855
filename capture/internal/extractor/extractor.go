// CLAUDE:SUMMARY DOM extractor: fixed set of typed, read-only in-page evaluations, each failing independently into Result.Errors.
// Package extractor runs read-only evaluations against a live document and
// decodes them into typed structures.
//
// Every sub-extraction is independent: a failure is recorded in
// Result.Errors under the sub-extraction name and the others still run.
// Extract itself never fails.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/pagesnap/capture/internal/tokens"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// Sub-extraction names, used as keys in Result.Errors.
const (
	NameMarkup      = "markup"
	NameMeta        = "meta"
	NameStyles      = "styles"
	NameStylesheets = "stylesheets"
	NameVariables   = "variables"
	NameVideos      = "videos"
	NameAnimated    = "animated"
	NameScripts     = "scripts"
	NameBackgrounds = "backgrounds"
)

// Evaluator runs a JS function expression in the page and returns the
// string it produces.
type Evaluator interface {
	Eval(ctx context.Context, js string) (string, error)
}

// Options tunes an extraction pass.
type Options struct {
	// MaxSamples caps the number of StyleSamples. Tokens still cover
	// every element. Default: 500.
	MaxSamples int

	// MaxAnimated caps the animated-element index. Default: 500.
	MaxAnimated int

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.MaxSamples <= 0 {
		o.MaxSamples = 500
	}
	if o.MaxAnimated <= 0 {
		o.MaxAnimated = 500
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Result is the merged output of one extraction pass.
type Result struct {
	Markup      string
	Meta        PageMeta
	Tokens      *tokens.Accumulator
	Samples     []snapshot.StyleSample
	Sheets      SheetData
	Variables   map[string]string
	Videos      []snapshot.Video
	Blobs       []snapshot.BlobRef
	Animated    []snapshot.AnimatedElement
	Scripts     []ScriptInfo
	Backgrounds []string
	Errors      map[string]string
}

// Extract runs every sub-extraction in a fixed order. The document must
// already be settled.
func Extract(ctx context.Context, ev Evaluator, opts Options) *Result {
	opts.defaults()
	log := opts.Logger
	res := &Result{
		Tokens:    tokens.New(),
		Variables: map[string]string{},
		Errors:    map[string]string{},
	}

	run := func(name string, fn func() error) {
		if err := ctx.Err(); err != nil {
			res.Errors[name] = err.Error()
			return
		}
		if err := fn(); err != nil {
			res.Errors[name] = err.Error()
			log.Warn("extractor: sub-extraction failed", "name", name, "error", err)
		}
	}

	run(NameMarkup, func() (err error) {
		res.Markup, err = Markup(ctx, ev)
		return err
	})
	run(NameMeta, func() (err error) {
		var m *PageMeta
		if m, err = Meta(ctx, ev); err == nil {
			res.Meta = *m
		}
		return err
	})
	run(NameStyles, func() (err error) {
		res.Samples, err = Styles(ctx, ev, opts.MaxSamples, res.Tokens)
		return err
	})
	run(NameStylesheets, func() (err error) {
		var s *SheetData
		if s, err = Stylesheets(ctx, ev); err == nil {
			res.Sheets = *s
		}
		return err
	})
	run(NameVariables, func() (err error) {
		var v map[string]string
		if v, err = Variables(ctx, ev); err == nil {
			res.Variables = v
		}
		return err
	})
	run(NameVideos, func() (err error) {
		res.Videos, res.Blobs, err = Videos(ctx, ev)
		return err
	})
	run(NameAnimated, func() (err error) {
		res.Animated, err = Animated(ctx, ev, opts.MaxAnimated)
		return err
	})
	run(NameScripts, func() (err error) {
		res.Scripts, err = Scripts(ctx, ev)
		return err
	})
	run(NameBackgrounds, func() (err error) {
		res.Backgrounds, err = Backgrounds(ctx, ev)
		return err
	})

	log.Debug("extractor: done",
		"samples", len(res.Samples), "keyframes", len(res.Sheets.Keyframes),
		"videos", len(res.Videos), "errors", len(res.Errors))
	return res
}

// DiscoveredURLs returns retrievable URLs found in the document that may
// not have produced a network event: video sources and posters, background
// images, external scripts and linked resources.
func (r *Result) DiscoveredURLs() []Discovered {
	var out []Discovered
	add := func(u string, c snapshot.Category) {
		if snapshot.IsRetrievable(u) {
			out = append(out, Discovered{URL: u, Category: c})
		}
	}
	for _, v := range r.Videos {
		add(v.Src, snapshot.CategoryVideo)
		add(v.CurrentSrc, snapshot.CategoryVideo)
		for _, s := range v.Sources {
			add(s.Src, snapshot.CategoryVideo)
		}
		add(v.Poster, snapshot.CategoryImage)
	}
	for _, b := range r.Backgrounds {
		add(b, snapshot.CategoryImage)
	}
	for _, s := range r.Scripts {
		if !s.Inline {
			add(s.URL, snapshot.CategoryScript)
		}
	}
	for _, l := range r.Meta.Links {
		switch {
		case strings.Contains(l.Rel, "stylesheet"):
			add(l.Href, snapshot.CategoryStylesheet)
		case strings.Contains(l.Rel, "icon"):
			add(l.Href, snapshot.CategoryImage)
		case strings.Contains(l.Rel, "preload"):
			switch l.As {
			case "font":
				add(l.Href, snapshot.CategoryFont)
			case "image":
				add(l.Href, snapshot.CategoryImage)
			case "style":
				add(l.Href, snapshot.CategoryStylesheet)
			case "script":
				add(l.Href, snapshot.CategoryScript)
			case "video":
				add(l.Href, snapshot.CategoryVideo)
			}
		}
	}
	return out
}

// Discovered is a URL found in the document with a category hint.
type Discovered struct {
	URL      string
	Category snapshot.Category
}

// evalJSON runs js and decodes its JSON string result into out.
func evalJSON(ctx context.Context, ev Evaluator, name, js string, out any) error {
	raw, err := ev.Eval(ctx, js)
	if err != nil {
		return fmt.Errorf("extractor: %s: eval: %w", name, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("extractor: %s: decode: %w", name, err)
	}
	return nil
}
