// Package discover finds asset references in serialized markup: img and
// source srcsets, posters, linked stylesheets, preloads, icons and scripts.
// It complements the live-DOM extraction with references that never
// produced a network event (unselected srcset candidates, lazy images).
package discover

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// Ref is an absolute URL with a category hint.
type Ref struct {
	URL      string
	Category snapshot.Category
}

// Assets parses markup and returns deduplicated absolute http(s)
// references resolved against base. In-memory and data: URLs are dropped.
func Assets(markup, base string) ([]Ref, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := baseURL.Parse(href); err == nil {
			baseURL = b
		}
	}

	seen := make(map[string]bool)
	var out []Ref
	add := func(raw string, c snapshot.Category) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			return
		}
		u, err := baseURL.Parse(raw)
		if err != nil {
			return
		}
		u.Fragment = ""
		abs := u.String()
		if !snapshot.IsRetrievable(abs) || seen[abs] {
			return
		}
		seen[abs] = true
		out = append(out, Ref{URL: abs, Category: c})
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
			if v, ok := s.Attr(attr); ok {
				add(v, snapshot.CategoryImage)
			}
		}
		for _, attr := range []string{"srcset", "data-srcset"} {
			if v, ok := s.Attr(attr); ok {
				for _, c := range ParseSrcset(v) {
					add(c, snapshot.CategoryImage)
				}
			}
		}
	})
	doc.Find("picture source[srcset]").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("srcset")
		for _, c := range ParseSrcset(v) {
			add(c, snapshot.CategoryImage)
		}
	})
	doc.Find("video").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("src"); ok {
			add(v, snapshot.CategoryVideo)
		}
		if v, ok := s.Attr("poster"); ok {
			add(v, snapshot.CategoryImage)
		}
		s.Find("source[src]").Each(func(_ int, src *goquery.Selection) {
			v, _ := src.Attr("src")
			add(v, snapshot.CategoryVideo)
		})
	})
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("src")
		add(v, snapshot.CategoryScript)
	})
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		href := s.AttrOr("href", "")
		switch {
		case strings.Contains(rel, "stylesheet"):
			add(href, snapshot.CategoryStylesheet)
		case strings.Contains(rel, "icon"):
			add(href, snapshot.CategoryImage)
		case strings.Contains(rel, "modulepreload"):
			add(href, snapshot.CategoryScript)
		case strings.Contains(rel, "preload"):
			switch strings.ToLower(s.AttrOr("as", "")) {
			case "font":
				add(href, snapshot.CategoryFont)
			case "image":
				add(href, snapshot.CategoryImage)
			case "style":
				add(href, snapshot.CategoryStylesheet)
			case "script":
				add(href, snapshot.CategoryScript)
			case "video":
				add(href, snapshot.CategoryVideo)
			}
		}
	})
	return out, nil
}

// ParseSrcset returns the URL of every candidate in a srcset attribute.
func ParseSrcset(v string) []string {
	var out []string
	for _, cand := range strings.Split(v, ",") {
		f := strings.Fields(strings.TrimSpace(cand))
		if len(f) > 0 {
			out = append(out, f[0])
		}
	}
	return out
}
