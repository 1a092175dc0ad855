// CLAUDE:SUMMARY Deterministic resource classifier: content-type first, URL extension as fallback, streaming manifests by extension.
// Package classify maps a (URL, content-type) pair to a resource category.
package classify

import (
	"net/url"
	"path"
	"strings"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

var manifestExt = map[string]bool{".m3u8": true, ".mpd": true}

var extCategory = map[string]snapshot.Category{
	".mp4": snapshot.CategoryVideo, ".webm": snapshot.CategoryVideo, ".mov": snapshot.CategoryVideo,
	".avi": snapshot.CategoryVideo, ".mkv": snapshot.CategoryVideo, ".m4v": snapshot.CategoryVideo,
	".ogv": snapshot.CategoryVideo,

	".png": snapshot.CategoryImage, ".jpg": snapshot.CategoryImage, ".jpeg": snapshot.CategoryImage,
	".gif": snapshot.CategoryImage, ".webp": snapshot.CategoryImage, ".svg": snapshot.CategoryImage,
	".ico": snapshot.CategoryImage, ".avif": snapshot.CategoryImage, ".bmp": snapshot.CategoryImage,

	".css": snapshot.CategoryStylesheet,

	".js": snapshot.CategoryScript, ".mjs": snapshot.CategoryScript,

	".woff": snapshot.CategoryFont, ".woff2": snapshot.CategoryFont, ".ttf": snapshot.CategoryFont,
	".otf": snapshot.CategoryFont, ".eot": snapshot.CategoryFont,
}

// Classify returns the category of a resource. It never fails and defaults
// to CategoryOther. Streaming playlists are recognised by extension since
// servers commonly declare them with generic types; otherwise the declared
// content-type wins over the URL extension.
func Classify(rawURL, contentType string) snapshot.Category {
	ext := Ext(rawURL)
	if manifestExt[ext] {
		return snapshot.CategoryManifest
	}
	if c, ok := byContentType(contentType); ok {
		return c
	}
	if c, ok := extCategory[ext]; ok {
		return c
	}
	return snapshot.CategoryOther
}

func byContentType(ct string) (snapshot.Category, bool) {
	ct = strings.ToLower(ct)
	switch {
	case ct == "":
		return "", false
	case strings.Contains(ct, "mpegurl"), strings.Contains(ct, "dash+xml"):
		return snapshot.CategoryManifest, true
	case strings.Contains(ct, "video/"):
		return snapshot.CategoryVideo, true
	case strings.Contains(ct, "image/"):
		return snapshot.CategoryImage, true
	case strings.Contains(ct, "text/css"):
		return snapshot.CategoryStylesheet, true
	case strings.Contains(ct, "javascript"), strings.Contains(ct, "ecmascript"):
		return snapshot.CategoryScript, true
	case strings.Contains(ct, "font/"), strings.Contains(ct, "application/font"),
		strings.Contains(ct, "application/x-font"), strings.Contains(ct, "woff"):
		return snapshot.CategoryFont, true
	}
	return "", false
}

// Ext returns the lower-cased extension of the URL path, without query or
// fragment. Unparseable URLs fall back to a plain string scan.
func Ext(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(path.Ext(p))
}

var defaultPersisted = map[snapshot.Category]bool{
	snapshot.CategoryVideo:      true,
	snapshot.CategoryImage:      true,
	snapshot.CategoryStylesheet: true,
	snapshot.CategoryScript:     true,
	snapshot.CategoryFont:       true,
}

// Persisted reports whether response bodies of the category are written
// to disk by default.
func Persisted(c snapshot.Category) bool {
	return defaultPersisted[c]
}

// PersistSet is a configurable set of persisted categories.
type PersistSet map[snapshot.Category]bool

// DefaultPersistSet returns the default persisted categories.
func DefaultPersistSet() PersistSet {
	s := make(PersistSet, len(defaultPersisted))
	for c := range defaultPersisted {
		s[c] = true
	}
	return s
}

// ParsePersistSet builds a set from category names. Unknown names are
// returned separately. An empty input yields the default set.
func ParsePersistSet(names []string) (PersistSet, []string) {
	if len(names) == 0 {
		return DefaultPersistSet(), nil
	}
	s := make(PersistSet, len(names))
	var unknown []string
	for _, n := range names {
		c, ok := snapshot.ParseCategory(strings.ToLower(strings.TrimSpace(n)))
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		s[c] = true
	}
	return s, unknown
}

// Has reports whether c is in the set.
func (s PersistSet) Has(c snapshot.Category) bool { return s[c] }
