package classify

import (
	"testing"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

func TestClassify_Table(t *testing.T) {
	// WHAT: Representative URL/content-type pairs map to the expected category.
	// WHY: Classification routes persistence; a wrong category loses assets.
	cases := []struct {
		url, ct string
		want    snapshot.Category
	}{
		{"https://x.test/a.bin", "video/mp4", snapshot.CategoryVideo},
		{"https://x.test/hero", "image/webp", snapshot.CategoryImage},
		{"https://x.test/s", "text/css; charset=utf-8", snapshot.CategoryStylesheet},
		{"https://x.test/app", "application/javascript", snapshot.CategoryScript},
		{"https://x.test/app", "text/ecmascript", snapshot.CategoryScript},
		{"https://x.test/f", "font/woff2", snapshot.CategoryFont},
		{"https://x.test/f", "application/x-font-ttf", snapshot.CategoryFont},
		{"https://x.test/f.woff2?v=3", "application/octet-stream", snapshot.CategoryFont},
		{"https://x.test/clip.webm", "", snapshot.CategoryVideo},
		{"https://x.test/logo.SVG", "", snapshot.CategoryImage},
		{"https://x.test/live.m3u8", "application/octet-stream", snapshot.CategoryManifest},
		{"https://x.test/live.mpd", "text/plain", snapshot.CategoryManifest},
		{"https://x.test/pl", "application/vnd.apple.mpegurl", snapshot.CategoryManifest},
		{"https://x.test/api/data", "application/json", snapshot.CategoryOther},
		{"https://x.test/", "text/html", snapshot.CategoryOther},
		{"", "", snapshot.CategoryOther},
	}
	for _, c := range cases {
		if got := Classify(c.url, c.ct); got != c.want {
			t.Errorf("Classify(%q, %q): got %q, want %q", c.url, c.ct, got, c.want)
		}
	}
}

func TestClassify_ContentTypeBeatsExtension(t *testing.T) {
	// WHAT: A .js URL declared as image/png is an image.
	// WHY: The server-declared type is truth; the extension is a fallback.
	if got := Classify("https://x.test/pixel.js", "image/png"); got != snapshot.CategoryImage {
		t.Errorf("got %q, want image", got)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	// WHAT: Classifying the same pair twice yields the same category.
	// WHY: Network entries are re-checked against Classify after the fact.
	pairs := [][2]string{
		{"https://x.test/a.mp4", ""},
		{"https://x.test/b", "text/css"},
		{"://bad url", "weird/type"},
	}
	for _, p := range pairs {
		a := Classify(p[0], p[1])
		b := Classify(p[0], p[1])
		if a != b {
			t.Errorf("Classify(%q,%q) not stable: %q vs %q", p[0], p[1], a, b)
		}
	}
}

func TestExt_IgnoresQueryAndFragment(t *testing.T) {
	if got := Ext("https://x.test/a/b.PNG?w=200#top"); got != ".png" {
		t.Errorf("Ext: got %q, want .png", got)
	}
}

func TestPersisted(t *testing.T) {
	for _, c := range []snapshot.Category{snapshot.CategoryManifest, snapshot.CategoryOther} {
		if Persisted(c) {
			t.Errorf("%s should not be persisted by default", c)
		}
	}
	if !Persisted(snapshot.CategoryFont) {
		t.Error("font should be persisted by default")
	}
}

func TestParsePersistSet(t *testing.T) {
	s, unknown := ParsePersistSet([]string{"images", "video", "nope"})
	if !s.Has(snapshot.CategoryImage) || !s.Has(snapshot.CategoryVideo) {
		t.Errorf("set missing entries: %v", s)
	}
	if s.Has(snapshot.CategoryScript) {
		t.Error("script should not be in explicit set")
	}
	if len(unknown) != 1 || unknown[0] != "nope" {
		t.Errorf("unknown: got %v", unknown)
	}

	def, _ := ParsePersistSet(nil)
	if len(def) != 5 {
		t.Errorf("default set size: got %d, want 5", len(def))
	}
}
