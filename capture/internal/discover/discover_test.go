package discover

import (
	"testing"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

const page = `<!DOCTYPE html><html><head>
<link rel="stylesheet" href="/css/site.css">
<link rel="preload" as="font" href="https://cdn.test/f.woff2" crossorigin>
<link rel="icon" href="favicon.ico">
<script src="/js/app.js"></script>
</head><body>
<img src="hero.jpg" srcset="hero-480.jpg 480w, hero-960.jpg 960w">
<picture><source srcset="/a.avif 1x, /a@2x.avif 2x"><img src="/a.png"></picture>
<video poster="/poster.jpg" src="blob:https://x.test/abc"><source src="/v.webm" type="video/webm"></video>
<img src="data:image/gif;base64,R0lGOD">
<img src="hero.jpg">
</body></html>`

func TestAssets(t *testing.T) {
	refs, err := Assets(page, "https://x.test/dir/index.html")
	if err != nil {
		t.Fatalf("Assets: %v", err)
	}
	got := map[string]snapshot.Category{}
	for _, r := range refs {
		if _, dup := got[r.URL]; dup {
			t.Errorf("duplicate ref %s", r.URL)
		}
		got[r.URL] = r.Category
	}
	want := map[string]snapshot.Category{
		"https://x.test/css/site.css":        snapshot.CategoryStylesheet,
		"https://cdn.test/f.woff2":           snapshot.CategoryFont,
		"https://x.test/dir/favicon.ico":     snapshot.CategoryImage,
		"https://x.test/js/app.js":           snapshot.CategoryScript,
		"https://x.test/dir/hero.jpg":        snapshot.CategoryImage,
		"https://x.test/dir/hero-480.jpg":    snapshot.CategoryImage,
		"https://x.test/dir/hero-960.jpg":    snapshot.CategoryImage,
		"https://x.test/a@2x.avif":           snapshot.CategoryImage,
		"https://x.test/poster.jpg":          snapshot.CategoryImage,
		"https://x.test/v.webm":              snapshot.CategoryVideo,
	}
	for u, c := range want {
		if got[u] != c {
			t.Errorf("%s: got %q, want %q", u, got[u], c)
		}
	}
	for u := range got {
		if snapshot.IsBlobURL(u) || !snapshot.IsRetrievable(u) {
			t.Errorf("non-retrievable ref leaked: %s", u)
		}
	}
}

func TestParseSrcset(t *testing.T) {
	got := ParseSrcset(" a.jpg 1x,b.jpg  2x , ,c.jpg")
	if len(got) != 3 || got[0] != "a.jpg" || got[2] != "c.jpg" {
		t.Errorf("got %v", got)
	}
}
