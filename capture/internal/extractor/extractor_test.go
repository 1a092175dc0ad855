package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// fakeEval answers each evaluation by the "// extract:<name>" marker in the
// script. Missing names fail like a page-side exception would.
type fakeEval struct {
	answers map[string]string
	fail    map[string]error
	calls   []string
}

func (f *fakeEval) Eval(_ context.Context, js string) (string, error) {
	name := marker(js)
	f.calls = append(f.calls, name)
	if err, ok := f.fail[name]; ok {
		return "", err
	}
	if a, ok := f.answers[name]; ok {
		return a, nil
	}
	return "", errors.New("unexpected evaluation " + name)
}

func marker(js string) string {
	i := strings.Index(js, "// extract:")
	if i < 0 {
		return ""
	}
	rest := js[i+len("// extract:"):]
	if j := strings.IndexAny(rest, "\n\r"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

func fullPage() *fakeEval {
	return &fakeEval{answers: map[string]string{
		NameMarkup: "<!DOCTYPE html>\n<html><head><title>T</title></head><body><div class=\"card\"></div><div class=\"card\"></div></body></html>",
		NameMeta:   `{"title":"T","url":"https://x.test/","lang":"en","charset":"UTF-8","meta":{"description":"d"},"links":[{"rel":"preload","href":"https://x.test/f.woff2","as":"font","type":""},{"rel":"icon","href":"https://x.test/fav.ico","as":"","type":""}]}`,
		NameStyles: `{"tokens":{"colors":["rgb(18, 18, 18)","rgba(0, 0, 0, 0)","rgb(18, 18, 18)","rgb(255, 255, 255)"],
			"fontFamilies":["Inter, sans-serif"],"fontSizes":["16px","12px","32px"],"fontWeights":["400"],
			"lineHeights":["normal","24px"],"letterSpacings":["normal"],"spacing":["0px","8px 16px"],
			"radii":["0px","4px"],"shadows":["none"],"transitions":["all 0s ease 0s"],"transforms":["none"],"zIndices":["auto","10"]},
			"samples":[{"tag":"div","id":"","classes":["card"],"rect":{"x":0,"y":0,"width":10,"height":10},"styles":{"backgroundColor":"rgb(18, 18, 18)"}},
			           {"tag":"div","id":"","classes":["card"],"rect":{"x":0,"y":10,"width":10,"height":10},"styles":{"backgroundColor":"rgb(18, 18, 18)"}}],
			"elementCount":5}`,
		NameStylesheets: `{"keyframes":[{"name":"spin","frames":[{"offset":"0%","style":"transform: rotate(0deg);"},{"offset":"100%","style":"transform: rotate(360deg);"}],"sheet":"inline"}],
			"media":[{"condition":"(max-width: 600px)","rules":[".card { width: 100%; }"],"sheet":"inline"}],
			"fontFaces":[{"family":"Inter","src":"url(f.woff2)"}],
			"inaccessible":["https://cdn.other.test/x.css"],"sheetCount":2,"ruleCount":4}`,
		NameVariables:   `{"--brand":"#ff0055","--space":"8px"}`,
		NameVideos: `{"videos":[{"index":0,"src":"blob:https://x.test/2f1c","currentSrc":"blob:https://x.test/2f1c","poster":"https://x.test/p.jpg","autoplay":true,"muted":true,"sources":[]},
			{"index":1,"src":"https://x.test/a.mp4","currentSrc":"https://x.test/a.mp4","sources":[{"src":"https://x.test/a.webm","type":"video/webm"}]},
			{"index":2,"error":"boom"}],
			"dataVideos":[{"tag":"div","src":"https://x.test/hero.mp4"},{"tag":"img","src":"https://x.test/lazy.jpg"}],
			"objectURLs":[{"url":"blob:https://x.test/2f1c","type":"MediaSource","size":0,"segments":3,"bytes":4096},{"url":"blob:https://x.test/thumb","type":"image/png","size":12}]}`,
		NameAnimated:    `[{"selector":"div.spinner","animation":"spin 1s linear 0s infinite normal none running","transition":""},{"selector":"a","animation":"","transition":"all 0s ease 0s"}]`,
		NameScripts:     `[{"src":"https://x.test/app.js","type":"module","async":false,"defer":true,"content":""},{"src":"","type":"","content":"window.x=1"}]`,
		NameBackgrounds: `["https://x.test/bg.png","data:image/png;base64,AAAA"]`,
	}}
}

func TestExtract_AllSubExtractions(t *testing.T) {
	ev := fullPage()
	res := Extract(context.Background(), ev, Options{})
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if !strings.HasPrefix(res.Markup, "<!DOCTYPE html>") {
		t.Errorf("markup: got %q", res.Markup[:20])
	}
	if res.Meta.Title != "T" || res.Meta.Meta["description"] != "d" {
		t.Errorf("meta: got %+v", res.Meta)
	}

	tk := res.Tokens.Tokens()
	if len(tk.Colors) != 2 || tk.Colors[0] != "#121212" || tk.Colors[1] != "#ffffff" {
		t.Errorf("colors: got %v", tk.Colors)
	}
	if strings.Join(tk.FontSizes, ",") != "12px,16px,32px" {
		t.Errorf("font sizes: got %v", tk.FontSizes)
	}
	if len(tk.Spacing) != 1 || len(tk.Radii) != 1 || len(tk.Shadows) != 0 || len(tk.Transitions) != 0 {
		t.Errorf("baseline values should be dropped: %+v", tk)
	}

	if len(res.Samples) != 2 || res.Samples[0].Key == res.Samples[1].Key {
		t.Errorf("samples must have unique keys: %+v", res.Samples)
	}
	if res.Samples[0].Key != "div.card_0" {
		t.Errorf("sample key: got %q", res.Samples[0].Key)
	}

	if len(res.Sheets.Keyframes) != 1 || len(res.Sheets.Keyframes[0].Frames) != 2 {
		t.Errorf("keyframes: got %+v", res.Sheets.Keyframes)
	}
	if res.Variables["--brand"] != "#ff0055" {
		t.Errorf("variables: got %v", res.Variables)
	}
	if len(res.Animated) != 1 || res.Animated[0].Selector != "div.spinner" {
		t.Errorf("animated: got %+v", res.Animated)
	}
	if len(res.Scripts) != 2 || res.Scripts[0].Inline || !res.Scripts[1].Inline {
		t.Errorf("scripts: got %+v", res.Scripts)
	}
}

func TestVideos_BlobFlaggedNotDiscovered(t *testing.T) {
	// WHAT: A blob: video is recorded in metadata and blob refs, never as a fetch target.
	// WHY: In-memory references cannot be retrieved outside the page.
	res := Extract(context.Background(), fullPage(), Options{})
	if len(res.Videos) != 3 {
		t.Fatalf("videos: got %d, want 3 (errored element dropped)", len(res.Videos))
	}
	if !res.Videos[0].Blob || res.Videos[0].Src != "blob:https://x.test/2f1c" {
		t.Errorf("video 0 should be blob: %+v", res.Videos[0])
	}
	if res.Videos[1].Blob {
		t.Error("video 1 is not a blob")
	}
	if len(res.Blobs) != 1 || res.Blobs[0].Element != "video[0]" {
		t.Errorf("blob refs: got %+v", res.Blobs)
	}
	for _, d := range res.DiscoveredURLs() {
		if snapshot.IsBlobURL(d.URL) || strings.HasPrefix(d.URL, "data:") {
			t.Errorf("non-retrievable URL discovered: %s", d.URL)
		}
	}
}

func TestVideos_SourcesMerged(t *testing.T) {
	// WHAT: src, currentSrc and <source> children land in one deduplicated list.
	// WHY: A <video src="blob:..."> must show its blob URL in sources.
	res := Extract(context.Background(), fullPage(), Options{})
	v0 := res.Videos[0]
	if len(v0.Sources) != 1 || v0.Sources[0].Src != "blob:https://x.test/2f1c" || !v0.Sources[0].Blob {
		t.Errorf("video 0 sources: got %+v", v0.Sources)
	}
	var got []string
	for _, s := range res.Videos[1].Sources {
		got = append(got, s.Src)
	}
	if strings.Join(got, " ") != "https://x.test/a.mp4 https://x.test/a.webm" {
		t.Errorf("video 1 sources: got %v", got)
	}
}

func TestVideos_DataAttribute(t *testing.T) {
	// WHAT: data-video-src / data-src pointing at a video file is recorded; an image is not.
	// WHY: Background videos are often wired through data attributes.
	res := Extract(context.Background(), fullPage(), Options{})
	v := res.Videos[2]
	if v.Origin != "data-attribute" || v.Src != "https://x.test/hero.mp4" || v.Index != 3 {
		t.Errorf("data video: got %+v", v)
	}
	found := false
	for _, d := range res.DiscoveredURLs() {
		if d.URL == "https://x.test/lazy.jpg" && d.Category == snapshot.CategoryVideo {
			t.Error("lazy image treated as video")
		}
		if d.URL == "https://x.test/hero.mp4" {
			found = true
		}
	}
	if !found {
		t.Error("hero.mp4 not discovered")
	}
}

func TestVideos_ObjectURLLog(t *testing.T) {
	// WHAT: The in-page object URL log enriches the matching blob ref.
	// WHY: Type and MediaSource segment counts are the only trace of in-memory media.
	res := Extract(context.Background(), fullPage(), Options{})
	if len(res.Blobs) != 1 {
		t.Fatalf("blob refs: got %+v", res.Blobs)
	}
	b := res.Blobs[0]
	if b.Type != "MediaSource" || b.Segments != 3 || b.Bytes != 4096 {
		t.Errorf("blob ref: got %+v", b)
	}

	ev := fullPage()
	ev.answers[NameVideos] = `{"videos":[],"dataVideos":[],"objectURLs":[{"url":"blob:https://x.test/ms","type":"MediaSource","segments":1,"bytes":10}]}`
	res = Extract(context.Background(), ev, Options{})
	if len(res.Blobs) != 1 || res.Blobs[0].URL != "blob:https://x.test/ms" || res.Blobs[0].Element != "" {
		t.Errorf("unattached MediaSource: got %+v", res.Blobs)
	}
}

func TestDiscoveredURLs_Categories(t *testing.T) {
	res := Extract(context.Background(), fullPage(), Options{})
	got := map[string]snapshot.Category{}
	for _, d := range res.DiscoveredURLs() {
		got[d.URL] = d.Category
	}
	want := map[string]snapshot.Category{
		"https://x.test/a.mp4":   snapshot.CategoryVideo,
		"https://x.test/a.webm":  snapshot.CategoryVideo,
		"https://x.test/p.jpg":   snapshot.CategoryImage,
		"https://x.test/bg.png":  snapshot.CategoryImage,
		"https://x.test/app.js":  snapshot.CategoryScript,
		"https://x.test/f.woff2": snapshot.CategoryFont,
		"https://x.test/fav.ico": snapshot.CategoryImage,
	}
	for u, c := range want {
		if got[u] != c {
			t.Errorf("%s: got %q, want %q", u, got[u], c)
		}
	}
}

func TestExtract_CrossOriginSheetSkipped(t *testing.T) {
	// WHAT: An inaccessible stylesheet is listed but produces no error.
	// WHY: Cross-origin rule lists are an expected condition.
	res := Extract(context.Background(), fullPage(), Options{})
	if _, ok := res.Errors[NameStylesheets]; ok {
		t.Error("stylesheets should not error for a cross-origin sheet")
	}
	if len(res.Sheets.Inaccessible) != 1 {
		t.Errorf("inaccessible: got %v", res.Sheets.Inaccessible)
	}
	if len(res.Sheets.Media) != 1 {
		t.Errorf("media from accessible sheets must still be present: %+v", res.Sheets.Media)
	}
}

func TestExtract_FaultIsolation(t *testing.T) {
	// WHAT: One failing sub-extraction does not abort the others.
	// WHY: Partial design data beats no data.
	ev := fullPage()
	ev.fail = map[string]error{
		NameStylesheets: errors.New("Execution context was destroyed"),
		NameVideos:      errors.New("timeout"),
	}
	ev.answers[NameVariables] = "not json"

	res := Extract(context.Background(), ev, Options{})
	for _, name := range []string{NameStylesheets, NameVideos, NameVariables} {
		if _, ok := res.Errors[name]; !ok {
			t.Errorf("expected error for %s", name)
		}
	}
	if res.Markup == "" || len(res.Samples) == 0 || len(res.Scripts) == 0 {
		t.Error("other sub-extractions must still produce data")
	}
	if len(ev.calls) != 9 {
		t.Errorf("every sub-extraction should run once, got %v", ev.calls)
	}
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev := fullPage()
	res := Extract(ctx, ev, Options{})
	if len(ev.calls) != 0 {
		t.Errorf("no evaluation should run after cancel, got %v", ev.calls)
	}
	if len(res.Errors) != 9 {
		t.Errorf("errors: got %d, want 9", len(res.Errors))
	}
}

func TestSampleKey(t *testing.T) {
	if got := SampleKey("a", "nav", []string{"x", "y"}, 3); got != "a#nav.x.y_3" {
		t.Errorf("got %q", got)
	}
	if got := SampleKey("p", "", nil, 0); got != "p_0" {
		t.Errorf("got %q", got)
	}
}

func TestMarkup_Empty(t *testing.T) {
	ev := &fakeEval{answers: map[string]string{NameMarkup: "  "}}
	if _, err := Markup(context.Background(), ev); err == nil {
		t.Error("empty markup should error")
	}
}
