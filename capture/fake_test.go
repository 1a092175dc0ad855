package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/pagesnap/capture/internal/extractor"
	"github.com/hazyhaar/pagesnap/capture/internal/intercept"
)

// fakeResponse is one response the fake browser "receives" during
// navigation.
type fakeResponse struct {
	resp intercept.Response
	body []byte
}

// fakeSession stands in for a browser tab. Evaluations are answered by the
// "// extract:<name>" marker of the script.
type fakeSession struct {
	mu        sync.Mutex
	answers   map[string]string
	responses []fakeResponse
	navErr    error
	idleErr   error
	pdf       []byte
	icpt      *intercept.Interceptor
	viewports [][2]int
	shots     int
	closed    bool
}

func (s *fakeSession) Attach(_ context.Context, i *intercept.Interceptor) func() {
	s.mu.Lock()
	s.icpt = i
	s.mu.Unlock()
	return func() {}
}

func (s *fakeSession) Navigate(ctx context.Context, _ string) error {
	for _, r := range s.responses {
		body := r.body
		var fn intercept.BodyFunc
		if body != nil {
			fn = func(context.Context) ([]byte, error) { return body, nil }
		}
		s.icpt.Observe(ctx, r.resp, fn)
	}
	return s.navErr
}

func (s *fakeSession) WaitIdle(context.Context, time.Duration, time.Duration) error {
	return s.idleErr
}

func (s *fakeSession) ScrollSweep(context.Context, time.Duration, time.Duration) error {
	return nil
}

func (s *fakeSession) SetViewport(_ context.Context, w, h int) error {
	s.mu.Lock()
	s.viewports = append(s.viewports, [2]int{w, h})
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Screenshot(context.Context, bool) ([]byte, error) {
	s.mu.Lock()
	s.shots++
	s.mu.Unlock()
	return testPNG(), nil
}

func (s *fakeSession) PDF(context.Context) ([]byte, error) {
	if s.pdf == nil {
		return nil, errors.New("printing not supported")
	}
	return s.pdf, nil
}

func (s *fakeSession) Eval(_ context.Context, js string) (string, error) {
	name := marker(js)
	v, ok := s.answers[name]
	if !ok {
		return "", fmt.Errorf("eval %s: ReferenceError", name)
	}
	return v, nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
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

type fakeLauncher struct {
	mu      sync.Mutex
	sess    *fakeSession
	openErr error
	opens   int
}

func (l *fakeLauncher) Open(context.Context) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opens++
	if l.openErr != nil {
		return nil, l.openErr
	}
	return l.sess, nil
}

func (l *fakeLauncher) Close() error { return nil }

// pageAnswers is a complete, well-formed extraction of a small page whose
// assets live under base.
func pageAnswers(base string) map[string]string {
	return map[string]string{
		extractor.NameMarkup: `<!DOCTYPE html>
<html lang="en"><head><title>Home</title><link rel="stylesheet" href="/style.css"></head>
<body><h1>Welcome</h1><p>Hello <b>world</b>.</p>
<img src="/logo.png" alt="logo"><img src="/missing.png">
<script src="/app.js"></script><script>window.x=1</script></body></html>`,
		extractor.NameMeta: `{"title":"Home","url":"` + base + `/","lang":"en","charset":"UTF-8","meta":{"description":"A test page"},"links":[]}`,
		extractor.NameStyles: `{"tokens":{"colors":["rgb(255, 0, 0)","rgb(0, 0, 255)"],"fontFamilies":["Inter, sans-serif"],"fontSizes":["16px","32px"],
			"fontWeights":["400"],"lineHeights":["normal"],"letterSpacings":["normal"],"spacing":["8px"],"radii":["4px"],
			"shadows":["none"],"transitions":["all 0s ease 0s"],"transforms":["none"],"zIndices":["auto"]},
			"samples":[{"tag":"h1","id":"","classes":[],"rect":{"x":0,"y":0,"width":100,"height":40},"styles":{"color":"rgb(255, 0, 0)"}}],
			"elementCount":6}`,
		extractor.NameStylesheets: `{"keyframes":[],"media":[],"fontFaces":[],"inaccessible":[],"sheetCount":1,"ruleCount":1}`,
		extractor.NameVariables:   `{"--brand":"#ff0000"}`,
		extractor.NameVideos:      `{"videos":[],"dataVideos":[],"objectURLs":[]}`,
		extractor.NameAnimated:    `[]`,
		extractor.NameScripts:     `[{"src":"` + base + `/app.js","type":"","async":false,"defer":false,"content":""},{"src":"","type":"","content":"window.x=1"}]`,
		extractor.NameBackgrounds: `["` + base + `/bg.png"]`,
	}
}

// pageResponses is what the browser sees while loading the page.
func pageResponses(base string) []fakeResponse {
	return []fakeResponse{
		{resp: intercept.Response{RequestID: "1", URL: base + "/", Status: 200, MimeType: "text/html", ResourceType: "Document"}},
		{resp: intercept.Response{RequestID: "2", URL: base + "/style.css", Status: 200, MimeType: "text/css", ResourceType: "Stylesheet"}, body: []byte("h1{color:red}")},
		{resp: intercept.Response{RequestID: "3", URL: base + "/app.js", Status: 200, MimeType: "application/javascript", ResourceType: "Script"}, body: []byte("console.log(1)")},
		{resp: intercept.Response{RequestID: "4", URL: base + "/late.png", Status: 304, MimeType: "image/png", ResourceType: "Image"}},
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Output.BaseDir = t.TempDir()
	cfg.Viewports = []ViewportConfig{{Name: "desktop", Width: 1280, Height: 800}}
	cfg.Timeouts.Settle = time.Millisecond
	cfg.Timeouts.ScrollPause = time.Millisecond
	cfg.Timeouts.ViewportPause = time.Millisecond
	cfg.Timeouts.Navigation = 5 * time.Second
	cfg.Fetch.Retries = -1
	return cfg
}

var (
	pngOnce  sync.Once
	pngBytes []byte
)

// testPNG is a 64x64 image, half red and half blue.
func testPNG() []byte {
	pngOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				c := color.RGBA{R: 220, G: 20, B: 20, A: 255}
				if x >= 32 {
					c = color.RGBA{R: 20, G: 40, B: 200, A: 255}
				}
				img.Set(x, y, c)
			}
		}
		var buf bytes.Buffer
		png.Encode(&buf, img)
		pngBytes = buf.Bytes()
	})
	return pngBytes
}

// onePagePDF builds a minimal valid single-page PDF with correct xref
// offsets.
func onePagePDF() []byte {
	stream := "BT\n/F1 12 Tf\n72 720 Td\n(pagesnap) Tj\nET"
	var b strings.Builder
	offsets := make([]int, 6)
	b.WriteString("%PDF-1.4\n")
	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	offsets[4] = b.Len()
	fmt.Fprintf(&b, "4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream)
	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")
	xref := b.Len()
	b.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return []byte(b.String())
}
