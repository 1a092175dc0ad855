package capture

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/hazyhaar/pagesnap/capture/internal/catalog"
	"github.com/hazyhaar/pagesnap/capture/internal/dbopen"
)

func apiServer(t *testing.T) (*assetServer, *httptest.Server) {
	t.Helper()
	assets := newAssetServer(t)
	cat, err := catalog.New(dbopen.OpenMemory(t))
	if err != nil {
		t.Fatal(err)
	}
	sess := &fakeSession{answers: pageAnswers(assets.URL), responses: pageResponses(assets.URL)}
	c := newTestCapturer(t, &fakeLauncher{sess: sess}, WithHTTPClient(assets.Client()), WithCatalog(cat))
	api := httptest.NewServer(NewServer(c, quietLogger()))
	t.Cleanup(api.Close)
	return assets, api
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

// WHAT: Create a capture over HTTP, then read it back through every route.
func TestServer_CaptureRoundTrip(t *testing.T) {
	assets, api := apiServer(t)

	body, _ := json.Marshal(Request{URL: assets.URL + "/", OutputDir: t.TempDir()})
	resp, err := http.Post(api.URL+"/api/captures", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST: got %d: %s", resp.StatusCode, raw)
	}
	id := gjson.GetBytes(raw, "id").String()
	if id == "" {
		t.Fatalf("no id in %s", raw)
	}

	code, out := get(t, api.URL+"/api/captures")
	if code != http.StatusOK || gjson.Get(out, "#").Int() != 1 {
		t.Errorf("list: %d %s", code, out)
	}

	code, out = get(t, api.URL+"/api/captures/"+id)
	if code != http.StatusOK || gjson.Get(out, "title").String() != "Home" {
		t.Errorf("get: %d %s", code, out)
	}

	code, out = get(t, api.URL+"/captures/"+id+"/preview")
	if code != http.StatusOK {
		t.Fatalf("preview: %d %s", code, out)
	}
	if strings.Contains(out, "<script") {
		t.Error("preview must not contain scripts")
	}
	if !strings.Contains(out, "Welcome") {
		t.Errorf("preview lost content: %s", out)
	}

	code, out = get(t, api.URL+"/captures/"+id+"/files/index.html")
	if code != http.StatusOK || !strings.Contains(out, "<script") {
		t.Errorf("raw index.html: %d", code)
	}

	code, _ = get(t, api.URL+"/captures/"+id+"/files/../../etc/passwd")
	if code != http.StatusBadRequest {
		t.Errorf("traversal: got %d, want 400", code)
	}
}

func TestServer_Errors(t *testing.T) {
	_, api := apiServer(t)

	if code, _ := get(t, api.URL+"/api/captures/unknown"); code != http.StatusNotFound {
		t.Errorf("unknown id: got %d, want 404", code)
	}
	if code, _ := get(t, api.URL+"/api/captures?limit=x"); code != http.StatusBadRequest {
		t.Errorf("bad limit: got %d, want 400", code)
	}
	resp, err := http.Post(api.URL+"/api/captures", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing url: got %d, want 400", resp.StatusCode)
	}
	if code, out := get(t, api.URL+"/health"); code != http.StatusOK || !strings.Contains(out, "ok") {
		t.Errorf("health: %d %s", code, out)
	}
}
