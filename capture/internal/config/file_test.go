package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Viewports) != 4 || cfg.Viewports[0].Name != "mobile" || cfg.Viewports[0].Width != 390 {
		t.Errorf("viewports: got %+v", cfg.Viewports)
	}
	if cfg.Timeouts.Navigation != 30*time.Second {
		t.Errorf("navigation: got %v", cfg.Timeouts.Navigation)
	}
	if cfg.Fetch.Concurrency != 8 || cfg.Fetch.MaxBytes != 200<<20 {
		t.Errorf("fetch: got %+v", cfg.Fetch)
	}
	if len(cfg.Persist) != 5 {
		t.Errorf("persist: got %v", cfg.Persist)
	}
}

func TestLoadFile_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagesnap.yaml")
	yaml := `
browser:
  remote: ws://127.0.0.1:9222/devtools/browser/x
viewports:
  - name: phone
    width: 375
    height: 667
timeouts:
  navigation: 5s
  settle: 100ms
fetch:
  concurrency: 2
  public_only: true
persist: [image, css]
pdf:
  enabled: true
sinks:
  - type: webhook
    url: http://hooks.test/x
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Browser.Remote == "" {
		t.Error("remote not read")
	}
	if len(cfg.Viewports) != 1 || cfg.Viewports[0].Width != 375 {
		t.Errorf("viewports: got %+v", cfg.Viewports)
	}
	if cfg.Timeouts.Navigation != 5*time.Second || cfg.Timeouts.Settle != 100*time.Millisecond {
		t.Errorf("timeouts: got %+v", cfg.Timeouts)
	}
	if cfg.Timeouts.ScrollBudget != 20*time.Second {
		t.Errorf("scroll budget default lost: %v", cfg.Timeouts.ScrollBudget)
	}
	if cfg.Fetch.Concurrency != 2 || !cfg.Fetch.PublicOnly {
		t.Errorf("fetch: got %+v", cfg.Fetch)
	}
	if !cfg.PDF.Enabled || len(cfg.Sinks) != 1 {
		t.Errorf("pdf/sinks: %+v %+v", cfg.PDF, cfg.Sinks)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad viewport":  "viewports: [{name: x, width: 0, height: 10}]",
		"dup viewport":  "viewports: [{name: x, width: 1, height: 1}, {name: x, width: 2, height: 2}]",
		"unknown cat":   "persist: [holograms]",
		"webhook noURL": "sinks: [{type: webhook}]",
		"unknown sink":  "sinks: [{type: nats}]",
	}
	for name, y := range cases {
		if _, err := Parse([]byte(y)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseViewport(t *testing.T) {
	v, err := ParseViewport("wide=2560x1440")
	if err != nil || v.Name != "wide" || v.Width != 2560 || v.Height != 1440 {
		t.Errorf("got %+v, %v", v, err)
	}
	for _, bad := range []string{"wide", "=1x1", "w=1x", "w=0x10", "w=axb"} {
		if _, err := ParseViewport(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}
