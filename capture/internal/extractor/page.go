package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// PageMeta is the document-level metadata.
type PageMeta struct {
	Title   string            `json:"title"`
	URL     string            `json:"url"`
	Lang    string            `json:"lang"`
	Charset string            `json:"charset"`
	Meta    map[string]string `json:"meta"`
	Links   []Link            `json:"links"`
}

// Link is a <link rel> element.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
	As   string `json:"as"`
	Type string `json:"type"`
}

// ScriptInfo is one <script>. Content is set for inline scripts only.
type ScriptInfo struct {
	URL     string `json:"src"`
	Type    string `json:"type"`
	Async   bool   `json:"async"`
	Defer   bool   `json:"defer"`
	Inline  bool   `json:"-"`
	Content string `json:"content"`
}

// Markup serialises the live document tree, doctype included.
func Markup(ctx context.Context, ev Evaluator) (string, error) {
	s, err := ev.Eval(ctx, markupJS)
	if err != nil {
		return "", fmt.Errorf("extractor: markup: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("extractor: markup: empty document")
	}
	return s, nil
}

// Meta reads title, meta tags and link relations.
func Meta(ctx context.Context, ev Evaluator) (*PageMeta, error) {
	var m PageMeta
	if err := evalJSON(ctx, ev, NameMeta, metaJS, &m); err != nil {
		return nil, err
	}
	if m.Meta == nil {
		m.Meta = map[string]string{}
	}
	return &m, nil
}

// Scripts lists external and inline scripts.
func Scripts(ctx context.Context, ev Evaluator) ([]ScriptInfo, error) {
	var out []ScriptInfo
	if err := evalJSON(ctx, ev, NameScripts, scriptsJS, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Inline = out[i].URL == ""
	}
	return out, nil
}

// Backgrounds returns absolute background-image URLs. Data and blob URLs
// are kept here; callers filter what they fetch.
func Backgrounds(ctx context.Context, ev Evaluator) ([]string, error) {
	var out []string
	if err := evalJSON(ctx, ev, NameBackgrounds, backgroundsJS, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ScriptAssets converts scripts into report entries. Inline bodies are
// not included; their path is assigned by the report writer.
func ScriptAssets(scripts []ScriptInfo) []snapshot.Script {
	out := make([]snapshot.Script, 0, len(scripts))
	for _, s := range scripts {
		out = append(out, snapshot.Script{
			URL:    s.URL,
			Inline: s.Inline,
			Type:   s.Type,
			Async:  s.Async,
			Defer:  s.Defer,
			Size:   len(s.Content),
		})
	}
	return out
}
