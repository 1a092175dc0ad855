package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// Summary renders a human-readable Markdown overview of a report.
func Summary(r *snapshot.CaptureReport) string {
	var b strings.Builder
	title := r.Title
	if title == "" {
		title = r.URL
	}
	fmt.Fprintf(&b, "# Capture: %s\n\n", title)
	fmt.Fprintf(&b, "- URL: %s\n", r.URL)
	if r.FinalURL != "" && r.FinalURL != r.URL {
		fmt.Fprintf(&b, "- Final URL: %s\n", r.FinalURL)
	}
	fmt.Fprintf(&b, "- Captured: %s\n", r.ExtractedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Status: %s\n", r.Status())
	if r.Error != "" {
		fmt.Fprintf(&b, "- Error: %s\n", r.Error)
	}
	if r.NavigationIncomplete {
		b.WriteString("- Navigation did not complete before the timeout\n")
	}

	b.WriteString("\n## Assets\n\n| Category | Saved |\n|---|---|\n")
	for _, c := range snapshot.Categories() {
		fmt.Fprintf(&b, "| %s | %d |\n", c, len(r.Assets.Available[c]))
	}
	fmt.Fprintf(&b, "\nTotal saved: %d, failed: %d, unresolved: %d, network entries: %d\n",
		r.Assets.Total, len(r.Assets.Failed), len(r.Assets.Unresolved), len(r.Network))

	t := r.DesignTokens
	b.WriteString("\n## Design tokens\n\n")
	list(&b, "Colors", t.Colors, 20)
	list(&b, "Palette", t.Palette, 10)
	list(&b, "Font families", t.FontFamilies, 10)
	list(&b, "Font sizes", t.FontSizes, 20)
	list(&b, "Border radius", t.Radii, 10)
	list(&b, "Shadows", t.Shadows, 5)

	if len(r.Videos) > 0 {
		b.WriteString("\n## Videos\n\n")
		for _, v := range r.Videos {
			src := v.CurrentSrc
			if src == "" {
				src = v.Src
			}
			fmt.Fprintf(&b, "- #%d %s (%dx%d, autoplay=%t, loop=%t, muted=%t)\n",
				v.Index, src, v.Width, v.Height, v.Autoplay, v.Loop, v.Muted)
		}
	}
	if len(r.BlobReferences) > 0 {
		fmt.Fprintf(&b, "\n%d in-memory media reference(s) could not be retrieved.\n", len(r.BlobReferences))
	}

	fmt.Fprintf(&b, "\n## Styles\n\n- Keyframes: %d\n- Media queries: %d\n- Font faces: %d\n- CSS variables: %d\n- Animated elements: %d\n- Style samples: %d\n",
		len(r.Keyframes), len(r.MediaQueries), len(r.FontFaces), len(r.CSSVariables),
		len(r.AnimatedElements), len(r.ComputedStyles))

	if len(r.Screenshots) > 0 {
		b.WriteString("\n## Screenshots\n\n")
		for _, s := range r.Screenshots {
			if s.Error != "" {
				fmt.Fprintf(&b, "- %s: failed (%s)\n", s.Name, s.Error)
				continue
			}
			fmt.Fprintf(&b, "- %s (%dx%d): %s\n", s.Name, s.Width, s.Height, s.Path)
		}
	}
	if r.PDF != nil {
		fmt.Fprintf(&b, "\n## PDF\n\n- %s: %d page(s), %d bytes\n", r.PDF.Path, r.PDF.Pages, r.PDF.Size)
	}

	if len(r.ExtractionErrors) > 0 {
		b.WriteString("\n## Extraction errors\n\n")
		for _, k := range sortedKeys(r.ExtractionErrors) {
			fmt.Fprintf(&b, "- %s: %s\n", k, r.ExtractionErrors[k])
		}
	}
	if len(r.Phases) > 0 {
		b.WriteString("\n## Timeline\n\n")
		for _, p := range r.Phases {
			line := fmt.Sprintf("- %s: %dms", p.Phase, p.DurationMS)
			if p.Error != "" {
				line += " (" + p.Error + ")"
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func list(b *strings.Builder, label string, vals []string, limit int) {
	if len(vals) == 0 {
		return
	}
	shown := vals
	if len(shown) > limit {
		shown = shown[:limit]
	}
	fmt.Fprintf(b, "- %s (%d): %s", label, len(vals), strings.Join(shown, ", "))
	if len(vals) > limit {
		b.WriteString(", ...")
	}
	b.WriteString("\n")
}

// TokensCSS renders the tokens as CSS custom properties. Captured page
// variables follow in a second block.
func TokensCSS(t snapshot.DesignTokens, vars map[string]string) string {
	var b strings.Builder
	b.WriteString(":root {\n")
	groups := []struct {
		prefix string
		vals   []string
	}{
		{"color", t.Colors},
		{"palette", t.Palette},
		{"font-family", t.FontFamilies},
		{"font-size", t.FontSizes},
		{"font-weight", t.FontWeights},
		{"line-height", t.LineHeights},
		{"letter-spacing", t.LetterSpacings},
		{"spacing", t.Spacing},
		{"radius", t.Radii},
		{"shadow", t.Shadows},
		{"z", t.ZIndices},
	}
	for _, g := range groups {
		for i, v := range g.vals {
			fmt.Fprintf(&b, "  --%s-%d: %s;\n", g.prefix, i+1, v)
		}
	}
	b.WriteString("}\n")

	if len(vars) > 0 {
		b.WriteString("\n/* page custom properties */\n:root {\n")
		for _, k := range sortedKeys(vars) {
			name := k
			if !strings.HasPrefix(name, "--") {
				name = "--" + name
			}
			fmt.Fprintf(&b, "  %s: %s;\n", name, vars[k])
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// TailwindConfig renders a tailwind.config.js extending the theme with
// the captured tokens.
func TailwindConfig(t snapshot.DesignTokens) string {
	extend := map[string]any{}
	put := func(key, prefix string, vals []string, conv func(string) any) {
		if len(vals) == 0 {
			return
		}
		m := make(map[string]any, len(vals))
		for i, v := range vals {
			m[fmt.Sprintf("%s-%02d", prefix, i+1)] = conv(v)
		}
		extend[key] = m
	}
	str := func(v string) any { return v }

	colors := append(append([]string{}, t.Colors...), t.Palette...)
	put("colors", "brand", dedupe(colors), str)
	put("fontFamily", "font", t.FontFamilies, func(v string) any {
		var out []string
		for _, f := range strings.Split(v, ",") {
			if f = strings.Trim(strings.TrimSpace(f), `"'`); f != "" {
				out = append(out, f)
			}
		}
		return out
	})
	put("fontSize", "size", t.FontSizes, str)
	put("fontWeight", "weight", t.FontWeights, str)
	put("spacing", "space", t.Spacing, str)
	put("borderRadius", "radius", t.Radii, str)
	put("boxShadow", "shadow", t.Shadows, str)

	cfg := map[string]any{
		"content": []string{"./index.html"},
		"theme":   map[string]any{"extend": extend},
	}
	raw, _ := json.MarshalIndent(cfg, "", "  ")
	return "/** @type {import('tailwindcss').Config} */\nmodule.exports = " + string(raw) + ";\n"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
