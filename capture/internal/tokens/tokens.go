// CLAUDE:SUMMARY Owned design-token accumulator: ordered dedup sets, rgb()->hex color normalisation, numeric font-size ordering.
// Package tokens accumulates design tokens from computed style values.
//
// An Accumulator is owned by one extraction pass and merged once at the
// end; it is not safe for concurrent use.
package tokens

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// orderedSet keeps first-seen order and rejects duplicates.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func (s *orderedSet) add(v string) bool {
	if v == "" {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet) list() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Accumulator collects deduplicated token values.
type Accumulator struct {
	colors, families, sizes, weights, lineHeights, letterSpacings orderedSet
	spacing, radii, shadows, transitions, transforms, zIndices    orderedSet
	palette                                                       orderedSet
}

// New returns an empty Accumulator.
func New() *Accumulator { return &Accumulator{} }

// AddColor normalises and records a color. Transparent values are dropped.
func (a *Accumulator) AddColor(raw string) {
	if c, ok := NormalizeColor(raw); ok {
		a.colors.add(c)
	}
}

// AddFontFamily records the font-family list as declared.
func (a *Accumulator) AddFontFamily(v string) { a.families.add(clean(v)) }

// AddFontSize records a font size.
func (a *Accumulator) AddFontSize(v string) { a.sizes.add(clean(v)) }

// AddFontWeight records a font weight.
func (a *Accumulator) AddFontWeight(v string) { a.weights.add(clean(v)) }

// AddLineHeight records a line height, ignoring "normal".
func (a *Accumulator) AddLineHeight(v string) { a.lineHeights.add(skip(v, "normal")) }

// AddLetterSpacing records a letter spacing, ignoring "normal".
func (a *Accumulator) AddLetterSpacing(v string) { a.letterSpacings.add(skip(v, "normal")) }

// AddSpacing records a padding/margin/gap value, ignoring zero and auto.
func (a *Accumulator) AddSpacing(v string) { a.spacing.add(skip(v, "0px", "auto", "normal", "0px 0px", "0px 0px 0px 0px")) }

// AddRadius records a border radius, ignoring zero.
func (a *Accumulator) AddRadius(v string) { a.radii.add(skip(v, "0px")) }

// AddShadow records a box shadow, ignoring none.
func (a *Accumulator) AddShadow(v string) { a.shadows.add(skip(v, "none")) }

// AddTransition records a transition descriptor, ignoring the browser default.
func (a *Accumulator) AddTransition(v string) {
	if IsDefaultTransition(v) {
		return
	}
	a.transitions.add(clean(v))
}

// AddTransform records a transform, ignoring none.
func (a *Accumulator) AddTransform(v string) { a.transforms.add(skip(v, "none")) }

// AddZIndex records a z-index, ignoring auto.
func (a *Accumulator) AddZIndex(v string) { a.zIndices.add(skip(v, "auto")) }

// AddPaletteColor records a dominant color from a rendered screenshot.
func (a *Accumulator) AddPaletteColor(hex string) { a.palette.add(strings.ToLower(clean(hex))) }

// Tokens materialises the accumulated sets. Font sizes are sorted ascending
// by pixel magnitude; everything else keeps first-seen order.
func (a *Accumulator) Tokens() snapshot.DesignTokens {
	t := snapshot.DesignTokens{
		Colors:         a.colors.list(),
		FontFamilies:   a.families.list(),
		FontSizes:      SortFontSizes(a.sizes.list()),
		FontWeights:    a.weights.list(),
		LineHeights:    a.lineHeights.list(),
		LetterSpacings: a.letterSpacings.list(),
		Spacing:        a.spacing.list(),
		Radii:          a.radii.list(),
		Shadows:        a.shadows.list(),
		Transitions:    a.transitions.list(),
		Transforms:     a.transforms.list(),
		ZIndices:       a.zIndices.list(),
		Palette:        a.palette.list(),
	}
	t.Normalize()
	return t
}

func clean(v string) string { return strings.TrimSpace(v) }

func skip(v string, ignored ...string) string {
	v = clean(v)
	for _, i := range ignored {
		if v == i {
			return ""
		}
	}
	return v
}

// IsDefaultTransition reports whether v is the computed-style baseline that
// means "no transition".
func IsDefaultTransition(v string) bool {
	v = clean(v)
	switch v {
	case "", "none", "all", "all 0s", "all 0s ease 0s", "none 0s ease 0s", "all 0s ease":
		return true
	}
	return false
}

// IsDefaultAnimation reports whether v is the computed-style baseline that
// means "no animation".
func IsDefaultAnimation(v string) bool {
	v = clean(v)
	if v == "" || v == "none" {
		return true
	}
	return strings.HasPrefix(v, "none 0s") || strings.HasSuffix(v, " none") && strings.HasPrefix(v, "0s ")
}

// NormalizeColor converts rgb()/rgba() to #rrggbb. Fully transparent
// values return ok=false. Unrecognised forms pass through unchanged.
func NormalizeColor(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	lv := strings.ToLower(v)
	if lv == "transparent" || lv == "none" || lv == "initial" || lv == "inherit" {
		return "", false
	}
	if !strings.HasPrefix(lv, "rgb") {
		return v, true
	}
	open := strings.IndexByte(lv, '(')
	closeIdx := strings.LastIndexByte(lv, ')')
	if open < 0 || closeIdx < open {
		return v, true
	}
	inner := lv[open+1 : closeIdx]
	// Both "r, g, b, a" and "r g b / a" forms.
	inner = strings.ReplaceAll(inner, "/", " ")
	inner = strings.ReplaceAll(inner, ",", " ")
	parts := strings.Fields(inner)
	if len(parts) < 3 {
		return v, true
	}
	var rgb [3]int
	for i := 0; i < 3; i++ {
		n, ok := channel(parts[i])
		if !ok {
			return v, true
		}
		rgb[i] = n
	}
	if len(parts) >= 4 {
		alpha, ok := alphaValue(parts[3])
		if ok && alpha == 0 {
			return "", false
		}
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), true
}

func channel(s string) (int, bool) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp(int(math.Round(f * 255 / 100))), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp(int(math.Round(f))), true
}

func alphaValue(s string) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		return f / 100, err == nil
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}

// PixelValue converts a CSS length to pixels. Supports px, rem/em (16px
// base), pt and bare numbers. ok is false for anything else.
func PixelValue(v string) (float64, bool) {
	v = strings.ToLower(clean(v))
	mult := 1.0
	switch {
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "rem"):
		v, mult = strings.TrimSuffix(v, "rem"), 16
	case strings.HasSuffix(v, "em"):
		v, mult = strings.TrimSuffix(v, "em"), 16
	case strings.HasSuffix(v, "pt"):
		v, mult = strings.TrimSuffix(v, "pt"), 4.0/3.0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f * mult, true
}

// SortFontSizes orders sizes ascending by pixel magnitude. Values that do
// not parse keep their relative order after all numeric ones.
func SortFontSizes(sizes []string) []string {
	out := make([]string, len(sizes))
	copy(out, sizes)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := PixelValue(out[i])
		b, bok := PixelValue(out[j])
		switch {
		case aok && bok:
			return a < b
		case aok:
			return true
		default:
			return false
		}
	})
	return out
}
