package extractor

import (
	"context"
	"strconv"
	"strings"

	"github.com/hazyhaar/pagesnap/capture/internal/tokens"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

type rawTokens struct {
	Colors         []string `json:"colors"`
	FontFamilies   []string `json:"fontFamilies"`
	FontSizes      []string `json:"fontSizes"`
	FontWeights    []string `json:"fontWeights"`
	LineHeights    []string `json:"lineHeights"`
	LetterSpacings []string `json:"letterSpacings"`
	Spacing        []string `json:"spacing"`
	Radii          []string `json:"radii"`
	Shadows        []string `json:"shadows"`
	Transitions    []string `json:"transitions"`
	Transforms     []string `json:"transforms"`
	ZIndices       []string `json:"zIndices"`
}

type rawSample struct {
	Tag     string            `json:"tag"`
	ID      string            `json:"id"`
	Classes []string          `json:"classes"`
	Rect    snapshot.Rect     `json:"rect"`
	Styles  map[string]string `json:"styles"`
}

type rawStyles struct {
	Tokens       rawTokens   `json:"tokens"`
	Samples      []rawSample `json:"samples"`
	ElementCount int         `json:"elementCount"`
}

// Styles walks every element's computed style. Token candidates are fed
// into acc; the first maxSamples elements become StyleSamples.
func Styles(ctx context.Context, ev Evaluator, maxSamples int, acc *tokens.Accumulator) ([]snapshot.StyleSample, error) {
	js := strings.Replace(stylesJS, "__MAX_SAMPLES__", strconv.Itoa(maxSamples), 1)
	var raw rawStyles
	if err := evalJSON(ctx, ev, NameStyles, js, &raw); err != nil {
		return nil, err
	}
	feed(acc, raw.Tokens)

	samples := make([]snapshot.StyleSample, 0, len(raw.Samples))
	for i, s := range raw.Samples {
		if s.Classes == nil {
			s.Classes = []string{}
		}
		if s.Styles == nil {
			s.Styles = map[string]string{}
		}
		samples = append(samples, snapshot.StyleSample{
			Key:     SampleKey(s.Tag, s.ID, s.Classes, i),
			Tag:     s.Tag,
			ID:      s.ID,
			Classes: s.Classes,
			Rect:    s.Rect,
			Styles:  s.Styles,
		})
	}
	return samples, nil
}

func feed(acc *tokens.Accumulator, t rawTokens) {
	for _, v := range t.Colors {
		acc.AddColor(v)
	}
	for _, v := range t.FontFamilies {
		acc.AddFontFamily(v)
	}
	for _, v := range t.FontSizes {
		acc.AddFontSize(v)
	}
	for _, v := range t.FontWeights {
		acc.AddFontWeight(v)
	}
	for _, v := range t.LineHeights {
		acc.AddLineHeight(v)
	}
	for _, v := range t.LetterSpacings {
		acc.AddLetterSpacing(v)
	}
	for _, v := range t.Spacing {
		acc.AddSpacing(v)
	}
	for _, v := range t.Radii {
		acc.AddRadius(v)
	}
	for _, v := range t.Shadows {
		acc.AddShadow(v)
	}
	for _, v := range t.Transitions {
		acc.AddTransition(v)
	}
	for _, v := range t.Transforms {
		acc.AddTransform(v)
	}
	for _, v := range t.ZIndices {
		acc.AddZIndex(v)
	}
}

// SampleKey builds tag#id.cls1.cls2_index. The index makes keys unique
// for elements sharing tag, id and classes.
func SampleKey(tag, id string, classes []string, index int) string {
	var b strings.Builder
	b.WriteString(tag)
	if id != "" {
		b.WriteByte('#')
		b.WriteString(id)
	}
	for _, c := range classes {
		b.WriteByte('.')
		b.WriteString(c)
	}
	b.WriteByte('_')
	b.WriteString(strconv.Itoa(index))
	return b.String()
}
