package extractor

import (
	"context"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// SheetData is what could be read from accessible stylesheets.
// Inaccessible lists sheets whose rules were blocked (cross-origin); they
// are skipped, not reported as errors.
type SheetData struct {
	Keyframes    []snapshot.Keyframes `json:"keyframes"`
	Media        []snapshot.MediaRule `json:"media"`
	FontFaces    []snapshot.FontFace  `json:"fontFaces"`
	Inaccessible []string             `json:"inaccessible"`
	SheetCount   int                  `json:"sheetCount"`
	RuleCount    int                  `json:"ruleCount"`
}

// Stylesheets reads keyframes, media and font-face rules from every
// stylesheet whose rule list is readable.
func Stylesheets(ctx context.Context, ev Evaluator) (*SheetData, error) {
	var s SheetData
	if err := evalJSON(ctx, ev, NameStylesheets, stylesheetsJS, &s); err != nil {
		return nil, err
	}
	if s.Keyframes == nil {
		s.Keyframes = []snapshot.Keyframes{}
	}
	for i := range s.Keyframes {
		if s.Keyframes[i].Frames == nil {
			s.Keyframes[i].Frames = []snapshot.Keyframe{}
		}
	}
	if s.Media == nil {
		s.Media = []snapshot.MediaRule{}
	}
	if s.FontFaces == nil {
		s.FontFaces = []snapshot.FontFace{}
	}
	if s.Inaccessible == nil {
		s.Inaccessible = []string{}
	}
	return &s, nil
}

// Variables returns CSS custom properties declared on :root/html, with the
// computed value taking precedence over the declared one.
func Variables(ctx context.Context, ev Evaluator) (map[string]string, error) {
	out := map[string]string{}
	if err := evalJSON(ctx, ev, NameVariables, variablesJS, &out); err != nil {
		return nil, err
	}
	return out, nil
}
