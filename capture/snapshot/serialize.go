package snapshot

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a UUIDv7 string, time-sortable.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// IsBlobURL reports whether u is an in-memory object reference that cannot
// be fetched independently of the page that created it.
func IsBlobURL(u string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(u)), "blob:")
}

// IsRetrievable reports whether u can be fetched outside the browser.
func IsRetrievable(u string) bool {
	l := strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Normalize replaces nil sequences and mappings with empty ones so the JSON
// form keeps a fixed schema.
func (r *CaptureReport) Normalize() {
	if r.Metadata == nil {
		r.Metadata = map[string]string{}
	}
	if r.ComputedStyles == nil {
		r.ComputedStyles = map[string]StyleSample{}
	}
	if r.CSSVariables == nil {
		r.CSSVariables = map[string]string{}
	}
	if r.ExtractionErrors == nil {
		r.ExtractionErrors = map[string]string{}
	}
	if r.Keyframes == nil {
		r.Keyframes = []Keyframes{}
	}
	if r.MediaQueries == nil {
		r.MediaQueries = []MediaRule{}
	}
	if r.FontFaces == nil {
		r.FontFaces = []FontFace{}
	}
	if r.AnimatedElements == nil {
		r.AnimatedElements = []AnimatedElement{}
	}
	if r.Videos == nil {
		r.Videos = []Video{}
	}
	for i := range r.Videos {
		if r.Videos[i].Sources == nil {
			r.Videos[i].Sources = []VideoSource{}
		}
	}
	if r.BlobReferences == nil {
		r.BlobReferences = []BlobRef{}
	}
	if r.Network == nil {
		r.Network = []NetworkEntry{}
	}
	for i := range r.Network {
		if r.Network[i].Headers == nil {
			r.Network[i].Headers = map[string]string{}
		}
	}
	if r.Screenshots == nil {
		r.Screenshots = []Screenshot{}
	}
	if r.Scripts == nil {
		r.Scripts = []Script{}
	}
	if r.Phases == nil {
		r.Phases = []PhaseRecord{}
	}
	r.DesignTokens.Normalize()
	r.Assets.Normalize()
}

// Normalize replaces nil token sequences with empty ones.
func (t *DesignTokens) Normalize() {
	for _, p := range []*[]string{
		&t.Colors, &t.FontFamilies, &t.FontSizes, &t.FontWeights,
		&t.LineHeights, &t.LetterSpacings, &t.Spacing, &t.Radii,
		&t.Shadows, &t.Transitions, &t.Transforms, &t.ZIndices, &t.Palette,
	} {
		if *p == nil {
			*p = []string{}
		}
	}
}

// Normalize ensures every category has an Available slot.
func (m *Manifest) Normalize() {
	if m.Available == nil {
		m.Available = make(map[Category][]Asset, len(allCategories))
	}
	for _, c := range allCategories {
		if m.Available[c] == nil {
			m.Available[c] = []Asset{}
		}
	}
	if m.Failed == nil {
		m.Failed = []Asset{}
	}
	if m.Unresolved == nil {
		m.Unresolved = []Asset{}
	}
}

// MarshalReport serialises a report with indentation, normalising first.
func MarshalReport(r *CaptureReport) ([]byte, error) {
	r.Normalize()
	return json.MarshalIndent(r, "", "  ")
}

// UnmarshalReport deserialises a report.
func UnmarshalReport(data []byte) (*CaptureReport, error) {
	var r CaptureReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	r.Normalize()
	return &r, nil
}
