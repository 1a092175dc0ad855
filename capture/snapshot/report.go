// CLAUDE:SUMMARY Data model of a page capture: network entries, assets, design tokens, styles, media, and the terminal CaptureReport.
// Package snapshot defines the data model produced by a page capture.
//
// A CaptureReport is the terminal aggregate of one capture session. Every
// sequence and mapping field is always present in its JSON form (empty
// array or object, never null) so downstream tooling can rely on a fixed
// schema.
package snapshot

import "time"

// NetworkEntry is one observed response. Immutable once recorded.
type NetworkEntry struct {
	URL          string            `json:"url"`
	Status       int               `json:"status"`
	ContentType  string            `json:"content_type"`
	Headers      map[string]string `json:"headers"`
	Category     Category          `json:"category"`
	ResourceType string            `json:"resource_type,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	SavedPath    string            `json:"saved_path,omitempty"`
	Size         int64             `json:"size,omitempty"`
	ThirdParty   bool              `json:"third_party"`
	FromCache    bool              `json:"from_cache,omitempty"`
	Source       AssetSource       `json:"source,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// AssetSource tells which stage produced an Asset.
type AssetSource string

const (
	SourceIntercept AssetSource = "intercept"
	SourceFetch     AssetSource = "fetch"
	SourceDOM       AssetSource = "dom"
)

// Asset is one persisted (or attempted) resource. Path is relative to the
// capture output root. Unresolved assets are in-memory references that were
// never retrieved.
type Asset struct {
	URL         string      `json:"url"`
	Category    Category    `json:"category"`
	Path        string      `json:"path,omitempty"`
	Size        int64       `json:"size"`
	ContentType string      `json:"content_type,omitempty"`
	Source      AssetSource `json:"source"`
	Unresolved  bool        `json:"unresolved,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Manifest groups assets by outcome. Available is keyed by category and
// holds an entry for every category.
type Manifest struct {
	Available  map[Category][]Asset `json:"available"`
	Failed     []Asset              `json:"failed"`
	Unresolved []Asset              `json:"unresolved"`
	Total      int                  `json:"total"`
}

// DesignTokens holds deduplicated style values. Colors keep first-seen
// order; FontSizes are sorted ascending by pixel magnitude.
type DesignTokens struct {
	Colors         []string `json:"colors"`
	FontFamilies   []string `json:"font_families"`
	FontSizes      []string `json:"font_sizes"`
	FontWeights    []string `json:"font_weights"`
	LineHeights    []string `json:"line_heights"`
	LetterSpacings []string `json:"letter_spacings"`
	Spacing        []string `json:"spacing"`
	Radii          []string `json:"border_radius"`
	Shadows        []string `json:"shadows"`
	Transitions    []string `json:"transitions"`
	Transforms     []string `json:"transforms"`
	ZIndices       []string `json:"z_indices"`
	Palette        []string `json:"palette"`
}

// Rect is an element's bounding box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// StyleSample is one element's layout and typography snapshot. Key is
// tag#id.class1.class2_index and is unique within a capture.
type StyleSample struct {
	Key     string            `json:"key"`
	Tag     string            `json:"tag"`
	ID      string            `json:"id,omitempty"`
	Classes []string          `json:"classes"`
	Rect    Rect              `json:"rect"`
	Styles  map[string]string `json:"styles"`
}

// Keyframe is one offset of a keyframes rule.
type Keyframe struct {
	Offset string `json:"offset"`
	Style  string `json:"style"`
}

// Keyframes is a reconstructed @keyframes rule.
type Keyframes struct {
	Name    string     `json:"name"`
	Frames  []Keyframe `json:"frames"`
	CSSText string     `json:"css_text,omitempty"`
	Sheet   string     `json:"sheet,omitempty"`
}

// MediaRule is an @media rule with its nested rule texts.
type MediaRule struct {
	Condition string   `json:"condition"`
	Rules     []string `json:"rules"`
	Sheet     string   `json:"sheet,omitempty"`
}

// FontFace is an @font-face declaration.
type FontFace struct {
	Family  string `json:"family"`
	Src     string `json:"src"`
	Weight  string `json:"weight,omitempty"`
	Style   string `json:"style,omitempty"`
	Display string `json:"display,omitempty"`
}

// VideoSource is one source of a video: the element's src, its
// currentSrc, or a nested <source> element.
type VideoSource struct {
	Src   string `json:"src"`
	Type  string `json:"type,omitempty"`
	Media string `json:"media,omitempty"`
	Blob  bool   `json:"blob,omitempty"`
}

// Video is the metadata of one <video> element.
type Video struct {
	Index          int           `json:"index"`
	Src            string        `json:"src"`
	CurrentSrc     string        `json:"current_src"`
	Poster         string        `json:"poster,omitempty"`
	Autoplay       bool          `json:"autoplay"`
	Loop           bool          `json:"loop"`
	Muted          bool          `json:"muted"`
	Controls       bool          `json:"controls"`
	PlaysInline    bool          `json:"plays_inline"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	RenderedWidth  float64       `json:"rendered_width"`
	RenderedHeight float64       `json:"rendered_height"`
	Duration       float64       `json:"duration"`
	Sources        []VideoSource `json:"sources"`
	Blob           bool          `json:"blob"`

	// Origin is "data-attribute" for a video referenced through
	// data-video-src or data-src on a non-video element.
	Origin string `json:"origin,omitempty"`
}

// BlobRef is an in-memory object reference found in the document. It is
// recorded for diagnostics and never retrieved.
type BlobRef struct {
	URL     string `json:"url"`
	Element string `json:"element,omitempty"`

	// Filled from the in-page object URL log when the page created the
	// reference after the hook was installed.
	Type     string `json:"type,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Segments int    `json:"segments,omitempty"`
	Bytes    int64  `json:"segment_bytes,omitempty"`
}

// AnimatedElement is an element whose animation or transition differs from
// the browser default.
type AnimatedElement struct {
	Selector   string `json:"selector"`
	Animation  string `json:"animation,omitempty"`
	Transition string `json:"transition,omitempty"`
}

// Screenshot references a PNG written for one viewport.
type Screenshot struct {
	Name     string `json:"name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Path     string `json:"path,omitempty"`
	FullPage bool   `json:"full_page,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Script is an external or inline script of the page.
type Script struct {
	URL    string `json:"url,omitempty"`
	Inline bool   `json:"inline"`
	Path   string `json:"path,omitempty"`
	Type   string `json:"type,omitempty"`
	Async  bool   `json:"async,omitempty"`
	Defer  bool   `json:"defer,omitempty"`
	Size   int    `json:"size"`
}

// PDFInfo describes the optional printed PDF.
type PDFInfo struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
	Size  int64  `json:"size"`
}

// PhaseRecord is one step of the capture timeline.
type PhaseRecord struct {
	Phase      Phase     `json:"phase"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// CaptureReport is the terminal aggregate of a capture session.
type CaptureReport struct {
	ID                   string                 `json:"id"`
	URL                  string                 `json:"url"`
	FinalURL             string                 `json:"final_url"`
	ExtractedAt          time.Time              `json:"extracted_at"`
	Title                string                 `json:"title"`
	Metadata             map[string]string      `json:"metadata"`
	DesignTokens         DesignTokens           `json:"design_tokens"`
	ComputedStyles       map[string]StyleSample `json:"computed_styles"`
	CSSVariables         map[string]string      `json:"css_variables"`
	Keyframes            []Keyframes            `json:"keyframes"`
	MediaQueries         []MediaRule            `json:"media_queries"`
	FontFaces            []FontFace             `json:"font_faces"`
	AnimatedElements     []AnimatedElement      `json:"animated_elements"`
	Videos               []Video                `json:"videos"`
	BlobReferences       []BlobRef              `json:"blob_references"`
	Assets               Manifest               `json:"assets"`
	Network              []NetworkEntry         `json:"network"`
	Screenshots          []Screenshot           `json:"screenshots"`
	Scripts              []Script               `json:"scripts"`
	Phases               []PhaseRecord          `json:"phases"`
	ExtractionErrors     map[string]string      `json:"extraction_errors"`
	PDF                  *PDFInfo               `json:"pdf,omitempty"`
	OutputDir            string                 `json:"output_dir"`
	NavigationIncomplete bool                   `json:"navigation_incomplete"`
	Error                string                 `json:"error"`
}

// Status summarises the outcome: "failed" when a fatal error was attached,
// "partial" when navigation timed out or something was lost, "ok" otherwise.
func (r *CaptureReport) Status() string {
	switch {
	case r.Error != "":
		return "failed"
	case r.NavigationIncomplete, len(r.Assets.Failed) > 0, len(r.ExtractionErrors) > 0:
		return "partial"
	default:
		return "ok"
	}
}
