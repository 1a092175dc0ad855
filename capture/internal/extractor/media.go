package extractor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hazyhaar/pagesnap/capture/internal/classify"
	"github.com/hazyhaar/pagesnap/capture/internal/tokens"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

type rawVideo struct {
	Index          int     `json:"index"`
	Src            string  `json:"src"`
	CurrentSrc     string  `json:"currentSrc"`
	Poster         string  `json:"poster"`
	Autoplay       bool    `json:"autoplay"`
	Loop           bool    `json:"loop"`
	Muted          bool    `json:"muted"`
	Controls       bool    `json:"controls"`
	PlaysInline    bool    `json:"playsInline"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	RenderedWidth  float64 `json:"renderedWidth"`
	RenderedHeight float64 `json:"renderedHeight"`
	Duration       float64 `json:"duration"`
	Sources        []struct {
		Src   string `json:"src"`
		Type  string `json:"type"`
		Media string `json:"media"`
	} `json:"sources"`
	Error string `json:"error"`
}

type rawObjectURL struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Segments int    `json:"segments"`
	Bytes    int64  `json:"bytes"`
}

type rawVideos struct {
	Videos     []rawVideo `json:"videos"`
	DataVideos []struct {
		Tag string `json:"tag"`
		Src string `json:"src"`
	} `json:"dataVideos"`
	ObjectURLs []rawObjectURL `json:"objectURLs"`
}

// Videos reads every <video> element and every element pointing at a video
// through data-video-src or data-src. A video's Sources merge its src,
// currentSrc and nested <source> elements, deduplicated in that order.
//
// Sources using the blob: scheme are flagged and returned as BlobRefs; they
// are never fetched. When the page created object URLs after the browser
// installed its hook, their type, size and MediaSource segment counts are
// attached to the matching BlobRef. Elements whose metadata could not be
// read are dropped individually.
func Videos(ctx context.Context, ev Evaluator) ([]snapshot.Video, []snapshot.BlobRef, error) {
	var raw rawVideos
	if err := evalJSON(ctx, ev, NameVideos, videosJS, &raw); err != nil {
		return nil, nil, err
	}
	videos := make([]snapshot.Video, 0, len(raw.Videos)+len(raw.DataVideos))
	var blobs []snapshot.BlobRef
	blobAt := map[string]int{}
	addBlob := func(u, el string) {
		if _, ok := blobAt[u]; ok {
			return
		}
		blobAt[u] = len(blobs)
		blobs = append(blobs, snapshot.BlobRef{URL: u, Element: el})
	}

	next := 0
	for _, r := range raw.Videos {
		if r.Index >= next {
			next = r.Index + 1
		}
		if r.Error != "" {
			continue
		}
		v := snapshot.Video{
			Index:          r.Index,
			Src:            r.Src,
			CurrentSrc:     r.CurrentSrc,
			Poster:         r.Poster,
			Autoplay:       r.Autoplay,
			Loop:           r.Loop,
			Muted:          r.Muted,
			Controls:       r.Controls,
			PlaysInline:    r.PlaysInline,
			Width:          r.Width,
			Height:         r.Height,
			RenderedWidth:  r.RenderedWidth,
			RenderedHeight: r.RenderedHeight,
			Duration:       r.Duration,
			Sources:        []snapshot.VideoSource{},
		}
		elem := "video[" + strconv.Itoa(r.Index) + "]"
		seen := map[string]bool{}
		add := func(src snapshot.VideoSource, el string) {
			if src.Src == "" || seen[src.Src] {
				return
			}
			seen[src.Src] = true
			src.Blob = snapshot.IsBlobURL(src.Src)
			if src.Blob {
				v.Blob = true
				addBlob(src.Src, el)
			}
			v.Sources = append(v.Sources, src)
		}
		add(snapshot.VideoSource{Src: r.Src}, elem)
		add(snapshot.VideoSource{Src: r.CurrentSrc}, elem)
		for j, s := range r.Sources {
			add(snapshot.VideoSource{Src: s.Src, Type: s.Type, Media: s.Media}, fmt.Sprintf("%s > source[%d]", elem, j))
		}
		videos = append(videos, v)
	}

	for _, d := range raw.DataVideos {
		blob := snapshot.IsBlobURL(d.Src)
		if !blob && classify.Classify(d.Src, "") != snapshot.CategoryVideo {
			continue
		}
		v := snapshot.Video{
			Index:   next,
			Src:     d.Src,
			Sources: []snapshot.VideoSource{{Src: d.Src, Blob: blob}},
			Blob:    blob,
			Origin:  "data-attribute",
		}
		if blob {
			addBlob(d.Src, d.Tag+"[data-src]")
		}
		next++
		videos = append(videos, v)
	}

	for _, o := range raw.ObjectURLs {
		i, ok := blobAt[o.URL]
		if !ok {
			if o.Type != "MediaSource" && !strings.HasPrefix(o.Type, "video/") {
				continue
			}
			addBlob(o.URL, "")
			i = blobAt[o.URL]
		}
		b := &blobs[i]
		b.Type, b.Size, b.Segments, b.Bytes = o.Type, o.Size, o.Segments, o.Bytes
	}
	return videos, blobs, nil
}

// Animated returns elements whose animation or transition differs from the
// browser's "none" baseline, up to max entries.
func Animated(ctx context.Context, ev Evaluator, max int) ([]snapshot.AnimatedElement, error) {
	js := strings.Replace(animatedJS, "__MAX_ANIMATED__", strconv.Itoa(max), 1)
	var raw []snapshot.AnimatedElement
	if err := evalJSON(ctx, ev, NameAnimated, js, &raw); err != nil {
		return nil, err
	}
	out := make([]snapshot.AnimatedElement, 0, len(raw))
	for _, a := range raw {
		if tokens.IsDefaultAnimation(a.Animation) {
			a.Animation = ""
		}
		if tokens.IsDefaultTransition(a.Transition) {
			a.Transition = ""
		}
		if a.Animation == "" && a.Transition == "" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
