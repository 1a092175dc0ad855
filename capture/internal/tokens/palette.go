package tokens

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/png"

	"github.com/EdlinOrg/prominentcolor"
)

// Palette returns the k most prominent colors of an encoded screenshot as
// #rrggbb strings, most prominent first. Background masks are tried first,
// then dropped if they eliminate everything.
func Palette(encoded []byte, k int) (out []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("tokens: kmeans panic: %v", rec)
		}
	}()
	if k <= 0 {
		k = prominentcolor.DefaultK
	}
	img, _, err := image.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("tokens: decode screenshot: %w", err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("tokens: empty screenshot")
	}
	nrgba := image.NewNRGBA(b)
	draw.Draw(nrgba, b, img, b.Min, draw.Src)

	// k-means++ seeding needs at least k distinct colors.
	if n := distinctColors(nrgba, k); n < k {
		k = n
	}

	items, err := prominentcolor.KmeansWithAll(k, nrgba, prominentcolor.ArgumentDefault,
		prominentcolor.DefaultSize, prominentcolor.GetDefaultMasks())
	if err != nil || len(items) == 0 {
		items, err = prominentcolor.KmeansWithAll(k, nrgba, prominentcolor.ArgumentDefault,
			prominentcolor.DefaultSize, nil)
		if err != nil {
			return nil, fmt.Errorf("tokens: kmeans: %w", err)
		}
	}
	out = make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, fmt.Sprintf("#%02x%02x%02x", uint8(it.Color.R), uint8(it.Color.G), uint8(it.Color.B)))
	}
	return out, nil
}

// distinctColors counts distinct pixel colors, stopping at limit.
func distinctColors(img *image.NRGBA, limit int) int {
	seen := make(map[[3]uint8]bool, limit)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		c := [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
		if !seen[c] {
			seen[c] = true
			if len(seen) >= limit {
				break
			}
		}
	}
	return len(seen)
}
