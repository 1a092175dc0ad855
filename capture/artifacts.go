package capture

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/hazyhaar/pagesnap/capture/internal/tokens"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// Artifact names at the capture root.
const (
	FullScreenshotFile = "screenshot_full.png"
	PDFFile            = "page.pdf"
)

// ScreenshotFile is the file name of a viewport screenshot.
func ScreenshotFile(name string) string {
	return "screenshot_" + name + ".png"
}

func (r *run) viewports() []ViewportConfig {
	if len(r.req.Viewports) > 0 {
		return r.req.Viewports
	}
	return r.cfg.Viewports
}

// shoot takes one screenshot per viewport, in order, then one full-page
// screenshot at the last viewport. Failures are recorded per screenshot.
// The palette is computed from the full-page image, or the last viewport
// image when the full page failed.
func (r *run) shoot(ctx context.Context, sess Session) {
	var last []byte
	var lastVP ViewportConfig
	for _, vp := range r.viewports() {
		if ctx.Err() != nil {
			return
		}
		shot := snapshot.Screenshot{Name: vp.Name, Width: vp.Width, Height: vp.Height}
		png, err := r.shootOne(ctx, sess, vp)
		if err == nil {
			err = r.layout.WriteFile(ScreenshotFile(vp.Name), png)
		}
		if err != nil {
			shot.Error = err.Error()
			r.log.Warn("capture: screenshot failed", "viewport", vp.Name, "error", err)
		} else {
			shot.Path = ScreenshotFile(vp.Name)
			last, lastVP = png, vp
		}
		r.screenshots = append(r.screenshots, shot)
	}

	if !r.cfg.Output.NoFullPage && lastVP.Name != "" {
		full := snapshot.Screenshot{Name: "full", Width: lastVP.Width, Height: lastVP.Height, FullPage: true}
		png, err := sess.Screenshot(ctx, true)
		if err == nil {
			err = r.layout.WriteFile(FullScreenshotFile, png)
		}
		if err != nil {
			full.Error = err.Error()
			r.log.Warn("capture: full-page screenshot failed", "error", err)
		} else {
			full.Path = FullScreenshotFile
			last = png
		}
		r.screenshots = append(r.screenshots, full)
	}

	if len(last) > 0 {
		p, err := tokens.Palette(last, r.cfg.Extract.PaletteSize)
		if err != nil {
			r.log.Warn("capture: palette failed", "error", err)
		}
		r.palette = p
	}
}

func (r *run) shootOne(ctx context.Context, sess Session, vp ViewportConfig) ([]byte, error) {
	if err := sess.SetViewport(ctx, vp.Width, vp.Height); err != nil {
		return nil, err
	}
	t := time.NewTimer(r.cfg.Timeouts.ViewportPause)
	select {
	case <-ctx.Done():
		t.Stop()
		return nil, ctx.Err()
	case <-t.C:
	}
	return sess.Screenshot(ctx, false)
}

// printPDF writes page.pdf and records its page count. A PDF that pdfcpu
// cannot validate is kept with Pages = 0.
func (r *run) printPDF(ctx context.Context, sess Session) {
	data, err := sess.PDF(ctx)
	if err == nil {
		err = r.layout.WriteFile(PDFFile, data)
	}
	if err != nil {
		r.log.Warn("capture: pdf failed", "error", err)
		return
	}
	info := &snapshot.PDFInfo{Path: PDFFile, Size: int64(len(data))}
	pages, err := PDFPageCount(data)
	if err != nil {
		r.log.Warn("capture: pdf validation failed", "error", err)
	}
	info.Pages = pages
	r.pdf = info
}

// PDFPageCount validates a PDF and returns its page count.
func PDFPageCount(data []byte) (int, error) {
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("capture: pdf: %w", err)
	}
	return pctx.PageCount, nil
}
