package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNavigationTimeout is returned by WaitIdle when the page did not reach
// network quiescence in time. The page is still usable.
var ErrNavigationTimeout = errors.New("browser: navigation timeout")

// objectURLHook runs before any page script. It logs every object URL the
// page creates into window.__pagesnapObjectURLs with the object's type and
// size, and counts the segments appended to each MediaSource. Nothing is
// copied out of the page.
const objectURLHook = `(() => {
	if (window.__pagesnapObjectURLs) return;
	const log = [];
	Object.defineProperty(window, "__pagesnapObjectURLs", { value: log });
	const tag = Symbol("pagesnap");
	const create = URL.createObjectURL;
	URL.createObjectURL = function (obj) {
		const url = create.apply(this, arguments);
		try {
			const ms = typeof MediaSource !== "undefined" && obj instanceof MediaSource;
			const e = { url: url, type: ms ? "MediaSource" : (obj && obj.type) || "", size: (obj && obj.size) || 0, segments: 0, bytes: 0 };
			if (log.length < 1000) log.push(e);
			if (ms) obj[tag] = e;
		} catch (err) {}
		return url;
	};
	if (typeof MediaSource === "undefined" || typeof SourceBuffer === "undefined") return;
	const addSourceBuffer = MediaSource.prototype.addSourceBuffer;
	MediaSource.prototype.addSourceBuffer = function () {
		const sb = addSourceBuffer.apply(this, arguments);
		try { sb[tag] = this[tag]; } catch (err) {}
		return sb;
	};
	const appendBuffer = SourceBuffer.prototype.appendBuffer;
	SourceBuffer.prototype.appendBuffer = function (data) {
		try {
			const e = this[tag];
			if (e) { e.segments++; e.bytes += (data && data.byteLength) || 0; }
		} catch (err) {}
		return appendBuffer.apply(this, arguments);
	};
})()`

// Tab wraps a Rod page with the operations a capture needs.
type Tab struct {
	Page   *rod.Page
	logger *slog.Logger
}

// Navigate loads url. It returns once the main frame has navigated; it
// does not wait for subresources.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	if err := t.Page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

// WaitIdle waits for the load event then for the network to stay idle for
// quiet. It returns ErrNavigationTimeout when timeout elapses first.
func (t *Tab) WaitIdle(ctx context.Context, timeout, quiet time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := t.Page.Context(wctx)
	if err := p.WaitLoad(); err != nil {
		if wctx.Err() != nil && ctx.Err() == nil {
			return ErrNavigationTimeout
		}
		return fmt.Errorf("browser: wait load: %w", err)
	}
	p.WaitRequestIdle(quiet, nil, nil, nil)()
	if wctx.Err() != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrNavigationTimeout
	}
	return nil
}

// ScrollSweep scrolls to the bottom and back in half-viewport steps,
// pausing between steps so lazy content can load. It stops at budget.
func (t *Tab) ScrollSweep(ctx context.Context, pause, budget time.Duration) error {
	deadline := time.Now().Add(budget)
	p := t.Page.Context(ctx)

	res, err := p.Eval(`() => JSON.stringify([document.documentElement.scrollHeight, window.innerHeight])`)
	if err != nil {
		return fmt.Errorf("browser: scroll metrics: %w", err)
	}
	var total, view int
	if _, err := fmt.Sscanf(res.Value.Str(), "[%d,%d]", &total, &view); err != nil || view <= 0 {
		return fmt.Errorf("browser: scroll metrics: %q", res.Value.Str())
	}
	step := view / 2
	if step < 1 {
		step = 1
	}

	var positions []int
	for y := 0; y < total; y += step {
		positions = append(positions, y)
	}
	for i := len(positions) - 1; i >= 0; i-- {
		positions = append(positions, positions[i])
	}
	positions = append(positions, 0)

	for _, y := range positions {
		if time.Now().After(deadline) {
			t.logger.Debug("browser: scroll sweep budget reached")
			break
		}
		if _, err := p.Eval(`(y) => window.scrollTo(0, y)`, y); err != nil {
			return fmt.Errorf("browser: scroll: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
	_, _ = p.Eval(`() => window.scrollTo(0, 0)`)
	return nil
}

// SetViewport emulates a device of the given size. Widths under 768 are
// emulated as mobile.
func (t *Tab) SetViewport(ctx context.Context, width, height int) error {
	err := t.Page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            width < 768,
	})
	if err != nil {
		return fmt.Errorf("browser: viewport %dx%d: %w", width, height, err)
	}
	return nil
}

// Screenshot captures the viewport, or the whole page when fullPage is set.
func (t *Tab) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	png, err := t.Page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return png, nil
}

// PDF prints the page with backgrounds.
func (t *Tab) PDF(ctx context.Context) ([]byte, error) {
	r, err := t.Page.Context(ctx).PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("browser: pdf: %w", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("browser: pdf read: %w", err)
	}
	return data, nil
}

// Eval runs a JS function expression and returns its value as a string.
func (t *Tab) Eval(ctx context.Context, js string) (string, error) {
	res, err := t.Page.Context(ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("browser: eval: %w", err)
	}
	return res.Value.Str(), nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
