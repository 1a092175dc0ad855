package sink

import (
	"context"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// ReportFunc is called for each finished report.
type ReportFunc func(ctx context.Context, r *snapshot.CaptureReport) error

// Callback delivers reports in-process.
type Callback struct {
	fn ReportFunc
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn ReportFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) SendReport(ctx context.Context, r *snapshot.CaptureReport) error {
	if c.fn != nil {
		return c.fn(ctx, r)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
