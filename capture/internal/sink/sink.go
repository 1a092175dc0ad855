// Package sink defines delivery backends for finished capture reports.
package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// Sink receives every finished report, successful or not.
type Sink interface {
	SendReport(ctx context.Context, r *snapshot.CaptureReport) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Router fans out reports to all configured sinks. One sink error does
// not block the others; errors are logged and the first is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

// Len reports the number of sinks.
func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) SendReport(ctx context.Context, rep *snapshot.CaptureReport) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.SendReport(ctx, rep); err != nil {
			r.logger.Warn("sink: send report failed", "id", rep.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
