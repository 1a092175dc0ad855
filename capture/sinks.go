package capture

import (
	"io"
	"log/slog"

	"github.com/hazyhaar/pagesnap/capture/internal/sink"
)

// Sink receives every finished report.
type Sink = sink.Sink

// ReportFunc is called for each finished report.
type ReportFunc = sink.ReportFunc

// NewStdoutSink creates a JSON-lines sink. Nil w means os.Stdout.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewCallbackSink creates an in-process sink.
func NewCallbackSink(fn ReportFunc) Sink {
	return sink.NewCallback(fn)
}

// SinksFromConfig builds the sinks listed in a configuration. Unknown types
// are rejected by config validation and skipped here.
func SinksFromConfig(cfgs []SinkConfig, logger *slog.Logger) []Sink {
	var out []Sink
	for _, c := range cfgs {
		switch c.Type {
		case "stdout":
			out = append(out, NewStdoutSink(nil))
		case "webhook":
			out = append(out, NewWebhookSink(c.URL, logger))
		}
	}
	return out
}
