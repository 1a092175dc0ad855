// CLAUDE:SUMMARY Writes capture reports as JSON lines to an io.Writer (defaults to stdout).
package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// Stdout writes one {"type":"report","data":...} line per report.
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) SendReport(_ context.Context, r *snapshot.CaptureReport) error {
	r.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(envelope{Type: "report", Data: r})
}

func (s *Stdout) Close() error { return nil }
