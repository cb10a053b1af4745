package driver

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// TraceEntry is one request/response exchange with a provider.
type TraceEntry struct {
	Timestamp  time.Time       `json:"timestamp"`
	Driver     string          `json:"driver"`
	Model      string          `json:"model,omitempty"`
	PromptSlug string          `json:"prompt_slug,omitempty"`
	Request    json.RawMessage `json:"request,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	Response   json.RawMessage `json:"response,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

// Tracer appends entries as NDJSON.
type Tracer struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewTracer wraps w. Closing the tracer closes w.
func NewTracer(w io.WriteCloser) *Tracer {
	return &Tracer{w: w}
}

// Write records an entry; encoding errors are dropped.
func (t *Tracer) Write(entry TraceEntry) {
	if t == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		return
	}
	_, _ = t.w.Write(append(data, '\n'))
}

// Close releases the underlying writer.
func (t *Tracer) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		return nil
	}
	err := t.w.Close()
	t.w = nil
	return err
}

var (
	activeMu sync.Mutex
	active   *Tracer
)

// EnableTracing appends provider traces to path until the returned func is called.
func EnableTracing(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304 -- trace path is user-provided
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	SetTracer(NewTracer(f))
	return func() { SetTracer(nil) }, nil
}

// SetTracer replaces the active tracer, closing the previous one.
func SetTracer(t *Tracer) {
	activeMu.Lock()
	prev := active
	active = t
	activeMu.Unlock()
	if prev != nil && prev != t {
		_ = prev.Close()
	}
}

// Trace records an entry on the active tracer, if any.
func Trace(entry TraceEntry) {
	activeMu.Lock()
	t := active
	activeMu.Unlock()
	t.Write(entry)
}
