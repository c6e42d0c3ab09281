package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanRecord is one exported span, one JSON object per line.
type spanRecord struct {
	Name       string         `json:"name"`
	TraceID    string         `json:"trace_id"`
	SpanID     string         `json:"span_id"`
	ParentID   string         `json:"parent_id,omitempty"`
	Start      time.Time      `json:"start"`
	DurationMS float64        `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// JSONExporter writes finished spans as JSON lines.
type JSONExporter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ sdktrace.SpanExporter = (*JSONExporter)(nil)

// NewJSONExporter creates an exporter writing to w.
func NewJSONExporter(w io.Writer) *JSONExporter {
	return &JSONExporter{enc: json.NewEncoder(w)}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *JSONExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range spans {
		rec := spanRecord{
			Name:       s.Name(),
			TraceID:    s.SpanContext().TraceID().String(),
			SpanID:     s.SpanContext().SpanID().String(),
			Start:      s.StartTime(),
			DurationMS: float64(s.EndTime().Sub(s.StartTime()).Microseconds()) / 1000,
		}
		if p := s.Parent(); p.IsValid() {
			rec.ParentID = p.SpanID().String()
		}
		if s.Status().Code == codes.Error {
			rec.Error = s.Status().Description
		}
		if attrs := s.Attributes(); len(attrs) > 0 {
			rec.Attributes = make(map[string]any, len(attrs))
			for _, kv := range attrs {
				rec.Attributes[string(kv.Key)] = kv.Value.AsInterface()
			}
		}
		if err := e.enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *JSONExporter) Shutdown(_ context.Context) error {
	return nil
}

// Setup installs a global tracer provider. With a nil w spans are recorded
// but not exported. The returned function flushes and shuts it down.
func Setup(w io.Writer) func(context.Context) error {
	var opts []sdktrace.TracerProviderOption
	if w != nil {
		opts = append(opts, sdktrace.WithSyncer(NewJSONExporter(w)))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
