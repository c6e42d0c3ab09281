package telemetry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/tola/internal/adapters/telemetry"
	"go.trai.ch/tola/internal/core/ports"
)

func newRecordingTracer(t *testing.T) (*telemetry.OTelTracer, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return telemetry.NewOTelTracerWithProvider(tp, "test"), sr
}

func TestOTelTracer_StartAppliesAttributes(t *testing.T) {
	tracer, sr := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), "job",
		ports.WithAttribute("target", "/site/content/a.typ"),
		ports.WithAttribute("attempts", 2),
	)
	span.SetAttribute("shared", true)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "job", ended[0].Name())
	attrs := ended[0].Attributes()
	assert.Contains(t, attrs, attribute.String("target", "/site/content/a.typ"))
	assert.Contains(t, attrs, attribute.Int("attempts", 2))
	assert.Contains(t, attrs, attribute.Bool("shared", true))
}

func TestOTelTracer_EmitPlan(t *testing.T) {
	tracer, sr := newRecordingTracer(t)

	ctx, span := tracer.Start(context.Background(), "submit")
	tracer.EmitPlan(ctx, []string{"a.typ", "b.typ"})
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	events := ended[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "plan_emitted", events[0].Name)
	assert.Contains(t, events[0].Attributes, attribute.StringSlice("targets", []string{"a.typ", "b.typ"}))
}

func TestOTelTracer_EmitPlanWithoutSpan(t *testing.T) {
	tracer, sr := newRecordingTracer(t)
	tracer.EmitPlan(context.Background(), []string{"a.typ"})
	assert.Empty(t, sr.Ended())
}

func TestOTelSpan_RecordError(t *testing.T) {
	tracer, sr := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), "job")
	span.RecordError(nil)
	span.RecordError(errors.New("boom"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestOTelSpan_Write(t *testing.T) {
	tracer, sr := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), "job")
	n, err := span.Write([]byte("warning: unused import"))
	require.NoError(t, err)
	assert.Equal(t, 22, n)
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "log", events[0].Name)
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(telemetry.NewJSONExporter(&buf)))
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	ctx, parent := tracer.Start(context.Background(), "submit")
	_, child := tracer.Start(ctx, "job", ports.WithAttribute("target", "a.typ"))
	child.RecordError(errors.New("compile failed"))
	child.End()
	parent.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var job, submit map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &job))
	require.NoError(t, json.Unmarshal(lines[1], &submit))

	assert.Equal(t, "job", job["name"])
	assert.Equal(t, "compile failed", job["error"])
	assert.Equal(t, submit["span_id"], job["parent_id"])
	assert.Equal(t, map[string]any{"target": "a.typ"}, job["attributes"])
	assert.NotContains(t, submit, "parent_id")
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	got, span := tracer.Start(ctx, "noop", ports.WithAttribute("k", "v"))
	assert.Equal(t, ctx, got)
	tracer.EmitPlan(got, []string{"x"})
	span.SetAttribute("k", 1)
	span.RecordError(errors.New("ignored"))
	n, err := span.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	span.End()
}
