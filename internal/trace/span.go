package trace

import (
	"context"

	"github.com/bobmcallan/careerforge/internal/interfaces"
	"github.com/google/uuid"
)

// NewSpanID returns a fresh span identifier. Span ids need not be
// deterministic — only the trace id they attach to matters for correlation.
func NewSpanID() string {
	return uuid.New().String()
}

// Tracer opens and flushes spans for one job's processing against a
// configured sink. A Tracer is owned by the goroutine/task handling a
// single job and is not shared across jobs.
type Tracer struct {
	sink    interfaces.Sink
	traceID string
}

// New returns a Tracer for jobID, deriving its trace id deterministically.
func New(sink interfaces.Sink, jobID string) *Tracer {
	return &Tracer{sink: sink, traceID: IDFor(jobID)}
}

// TraceID returns the trace identifier this tracer's spans all share.
func (t *Tracer) TraceID() string {
	return t.traceID
}

// Root opens the orchestrator's root span for this job, flushing it
// synchronously. It returns the new span's id, to be used as parent for
// subsequent specialist invocations.
func (t *Tracer) Root(ctx context.Context, name string, attrs map[string]string) string {
	spanID := NewSpanID()
	t.flush(ctx, interfaces.Span{
		TraceID:    t.traceID,
		SpanID:     spanID,
		Kind:       interfaces.SpanKindOrchestrator,
		Name:       name,
		Attributes: Truncate(attrs),
	})
	return spanID
}

// Child opens a child span under parentSpanID for one specialist
// invocation, flushing it synchronously, and returns the new span's id.
func (t *Tracer) Child(ctx context.Context, parentSpanID, name string, attrs map[string]string) string {
	spanID := NewSpanID()
	t.flush(ctx, interfaces.Span{
		TraceID:      t.traceID,
		SpanID:       spanID,
		ParentSpanID: parentSpanID,
		Kind:         interfaces.SpanKindSpecialist,
		Name:         name,
		Attributes:   Truncate(attrs),
	})
	return spanID
}

// flush writes span to the sink, swallowing any error. The failure policy
// is absolute: the control plane never fails a job over a trace-sink
// problem, unconfigured or unreachable alike.
func (t *Tracer) flush(ctx context.Context, span interfaces.Span) {
	if t.sink == nil {
		return
	}
	_ = t.sink.Flush(ctx, span)
}
