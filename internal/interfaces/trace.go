package interfaces

import "context"

// SpanKind distinguishes the root orchestrator span from specialist child
// spans in the emitted record.
type SpanKind string

const (
	SpanKindOrchestrator SpanKind = "orchestrator"
	SpanKindSpecialist   SpanKind = "specialist"
)

// Span is one flushed unit of trace data. Fields are pre-truncated
// by the caller before Flush is invoked — the sink never truncates.
type Span struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
	Kind         SpanKind
	Name         string
	Attributes   map[string]string
}

// Sink receives flushed trace spans. A Sink must never block the control
// plane on an unreachable backend — implementations return an error but
// callers treat trace failures as non-fatal.
type Sink interface {
	Flush(ctx context.Context, span Span) error
}
