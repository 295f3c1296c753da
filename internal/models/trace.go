package models

// TraceContext is the propagated span identity passed to specialists so
// their own spans attach under the orchestrator's causal graph.
// It is passed by value — specialists never receive a reference back into
// the orchestrator's process.
type TraceContext struct {
	TraceID      string `json:"trace_id"`
	ParentSpanID string `json:"parent_span_id"`
}
