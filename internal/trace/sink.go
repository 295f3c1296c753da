package trace

import (
	"context"

	"github.com/bobmcallan/careerforge/internal/common"
	"github.com/bobmcallan/careerforge/internal/interfaces"
)

// NoopSink discards every span. NewSink returns it for every kind other
// than "log": an unconfigured trace sink must never affect job outcomes.
type NoopSink struct{}

// Flush implements interfaces.Sink.
func (NoopSink) Flush(context.Context, interfaces.Span) error { return nil }

// LoggingSink writes spans as structured log lines, correlated by trace id
// via the same WithCorrelationId mechanism the teacher uses to trace a
// request through all layers.
type LoggingSink struct {
	logger *common.Logger
}

// NewLoggingSink returns a Sink that writes spans through logger.
func NewLoggingSink(logger *common.Logger) *LoggingSink {
	return &LoggingSink{logger: logger}
}

// Flush implements interfaces.Sink.
func (s *LoggingSink) Flush(_ context.Context, span interfaces.Span) error {
	event := s.logger.WithCorrelationId(span.TraceID).Info().
		Str("span_id", span.SpanID).
		Str("kind", string(span.Kind)).
		Str("name", span.Name)
	if span.ParentSpanID != "" {
		event = event.Str("parent_span_id", span.ParentSpanID)
	}
	for k, v := range span.Attributes {
		event = event.Str(k, v)
	}
	event.Msg("trace span")
	return nil
}

// NewSink builds a Sink from a kind string ("noop" or "log"), per
// common.TraceConfig.Sink.
func NewSink(kind string, logger *common.Logger) interfaces.Sink {
	switch kind {
	case "log":
		return NewLoggingSink(logger)
	default:
		return NoopSink{}
	}
}
