package trace

import "fmt"

// maxFieldChars and maxSequenceElements are the truncation budgets for traced
// values. Tracer applies TruncateString to every span attribute before it
// hands the span to a sink; sinks themselves never truncate.
const (
	maxFieldChars      = 2000
	maxSequenceElements = 10
)

// TruncateString caps s at maxFieldChars characters (runes), appending a
// marker noting the original length when it is cut.
func TruncateString(s string) string {
	runes := []rune(s)
	if len(runes) <= maxFieldChars {
		return s
	}
	return fmt.Sprintf("%s… [truncated, total %d chars]", string(runes[:maxFieldChars]), len(runes))
}

// Truncate applies TruncateString to every value in attrs, returning a new
// map so callers never mutate a caller-owned attribute set.
func Truncate(attrs map[string]string) map[string]string {
	if attrs == nil {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = TruncateString(v)
	}
	return out
}

// TruncateSequence caps a sequence at maxSequenceElements, returning the
// truncated slice and whether truncation occurred.
func TruncateSequence[T any](seq []T) ([]T, bool) {
	if len(seq) <= maxSequenceElements {
		return seq, false
	}
	return seq[:maxSequenceElements], true
}
