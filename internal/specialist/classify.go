// Package specialist dispatches typed requests to the four specialist
// workers, owning retry/backoff and error classification.
package specialist

import (
	"context"
	"errors"
	"strings"
)

// Class is the error classification outcome.
type Class string

const (
	ClassTransient Class = "transient"
	ClassPermanent Class = "permanent"
)

// markerClass maps each classification marker to its class.
// Markers are matched as case-insensitive substrings of the error message,
// mirroring how the teacher's APIError messages embed a status/reason
// string rather than a discrete error code.
var markerClass = map[string]Class{
	"rate-limit": ClassTransient,
	"rate_limit": ClassTransient,
	"throttled":  ClassTransient,
	"transport":  ClassTransient,
	"timeout":    ClassTransient,
	"deadline":   ClassTransient,

	"validation": ClassPermanent,
	"bad-input":  ClassPermanent,
	"bad_input":  ClassPermanent,
	"internal":   ClassPermanent,
}

// ErrUnknownMarker names the no-marker-matches case. Classify returns only a
// Class and reports that case as ClassPermanent; it never returns this error.
var ErrUnknownMarker = errors.New("unknown error marker")

// Classify determines whether err should be retried or treated as a
// permanent step failure. context.DeadlineExceeded
// and context.Canceled are always transient (deadline/transport class).
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassTransient
	}
	msg := strings.ToLower(err.Error())
	for marker, class := range markerClass {
		if strings.Contains(msg, marker) {
			return class
		}
	}
	return ClassPermanent
}
