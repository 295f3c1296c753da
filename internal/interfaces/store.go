// Package interfaces defines the seams between the orchestrator and its
// collaborators (job store, work queue, specialists, trace sink), following
// the teacher's interface-segregation style — one small interface per
// concern rather than one wide storage interface.
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bobmcallan/careerforge/internal/models"
)

// Sentinel lifecycle errors. Implementations must return these
// exact values (optionally wrapped with fmt.Errorf's %w) so callers can use
// errors.Is.
var (
	ErrNotFound          = errors.New("job not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrStoreUnavailable  = errors.New("job store unavailable")
)

// StatusUpdate carries the optional fields a status transition may set.
type StatusUpdate struct {
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// JobStore is the durable, linearizable-per-record job store.
type JobStore interface {
	// Create writes a new record in pending with a fresh id and
	// created_at=now, returning the assigned id.
	Create(ctx context.Context, owner string, kind models.JobKind, input json.RawMessage) (string, error)

	// Get returns the current snapshot of a job, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Job, error)

	// UpdateStatus performs a conditional transition. Returns
	// ErrIllegalTransition if the move is not permitted from the job's
	// current status. Idempotent when to equals the current status with
	// matching fields.
	UpdateStatus(ctx context.Context, id string, to models.JobStatus, update StatusUpdate) error

	// UpdatePayload overwrites one payload slot wholesale.
	UpdatePayload(ctx context.Context, id string, slot models.PayloadSlot, value json.RawMessage) error

	// ReadPayload returns one payload slot's current value, or nil if absent.
	ReadPayload(ctx context.Context, id string, slot models.PayloadSlot) (*json.RawMessage, error)

	// UpdateProgress sets the job's advisory progress field. Unlike
	// UpdateStatus, this is an unconditional write — progress never gates a
	// transition, so there is nothing to race against.
	UpdateProgress(ctx context.Context, id string, progress int) error
}
