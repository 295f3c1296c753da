package surrealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bobmcallan/careerforge/internal/interfaces"
	"github.com/bobmcallan/careerforge/internal/models"
	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// jobSelectFields lists the fields to select from job, aliasing job_id to id
// for struct mapping — the same pattern the teacher's job_queue store uses.
const jobSelectFields = `job_id as id, owner, kind, status, progress, input,
	extractor_payload, analyzer_payload, interviewer_payload, charter_payload, summary_payload,
	error, created_at, started_at, completed_at`

// Create implements interfaces.JobStore.
func (s *Store) Create(ctx context.Context, owner string, kind models.JobKind, input json.RawMessage) (string, error) {
	id := uuid.New().String()
	now := time.Now()

	sql := `CREATE $rid SET
		job_id = $job_id, owner = $owner, kind = $kind, status = $status,
		progress = 0, input = $input, created_at = $created_at`
	vars := map[string]any{
		"rid":        surrealmodels.NewRecordID("job", id),
		"job_id":     id,
		"owner":      owner,
		"kind":       kind,
		"status":     models.JobStatusPending,
		"input":      input,
		"created_at": now,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return "", fmt.Errorf("%w: create job: %v", interfaces.ErrStoreUnavailable, err)
	}
	return id, nil
}

// Get implements interfaces.JobStore.
func (s *Store) Get(ctx context.Context, id string) (*models.Job, error) {
	sql := "SELECT " + jobSelectFields + " FROM $rid"
	vars := map[string]any{"rid": surrealmodels.NewRecordID("job", id)}

	results, err := surrealdb.Query[[]models.Job](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: get job: %v", interfaces.ErrStoreUnavailable, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, interfaces.ErrNotFound
	}
	job := (*results)[0].Result[0]
	return &job, nil
}

// requiredPredecessor returns the single legal prior status for to, per the
// state machine in models.CanTransition. The zero value means to itself is
// never a legal transition target.
func requiredPredecessor(to models.JobStatus) models.JobStatus {
	switch to {
	case models.JobStatusProcessing:
		return models.JobStatusPending
	case models.JobStatusCompleted, models.JobStatusFailed:
		return models.JobStatusProcessing
	default:
		return ""
	}
}

// UpdateStatus implements interfaces.JobStore. The conditional
// UPDATE ... WHERE status = $from is the sole arbiter of whether the
// transition is legal — there is no speculative read-then-decide step, so
// two workers racing to claim the same pending→processing transition cannot
// both succeed (mirrors the teacher's Dequeue atomic-claim pattern).
func (s *Store) UpdateStatus(ctx context.Context, id string, to models.JobStatus, update interfaces.StatusUpdate) error {
	from := requiredPredecessor(to)
	if from == "" {
		return interfaces.ErrIllegalTransition
	}

	// started_at/completed_at are only ever set by the transition that owns
	// them (pending→processing sets started_at; processing→{completed,
	// failed} sets completed_at) — the other field is left untouched so a
	// terminal transition never clobbers the started_at a prior claim wrote.
	sql := `UPDATE $rid SET status = $to, error = $error`
	vars := map[string]any{
		"rid":   surrealmodels.NewRecordID("job", id),
		"to":    to,
		"from":  from,
		"error": update.Error,
	}
	if to == models.JobStatusProcessing {
		sql += `, started_at = $started_at`
		vars["started_at"] = update.StartedAt
	} else {
		sql += `, completed_at = $completed_at`
		vars["completed_at"] = update.CompletedAt
	}
	sql += ` WHERE status = $from`

	results, err := surrealdb.Query[[]models.Job](ctx, s.db, sql, vars)
	if err != nil {
		return fmt.Errorf("%w: update status: %v", interfaces.ErrStoreUnavailable, err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return nil
	}

	// The conditional write matched nothing — find out why, without this
	// read influencing the write decision that already happened above.
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == to && current.Error == update.Error {
		// idempotent only for a retry of the same transition: the timestamp it
		// sets must match, so a second, independent claim still loses.
		if to == models.JobStatusProcessing && current.StartedAt.Equal(update.StartedAt) {
			return nil
		}
		if to != models.JobStatusProcessing && current.CompletedAt.Equal(update.CompletedAt) {
			return nil
		}
	}
	return interfaces.ErrIllegalTransition
}

// UpdatePayload implements interfaces.JobStore. The new value wholesale
// replaces any prior one — this is a plain SET, never a merge.
func (s *Store) UpdatePayload(ctx context.Context, id string, slot models.PayloadSlot, value json.RawMessage) error {
	field, err := payloadField(slot)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf("UPDATE $rid SET %s = $value", field)
	vars := map[string]any{
		"rid":   surrealmodels.NewRecordID("job", id),
		"value": value,
	}

	if _, err := surrealdb.Query[[]models.Job](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("%w: update payload %s: %v", interfaces.ErrStoreUnavailable, slot, err)
	}
	return nil
}

// ReadPayload implements interfaces.JobStore.
func (s *Store) ReadPayload(ctx context.Context, id string, slot models.PayloadSlot) (*json.RawMessage, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return job.Payload(slot), nil
}

// UpdateProgress implements interfaces.JobStore. An unconditional SET: no
// status precondition applies, since progress is advisory only.
func (s *Store) UpdateProgress(ctx context.Context, id string, progress int) error {
	sql := `UPDATE $rid SET progress = $progress`
	vars := map[string]any{
		"rid":      surrealmodels.NewRecordID("job", id),
		"progress": progress,
	}
	if _, err := surrealdb.Query[[]models.Job](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("%w: update progress: %v", interfaces.ErrStoreUnavailable, err)
	}
	return nil
}

func payloadField(slot models.PayloadSlot) (string, error) {
	switch slot {
	case models.SlotExtractor, models.SlotAnalyzer, models.SlotInterviewer, models.SlotCharter, models.SlotSummary:
		return string(slot), nil
	default:
		return "", fmt.Errorf("unknown payload slot: %s", slot)
	}
}

var _ interfaces.JobStore = (*Store)(nil)
