package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bobmcallan/careerforge/internal/interfaces"
	"github.com/bobmcallan/careerforge/internal/models"
	"github.com/bobmcallan/careerforge/internal/trace"
)

// workingContext carries the parsed profiles and analysis an in-flight
// job's plan steps read from and write to, kept in memory for the duration
// of one processJob call.
type workingContext struct {
	cvText      string
	jobText     string
	cvProfile   json.RawMessage
	jobProfile  json.RawMessage
	gapAnalysis json.RawMessage
}

// processJob executes one job from its current state to a terminal state.
// The returned ack reports whether the caller should acknowledge
// the queue message; err is for logging only — a non-nil err with ack=false
// means the failure was in the control plane's own infrastructure and the
// message should be left to redeliver.
func (o *Orchestrator) processJob(ctx context.Context, jobID string) (ack bool, err error) {
	job, err := o.store.Get(ctx, jobID)
	if errors.Is(err, interfaces.ErrNotFound) {
		o.logger.Warn().Str("job_id", jobID).Msg("job not found, treating as poison message")
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("load job %s: %w", jobID, err)
	}

	if models.IsTerminal(job.Status) {
		return true, nil
	}

	started := time.Now()
	err = o.store.UpdateStatus(ctx, jobID, models.JobStatusProcessing, interfaces.StatusUpdate{StartedAt: started})
	if errors.Is(err, interfaces.ErrIllegalTransition) {
		o.logger.Debug().Str("job_id", jobID).Msg("another worker already claimed this job")
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim job %s: %w", jobID, err)
	}
	o.setProgress(ctx, jobID, 10)

	input, decErr := models.DecodeInput(job.Input)
	if decErr != nil {
		o.finalize(ctx, jobID, job.Kind, fmt.Sprintf("validation: malformed input: %s", decErr))
		return true, nil
	}

	budgetCtx, cancel := context.WithTimeout(ctx, o.jobBudget)
	defer cancel()

	tracer := trace.New(o.sink, jobID)
	rootSpanID := tracer.Root(budgetCtx, "orchestrator", map[string]string{
		"kind":            string(job.Kind),
		"has_cv_text":     strconv.FormatBool(input.HasCVText()),
		"has_job_text":    strconv.FormatBool(input.HasJobText()),
		"has_cv_profile":  strconv.FormatBool(input.HasCVProfile()),
		"has_job_profile": strconv.FormatBool(input.HasJobProfile()),
	})

	plan, planErr := buildPlan(job.Kind, input)
	if planErr != nil {
		o.finalize(ctx, jobID, job.Kind, planErr.Error())
		return true, nil
	}

	wc := &workingContext{
		cvText:      input.CVText,
		jobText:     input.JobText,
		cvProfile:   input.CVProfile,
		jobProfile:  input.JobProfile,
		gapAnalysis: input.GapAnalysis,
	}

	jobErr := o.runPlan(budgetCtx, jobID, plan, input, wc, tracer, rootSpanID)

	if jobErr == nil && job.Kind == models.JobKindFullAnalysis {
		jobErr = o.enforceInterviewerStep(budgetCtx, jobID, input, wc, tracer, rootSpanID)
	}

	var failMsg string
	if jobErr != nil {
		if errors.Is(jobErr, context.DeadlineExceeded) {
			failMsg = "timeout"
		} else {
			failMsg = jobErr.Error()
		}
	}

	if err := o.finalize(ctx, jobID, job.Kind, failMsg); err != nil {
		return false, fmt.Errorf("finalize job %s: %w", jobID, err)
	}
	return true, nil
}

// runPlan executes plan's steps in order, stopping at the first failure —
// a failed mandatory step fails the whole job. Progress advances by an equal
// share of the 10-100 range after each completed step.
func (o *Orchestrator) runPlan(ctx context.Context, jobID string, plan []Step, input models.InputEnvelope, wc *workingContext, tracer *trace.Tracer, rootSpanID string) error {
	for i, step := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.executeStep(ctx, jobID, step, input, wc, tracer, rootSpanID); err != nil {
			return err
		}
		o.setProgress(ctx, jobID, 10+((i+1)*90)/len(plan))
	}
	return nil
}

// setProgress writes the job's advisory progress field, logging but never
// failing the job on error — progress is never read by a control-plane
// decision.
func (o *Orchestrator) setProgress(ctx context.Context, jobID string, progress int) {
	if err := o.store.UpdateProgress(ctx, jobID, progress); err != nil {
		o.logger.Warn().Str("job_id", jobID).Err(err).Msg("failed to update job progress")
	}
}

// enforceInterviewerStep makes the interviewer mandatory for full_analysis:
// re-read interviewer_payload after the plan finishes and invoke the interviewer
// directly if the planner omitted it.
func (o *Orchestrator) enforceInterviewerStep(ctx context.Context, jobID string, input models.InputEnvelope, wc *workingContext, tracer *trace.Tracer, rootSpanID string) error {
	payload, err := o.store.ReadPayload(ctx, jobID, models.SlotInterviewer)
	if err != nil {
		return fmt.Errorf("internal: read interviewer payload: %w", err)
	}
	if payload != nil {
		return nil
	}

	o.logger.Warn().Str("job_id", jobID).Msg("interviewer step missing from plan, enforcing mandatory step")
	step := Step{Specialist: specialistInterviewer, InterviewerType: models.InterviewerTypeInterviewPrep, Slot: models.SlotInterviewer}
	return o.executeStep(ctx, jobID, step, input, wc, tracer, rootSpanID)
}

// finalize transitions the job to its terminal state. An empty failMsg
// means the job completed cleanly.
func (o *Orchestrator) finalize(ctx context.Context, jobID string, kind models.JobKind, failMsg string) error {
	completedAt := time.Now()
	if failMsg != "" {
		if err := o.store.UpdateStatus(ctx, jobID, models.JobStatusFailed, interfaces.StatusUpdate{Error: failMsg, CompletedAt: completedAt}); err != nil {
			return err
		}
		o.setProgress(ctx, jobID, 100)
		o.broadcast(jobID, kind, models.JobStatusFailed, failMsg)
		return nil
	}

	if err := o.store.UpdateStatus(ctx, jobID, models.JobStatusCompleted, interfaces.StatusUpdate{CompletedAt: completedAt}); err != nil {
		return err
	}
	o.setProgress(ctx, jobID, 100)
	o.broadcast(jobID, kind, models.JobStatusCompleted, "")
	return nil
}

func (o *Orchestrator) broadcast(jobID string, kind models.JobKind, status models.JobStatus, errMsg string) {
	if o.hub == nil {
		return
	}
	o.hub.Broadcast(models.JobEvent{JobID: jobID, Kind: kind, Status: status, Error: errMsg})
}
