package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bobmcallan/careerforge/internal/models"
	"github.com/bobmcallan/careerforge/internal/trace"
)

// emptyObject is what a successful step with no fields to report persists,
// never a JSON null.
var emptyObject = json.RawMessage(`{}`)

// analyzerPayload is the domain shape persisted to analyzer_payload. It
// deliberately excludes the RPC envelope's success/error fields, which are
// consumed by the dispatcher and never stored.
type analyzerPayload struct {
	GapAnalysis    json.RawMessage `json:"gap_analysis,omitempty"`
	CVRewrite      json.RawMessage `json:"cv_rewrite,omitempty"`
	CVRewriteError string          `json:"cv_rewrite_error,omitempty"`
}

// interviewerPayload is the domain shape persisted to interviewer_payload.
type interviewerPayload struct {
	InterviewPack json.RawMessage `json:"interview_pack,omitempty"`
	Evaluation    json.RawMessage `json:"evaluation,omitempty"`
}

// charterPayload is the domain shape persisted to charter_payload.
type charterPayload struct {
	Charts json.RawMessage `json:"charts,omitempty"`
}

// executeStep dispatches one plan step to its specialist through the
// dispatcher's retry/backoff policy, then persists the outcome to the
// step's payload slot.
func (o *Orchestrator) executeStep(ctx context.Context, jobID string, step Step, input models.InputEnvelope, wc *workingContext, tracer *trace.Tracer, rootSpanID string) error {
	spanID := tracer.Child(ctx, rootSpanID, string(step.Specialist), map[string]string{"slot": string(step.Slot)})
	traceCtx := &models.TraceContext{TraceID: tracer.TraceID(), ParentSpanID: spanID}

	switch step.Specialist {
	case specialistExtractor:
		return o.executeExtractor(ctx, jobID, step, traceCtx, wc)
	case specialistAnalyzer:
		return o.executeAnalyzer(ctx, jobID, step, traceCtx, wc)
	case specialistInterviewer:
		return o.executeInterviewer(ctx, jobID, step, traceCtx, wc)
	case specialistCharter:
		return o.executeCharter(ctx, jobID, step, input, traceCtx)
	default:
		return fmt.Errorf("internal: unknown specialist %q", step.Specialist)
	}
}

// executeExtractor runs the extractor and merges its profile into the
// extractor_payload slot rather than overwriting it wholesale, since a
// full_analysis plan can call the extractor twice (cv then job) against the
// same slot.
func (o *Orchestrator) executeExtractor(ctx context.Context, jobID string, step Step, traceCtx *models.TraceContext, wc *workingContext) error {
	var text string
	if step.ExtractorType == models.ExtractorTypeCV {
		text = wc.cvText
	} else {
		text = wc.jobText
	}

	req := models.ExtractorRequest{Type: step.ExtractorType, Text: text, JobID: jobID, Trace: traceCtx}
	var resp models.ExtractorResponse
	success, errMsg, err := o.dispatcher.Call(ctx, string(specialistExtractor), func(ctx context.Context) (bool, string, error) {
		var callErr error
		resp, callErr = o.specialists.Extractor.Invoke(ctx, req)
		return resp.Success, resp.Error, callErr
	})
	if err != nil {
		return fmt.Errorf("extractor: %w", err)
	}
	if !success {
		return fmt.Errorf("extractor: %s", errMsg)
	}

	profile := resp.Profile
	if len(profile) == 0 {
		profile = emptyObject
	}

	merged, err := mergeExtractorPayload(o.currentExtractorPayload(ctx, jobID), step.ExtractorType, profile)
	if err != nil {
		return fmt.Errorf("extractor: merge payload: %w", err)
	}
	if err := o.store.UpdatePayload(ctx, jobID, models.SlotExtractor, merged); err != nil {
		return fmt.Errorf("extractor: persist payload: %w", err)
	}

	if step.ExtractorType == models.ExtractorTypeCV {
		wc.cvProfile = profile
	} else {
		wc.jobProfile = profile
	}
	return nil
}

// currentExtractorPayload reads the extractor_payload slot's current value,
// treating a read failure the same as "absent" — the merge below still
// produces a valid object, and the real error will have already surfaced
// from an earlier failed operation on this job.
func (o *Orchestrator) currentExtractorPayload(ctx context.Context, jobID string) json.RawMessage {
	existing, err := o.store.ReadPayload(ctx, jobID, models.SlotExtractor)
	if err != nil || existing == nil {
		return nil
	}
	return *existing
}

// mergeExtractorPayload merges a new cv or job profile into the existing
// extractor_payload object under its own key, leaving the sibling key (if
// any) untouched.
func mergeExtractorPayload(existing json.RawMessage, kind models.ExtractorRequestType, profile json.RawMessage) (json.RawMessage, error) {
	merged := map[string]json.RawMessage{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &merged); err != nil {
			return nil, err
		}
	}
	key := "cv_profile"
	if kind == models.ExtractorTypeJob {
		key = "job_profile"
	}
	merged[key] = profile
	return json.Marshal(merged)
}

// executeAnalyzer runs the analyzer. A response with Success=true and a
// CVRewriteError set is still a successful step — only Success=false fails
// the step.
func (o *Orchestrator) executeAnalyzer(ctx context.Context, jobID string, step Step, traceCtx *models.TraceContext, wc *workingContext) error {
	req := models.AnalyzerRequest{
		Type:        step.AnalyzerType,
		JobID:       jobID,
		CVProfile:   wc.cvProfile,
		JobProfile:  wc.jobProfile,
		GapAnalysis: wc.gapAnalysis,
		Trace:       traceCtx,
	}
	var resp models.AnalyzerResponse
	success, errMsg, err := o.dispatcher.Call(ctx, string(specialistAnalyzer), func(ctx context.Context) (bool, string, error) {
		var callErr error
		resp, callErr = o.specialists.Analyzer.Invoke(ctx, req)
		return resp.Success, resp.Error, callErr
	})
	if err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}
	if !success {
		return fmt.Errorf("analyzer: %s", errMsg)
	}

	value, err := json.Marshal(analyzerPayload{
		GapAnalysis:    resp.GapAnalysis,
		CVRewrite:      resp.CVRewrite,
		CVRewriteError: resp.CVRewriteError,
	})
	if err != nil {
		return fmt.Errorf("analyzer: encode payload: %w", err)
	}
	if err := o.store.UpdatePayload(ctx, jobID, models.SlotAnalyzer, value); err != nil {
		return fmt.Errorf("analyzer: persist payload: %w", err)
	}

	if len(resp.GapAnalysis) > 0 {
		wc.gapAnalysis = resp.GapAnalysis
	}
	return nil
}

// executeInterviewer runs the interviewer.
func (o *Orchestrator) executeInterviewer(ctx context.Context, jobID string, step Step, traceCtx *models.TraceContext, wc *workingContext) error {
	req := models.InterviewerRequest{
		Type:        step.InterviewerType,
		JobID:       jobID,
		JobProfile:  wc.jobProfile,
		CVProfile:   wc.cvProfile,
		GapAnalysis: wc.gapAnalysis,
		Trace:       traceCtx,
	}
	var resp models.InterviewerResponse
	success, errMsg, err := o.dispatcher.Call(ctx, string(specialistInterviewer), func(ctx context.Context) (bool, string, error) {
		var callErr error
		resp, callErr = o.specialists.Interviewer.Invoke(ctx, req)
		return resp.Success, resp.Error, callErr
	})
	if err != nil {
		return fmt.Errorf("interviewer: %w", err)
	}
	if !success {
		return fmt.Errorf("interviewer: %s", errMsg)
	}

	value, err := json.Marshal(interviewerPayload{
		InterviewPack: resp.InterviewPack,
		Evaluation:    resp.Evaluation,
	})
	if err != nil {
		return fmt.Errorf("interviewer: encode payload: %w", err)
	}
	return o.store.UpdatePayload(ctx, jobID, models.SlotInterviewer, value)
}

// executeCharter runs the charter specialist.
func (o *Orchestrator) executeCharter(ctx context.Context, jobID string, step Step, input models.InputEnvelope, traceCtx *models.TraceContext) error {
	req := models.CharterRequest{
		JobID:            jobID,
		ApplicationsData: input.ApplicationsData,
		UserID:           input.UserID,
		Trace:            traceCtx,
	}
	var resp models.CharterResponse
	success, errMsg, err := o.dispatcher.Call(ctx, string(specialistCharter), func(ctx context.Context) (bool, string, error) {
		var callErr error
		resp, callErr = o.specialists.Charter.Invoke(ctx, req)
		return resp.Success, resp.Error, callErr
	})
	if err != nil {
		return fmt.Errorf("charter: %w", err)
	}
	if !success {
		return fmt.Errorf("charter: %s", errMsg)
	}

	value, err := json.Marshal(charterPayload{Charts: resp.Charts})
	if err != nil {
		return fmt.Errorf("charter: encode payload: %w", err)
	}
	return o.store.UpdatePayload(ctx, jobID, models.SlotCharter, value)
}
