// Package models defines the shared data types of the job control plane.
package models

import (
	"encoding/json"
	"time"
)

// JobKind selects which plan the orchestrator builds for a job.
type JobKind string

const (
	JobKindCVParse       JobKind = "cv_parse"
	JobKindJobParse      JobKind = "job_parse"
	JobKindGapAnalysis   JobKind = "gap_analysis"
	JobKindCVRewrite     JobKind = "cv_rewrite"
	JobKindInterviewPrep JobKind = "interview_prep"
	JobKindGetAnalytics  JobKind = "get_analytics"
	JobKindFullAnalysis  JobKind = "full_analysis"
)

// KnownKind reports whether kind is one of the recognized values.
func KnownKind(kind JobKind) bool {
	switch kind {
	case JobKindCVParse, JobKindJobParse, JobKindGapAnalysis, JobKindCVRewrite,
		JobKindInterviewPrep, JobKindGetAnalytics, JobKindFullAnalysis:
		return true
	}
	return false
}

// JobStatus is a job's position in the lifecycle state machine.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// legalTransitions enumerates the only permitted status transitions.
var legalTransitions = map[JobStatus]map[JobStatus]bool{
	JobStatusPending:    {JobStatusProcessing: true},
	JobStatusProcessing: {JobStatusCompleted: true, JobStatusFailed: true},
}

// CanTransition reports whether moving from to is legal.
// A transition to the same status with no change is always idempotent-legal.
func CanTransition(from, to JobStatus) bool {
	if from == to {
		return true
	}
	return legalTransitions[from][to]
}

// IsTerminal reports whether status is a terminal state.
func IsTerminal(status JobStatus) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// PayloadSlot names one specialist's output field on a Job record.
type PayloadSlot string

const (
	SlotExtractor   PayloadSlot = "extractor_payload"
	SlotAnalyzer    PayloadSlot = "analyzer_payload"
	SlotInterviewer PayloadSlot = "interviewer_payload"
	SlotCharter     PayloadSlot = "charter_payload"
	SlotSummary     PayloadSlot = "summary_payload"
)

// Job is the central entity of the control plane.
type Job struct {
	ID     string    `json:"id"`
	Owner  string    `json:"owner"`
	Kind   JobKind   `json:"kind"`
	Status JobStatus `json:"status"`
	// Progress is advisory only; written at fixed milestones by the
	// orchestrator, not read by any control-plane decision.
	Progress int `json:"progress"`

	Input json.RawMessage `json:"input"`

	ExtractorPayload   *json.RawMessage `json:"extractor_payload,omitempty"`
	AnalyzerPayload    *json.RawMessage `json:"analyzer_payload,omitempty"`
	InterviewerPayload *json.RawMessage `json:"interviewer_payload,omitempty"`
	CharterPayload     *json.RawMessage `json:"charter_payload,omitempty"`
	SummaryPayload     *json.RawMessage `json:"summary_payload,omitempty"`

	Error string `json:"error,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Payload returns the current value of slot, or nil if absent.
func (j *Job) Payload(slot PayloadSlot) *json.RawMessage {
	switch slot {
	case SlotExtractor:
		return j.ExtractorPayload
	case SlotAnalyzer:
		return j.AnalyzerPayload
	case SlotInterviewer:
		return j.InterviewerPayload
	case SlotCharter:
		return j.CharterPayload
	case SlotSummary:
		return j.SummaryPayload
	default:
		return nil
	}
}

// SetPayload writes value into slot. A payload, once populated, is replaced
// wholesale on a re-run — never mutated field-by-field.
func (j *Job) SetPayload(slot PayloadSlot, value *json.RawMessage) {
	switch slot {
	case SlotExtractor:
		j.ExtractorPayload = value
	case SlotAnalyzer:
		j.AnalyzerPayload = value
	case SlotInterviewer:
		j.InterviewerPayload = value
	case SlotCharter:
		j.CharterPayload = value
	case SlotSummary:
		j.SummaryPayload = value
	}
}

// PrescribedSlots returns the payload slots that kind's plan may populate,
// used by P4 (terminal jobs only ever carry prescribed slots).
func PrescribedSlots(kind JobKind) []PayloadSlot {
	switch kind {
	case JobKindCVParse, JobKindJobParse:
		return []PayloadSlot{SlotExtractor}
	case JobKindGapAnalysis, JobKindCVRewrite:
		return []PayloadSlot{SlotAnalyzer}
	case JobKindInterviewPrep:
		return []PayloadSlot{SlotInterviewer}
	case JobKindGetAnalytics:
		return []PayloadSlot{SlotCharter}
	case JobKindFullAnalysis:
		return []PayloadSlot{SlotExtractor, SlotAnalyzer, SlotInterviewer}
	default:
		return nil
	}
}
