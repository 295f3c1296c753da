// Package orchestrator executes the plan for one job from dequeue to
// terminal state, generalized from the teacher's processLoop/executeJob/
// complete trio in internal/services/jobmanager.
package orchestrator

import (
	"fmt"

	"github.com/bobmcallan/careerforge/internal/models"
)

// specialistName identifies which of the four specialist workers a Step
// dispatches to.
type specialistName string

const (
	specialistExtractor   specialistName = "extractor"
	specialistAnalyzer    specialistName = "analyzer"
	specialistInterviewer specialistName = "interviewer"
	specialistCharter     specialistName = "charter"
)

// Step is one entry in a job's plan: a single specialist call that, on
// completion, is persisted to slot.
type Step struct {
	Specialist      specialistName
	Slot            models.PayloadSlot
	ExtractorType   models.ExtractorRequestType
	AnalyzerType    models.AnalyzerRequestType
	InterviewerType models.InterviewerRequestType
}

// ErrUnknownKind is returned by buildPlan for an unrecognized job kind (B3).
type ErrUnknownKind struct{ Kind models.JobKind }

func (e ErrUnknownKind) Error() string { return fmt.Sprintf("unknown kind: %s", e.Kind) }

// buildPlan is a pure function of kind and input — no suspension inside
// plan construction.
func buildPlan(kind models.JobKind, input models.InputEnvelope) ([]Step, error) {
	switch kind {
	case models.JobKindCVParse:
		return []Step{{Specialist: specialistExtractor, ExtractorType: models.ExtractorTypeCV, Slot: models.SlotExtractor}}, nil

	case models.JobKindJobParse:
		return []Step{{Specialist: specialistExtractor, ExtractorType: models.ExtractorTypeJob, Slot: models.SlotExtractor}}, nil

	case models.JobKindGapAnalysis:
		return []Step{{Specialist: specialistAnalyzer, AnalyzerType: models.AnalyzerTypeGapAnalysis, Slot: models.SlotAnalyzer}}, nil

	case models.JobKindCVRewrite:
		return []Step{{Specialist: specialistAnalyzer, AnalyzerType: models.AnalyzerTypeCVRewrite, Slot: models.SlotAnalyzer}}, nil

	case models.JobKindInterviewPrep:
		return []Step{{Specialist: specialistInterviewer, InterviewerType: models.InterviewerTypeInterviewPrep, Slot: models.SlotInterviewer}}, nil

	case models.JobKindGetAnalytics:
		return []Step{{Specialist: specialistCharter, Slot: models.SlotCharter}}, nil

	case models.JobKindFullAnalysis:
		var steps []Step
		if input.HasCVText() && !input.HasCVProfile() {
			steps = append(steps, Step{Specialist: specialistExtractor, ExtractorType: models.ExtractorTypeCV, Slot: models.SlotExtractor})
		}
		if input.HasJobText() && !input.HasJobProfile() {
			steps = append(steps, Step{Specialist: specialistExtractor, ExtractorType: models.ExtractorTypeJob, Slot: models.SlotExtractor})
		}
		steps = append(steps, Step{Specialist: specialistAnalyzer, AnalyzerType: models.AnalyzerTypeFull, Slot: models.SlotAnalyzer})
		steps = append(steps, Step{Specialist: specialistInterviewer, InterviewerType: models.InterviewerTypeInterviewPrep, Slot: models.SlotInterviewer})
		return steps, nil

	default:
		return nil, ErrUnknownKind{Kind: kind}
	}
}
