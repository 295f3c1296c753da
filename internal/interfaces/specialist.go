package interfaces

import (
	"context"

	"github.com/bobmcallan/careerforge/internal/models"
)

// Extractor parses raw CV or job-posting text into a structured profile.
type Extractor interface {
	Invoke(ctx context.Context, req models.ExtractorRequest) (models.ExtractorResponse, error)
}

// Analyzer produces gap analyses and CV rewrites from parsed profiles.
type Analyzer interface {
	Invoke(ctx context.Context, req models.AnalyzerRequest) (models.AnalyzerResponse, error)
}

// Interviewer produces interview preparation packs and answer evaluations.
type Interviewer interface {
	Invoke(ctx context.Context, req models.InterviewerRequest) (models.InterviewerResponse, error)
}

// Charter renders aggregate analytics.
type Charter interface {
	Invoke(ctx context.Context, req models.CharterRequest) (models.CharterResponse, error)
}

// Specialists bundles the four specialist clients the orchestrator
// dispatches to, so it can be constructed once at worker start and passed
// explicitly to the orchestrator — no process-wide singletons.
type Specialists struct {
	Extractor   Extractor
	Analyzer    Analyzer
	Interviewer Interviewer
	Charter     Charter
}
