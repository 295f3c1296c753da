package httprpc

import "github.com/bobmcallan/careerforge/internal/interfaces"

var (
	_ interfaces.Extractor   = (*ExtractorClient)(nil)
	_ interfaces.Analyzer    = (*AnalyzerClient)(nil)
	_ interfaces.Interviewer = (*InterviewerClient)(nil)
	_ interfaces.Charter     = (*CharterClient)(nil)
)
