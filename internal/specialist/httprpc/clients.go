package httprpc

import (
	"context"

	"github.com/bobmcallan/careerforge/internal/models"
)

// ExtractorClient dispatches to a remote extractor specialist over HTTP/JSON.
type ExtractorClient struct{ client *Client }

// NewExtractorClient wraps c as an interfaces.Extractor.
func NewExtractorClient(c *Client) *ExtractorClient { return &ExtractorClient{client: c} }

// Invoke implements interfaces.Extractor.
func (s *ExtractorClient) Invoke(ctx context.Context, req models.ExtractorRequest) (models.ExtractorResponse, error) {
	var resp models.ExtractorResponse
	if err := Invoke(ctx, s.client, "/invoke", req, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// AnalyzerClient dispatches to a remote analyzer specialist over HTTP/JSON.
type AnalyzerClient struct{ client *Client }

// NewAnalyzerClient wraps c as an interfaces.Analyzer.
func NewAnalyzerClient(c *Client) *AnalyzerClient { return &AnalyzerClient{client: c} }

// Invoke implements interfaces.Analyzer.
func (s *AnalyzerClient) Invoke(ctx context.Context, req models.AnalyzerRequest) (models.AnalyzerResponse, error) {
	var resp models.AnalyzerResponse
	if err := Invoke(ctx, s.client, "/invoke", req, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// InterviewerClient dispatches to a remote interviewer specialist over HTTP/JSON.
type InterviewerClient struct{ client *Client }

// NewInterviewerClient wraps c as an interfaces.Interviewer.
func NewInterviewerClient(c *Client) *InterviewerClient { return &InterviewerClient{client: c} }

// Invoke implements interfaces.Interviewer.
func (s *InterviewerClient) Invoke(ctx context.Context, req models.InterviewerRequest) (models.InterviewerResponse, error) {
	var resp models.InterviewerResponse
	if err := Invoke(ctx, s.client, "/invoke", req, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// CharterClient dispatches to a remote charter specialist over HTTP/JSON.
type CharterClient struct{ client *Client }

// NewCharterClient wraps c as an interfaces.Charter.
func NewCharterClient(c *Client) *CharterClient { return &CharterClient{client: c} }

// Invoke implements interfaces.Charter.
func (s *CharterClient) Invoke(ctx context.Context, req models.CharterRequest) (models.CharterResponse, error) {
	var resp models.CharterResponse
	if err := Invoke(ctx, s.client, "/invoke", req, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}
