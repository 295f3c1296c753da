// Package extractor is the in-process reference backend for the extractor
// specialist, used when no remote endpoint is configured for it. It adapts
// the teacher's Gemini client into a profile-extraction RPC.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bobmcallan/careerforge/internal/interfaces"
	"github.com/bobmcallan/careerforge/internal/models"
)

// contentGenerator is the slice of gemini.Client this backend depends on,
// narrowed to an interface so tests can substitute a fake model.
type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// GeminiBackend implements interfaces.Extractor using a Gemini client.
type GeminiBackend struct {
	client contentGenerator
}

// NewGeminiBackend wraps client as an interfaces.Extractor.
func NewGeminiBackend(client contentGenerator) *GeminiBackend {
	return &GeminiBackend{client: client}
}

// Invoke implements interfaces.Extractor by prompting Gemini to parse the
// given text into a structured profile and decoding its JSON reply.
func (b *GeminiBackend) Invoke(ctx context.Context, req models.ExtractorRequest) (models.ExtractorResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return models.ExtractorResponse{Success: false, Error: "validation: empty text"}, nil
	}

	prompt := buildExtractionPrompt(req.Type, req.Text)
	raw, err := b.client.GenerateContent(ctx, prompt)
	if err != nil {
		return models.ExtractorResponse{}, fmt.Errorf("transport: gemini generate content: %w", err)
	}

	profile, err := extractJSON(raw)
	if err != nil {
		return models.ExtractorResponse{Success: false, Error: fmt.Sprintf("internal: %s", err)}, nil
	}

	return models.ExtractorResponse{Success: true, Profile: profile}, nil
}

func buildExtractionPrompt(kind models.ExtractorRequestType, text string) string {
	subject := "resume"
	if kind == models.ExtractorTypeJob {
		subject = "job posting"
	}
	return fmt.Sprintf(`Parse the following %s into a structured JSON object capturing its
key facts (name, skills, experience, requirements as applicable). Respond with
JSON only, no surrounding prose.

%s`, subject, text)
}

// extractJSON pulls the first top-level JSON object or array out of raw,
// tolerating a model response wrapped in markdown code fences.
func extractJSON(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.IndexAny(trimmed, "{[")
	if start < 0 {
		return nil, fmt.Errorf("model response was not valid JSON")
	}
	var value json.RawMessage
	if err := json.NewDecoder(strings.NewReader(trimmed[start:])).Decode(&value); err != nil {
		return nil, fmt.Errorf("model response was not valid JSON")
	}
	return value, nil
}

var _ interfaces.Extractor = (*GeminiBackend)(nil)
