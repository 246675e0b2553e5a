package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/carvtrainer/carvtrainer/internal/apperr"
)

const maxAttempts = 3

// Client wraps the official genai client.
type Client struct {
	cli       *genai.Client
	model     string
	maxTokens int32
}

// Verify Client satisfies Vision at compile time.
var _ Vision = (*Client)(nil)

// New creates a client for the given model. The API key is read by the
// genai SDK from the environment when apiKey is empty.
func New(ctx context.Context, apiKey, model string, maxTokens int32) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	return &Client{cli: cli, model: model, maxTokens: maxTokens}, nil
}

// Analyze sends every screenshot plus the holistic analysis prompt in a
// single request and returns the cleaned JSON analysis.
func (c *Client) Analyze(ctx context.Context, images []Image) (json.RawMessage, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data},
		})
	}
	parts = append(parts, &genai.Part{Text: analysisPrompt(len(images))})

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		MaxOutputTokens:   c.maxTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: metricsContext}}},
	}

	text, err := c.generate(ctx, parts, cfg)
	if err != nil {
		return nil, err
	}
	return ExtractJSON(text)
}

// GeneratePlan asks the model for the Markdown training plan derived from a
// previous analysis.
func (c *Client) GeneratePlan(ctx context.Context, analysis json.RawMessage, skiIQ string, numRuns int) (string, error) {
	parts := []*genai.Part{{Text: planPrompt(analysis, skiIQ, numRuns)}}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:   c.maxTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: coachSystem}}},
	}

	text, err := c.generate(ctx, parts, cfg)
	if err != nil {
		return "", err
	}
	return text, nil
}

// generate performs the API call with bounded retries. Authentication
// failures are not retried.
func (c *Client) generate(ctx context.Context, parts []*genai.Part, cfg *genai.GenerateContentConfig) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(300*(1<<(attempt-1))) * time.Millisecond):
			}
		}

		resp, err := c.cli.Models.GenerateContent(ctx, c.model,
			[]*genai.Content{{Parts: parts}}, cfg)
		if err != nil {
			lastErr = classify(err)
			if errors.Is(lastErr, apperr.ErrInvalidAPIKey) {
				return "", lastErr
			}
			continue
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
			len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = apperr.ErrBadModelOutput
			continue
		}
		return resp.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", lastErr
}

// classify maps transport errors onto the app sentinels surfaced to clients.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "api_key") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "unauthenticated") ||
		strings.Contains(msg, "401"):
		return fmt.Errorf("%w: %v", apperr.ErrInvalidAPIKey, err)
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429"):
		return fmt.Errorf("%w: %v", apperr.ErrRateLimited, err)
	default:
		return fmt.Errorf("llm: generate: %w", err)
	}
}
