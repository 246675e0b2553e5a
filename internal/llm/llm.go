// Package llm calls the hosted vision model that does the actual coaching:
// screenshot analysis and training-plan generation. Everything here is a
// thin transport; the interpretation of the results lives in the prompts
// and in the report parser.
package llm

import (
	"context"
	"encoding/json"
)

// Image is one screenshot to send with an analysis request.
type Image struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Vision is the model surface the API layer depends on. Tests substitute
// a fake.
type Vision interface {
	// Analyze sends all screenshots in one request and returns the
	// holistic analysis JSON.
	Analyze(ctx context.Context, images []Image) (json.RawMessage, error)
	// GeneratePlan turns an analysis into a Markdown training plan.
	GeneratePlan(ctx context.Context, analysis json.RawMessage, skiIQ string, numRuns int) (string, error)
}
