package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carvtrainer/carvtrainer/internal/apperr"
)

// ExtractJSON recovers the JSON object from a model response that may be
// wrapped in a Markdown code fence or surrounded by prose. The result is
// validated; anything unparseable maps to apperr.ErrBadModelOutput.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}

	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("%w: %.120s", apperr.ErrBadModelOutput, s)
	}
	return json.RawMessage(s), nil
}
