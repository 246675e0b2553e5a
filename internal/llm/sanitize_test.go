package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/carvtrainer/carvtrainer/internal/apperr"
)

func TestExtractJSON_Plain(t *testing.T) {
	raw, err := ExtractJSON(`{"a": 1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"a": 1}` {
		t.Errorf("raw = %s", raw)
	}
}

func TestExtractJSON_CodeFence(t *testing.T) {
	in := "```json\n{\"ski_iq\": 121}\n```"
	raw, err := ExtractJSON(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"ski_iq": 121}` {
		t.Errorf("raw = %s", raw)
	}
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	in := "Here is the analysis you asked for:\n{\"ok\": true}\nLet me know if you need more."
	raw, err := ExtractJSON(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"ok": true}` {
		t.Errorf("raw = %s", raw)
	}
}

func TestExtractJSON_Invalid(t *testing.T) {
	_, err := ExtractJSON("sorry, I could not read the screenshots")
	if !errors.Is(err, apperr.ErrBadModelOutput) {
		t.Errorf("err = %v, want ErrBadModelOutput", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		msg  string
		want error
	}{
		{"googleapi: Error 401: API key not valid", apperr.ErrInvalidAPIKey},
		{"rpc error: code = Unauthenticated", apperr.ErrInvalidAPIKey},
		{"googleapi: Error 429: RESOURCE_EXHAUSTED", apperr.ErrRateLimited},
		{"quota exceeded for this project", apperr.ErrRateLimited},
		{"connection reset by peer", nil},
	}
	for _, c := range cases {
		got := classify(fmt.Errorf("%s", c.msg))
		if c.want == nil {
			if errors.Is(got, apperr.ErrInvalidAPIKey) || errors.Is(got, apperr.ErrRateLimited) {
				t.Errorf("classify(%q) = %v, want plain wrap", c.msg, got)
			}
			continue
		}
		if !errors.Is(got, c.want) {
			t.Errorf("classify(%q) = %v, want %v", c.msg, got, c.want)
		}
	}
}

func TestPlanPromptCarriesHeadingVocabulary(t *testing.T) {
	// The report parser dispatches on these headings; the prompt must keep
	// asking for them.
	prompt := planPrompt([]byte(`{}`), "121", 2)
	for _, h := range []string{
		"## The Big Picture",
		"## Immediate Focus",
		"## Your 3 Key Drills",
		"## Daily Session Plan",
		"## Weekly Training Schedule",
		"## This Week's Priorities",
		"## Building on Strengths",
		"## 4-Week Progression",
		"## Progress Checkpoints",
		"## Mental Cues",
		"## Common Traps to Avoid",
	} {
		if !strings.Contains(prompt, h) {
			t.Errorf("plan prompt lost heading %q", h)
		}
	}
}
