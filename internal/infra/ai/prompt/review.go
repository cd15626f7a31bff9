package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/slide-review/internal/domain/reviews"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior presentation reviewer. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object with a "findings" array.
- slide_number refers to the [slide N] markers in the input and must be >= 1.
- correction_type is "required" or "optional"; omit it when unsure.
- basis quotes the slide text the issue is grounded on; keep items concise.

Schema (example with empty values):
{
  "findings": [
    {
      "slide_number": 1,
      "category": "<string>",
      "basis": "<string>",
      "issue": "<string>",
      "suggestion": "<string>",
      "correction_type": "<required|optional>"
    }
  ]
}`
}

// GetUserPrompt builds the user message around the structured deck text and
// an optional rule-set identifier.
func GetUserPrompt(deckText, rules string) string {
	var b strings.Builder
	b.WriteString("Review the following presentation and respond with the JSON per schema.\n")
	if rules != "" {
		fmt.Fprintf(&b, "Apply rule set: %s\n", rules)
	}
	b.WriteString("\n")
	b.WriteString(deckText)
	return b.String()
}

type findingPayload struct {
	SlideNumber    int    `json:"slide_number"`
	Category       string `json:"category"`
	Basis          string `json:"basis"`
	Issue          string `json:"issue"`
	Suggestion     string `json:"suggestion"`
	CorrectionType string `json:"correction_type"`
}

// DecodeFindings parses a model response into findings. Accepts the schema
// object or a bare array, which some models emit despite the instructions.
func DecodeFindings(raw string) ([]reviews.Finding, error) {
	raw = strings.TrimSpace(raw)

	var payload []findingPayload
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, fmt.Errorf("decode findings array: %w", err)
		}
	} else {
		var obj struct {
			Findings []findingPayload `json:"findings"`
		}
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("decode findings object: %w", err)
		}
		payload = obj.Findings
	}

	out := make([]reviews.Finding, 0, len(payload))
	for _, p := range payload {
		out = append(out, reviews.Finding{
			SlideNumber:    p.SlideNumber,
			Category:       p.Category,
			Basis:          p.Basis,
			Issue:          p.Issue,
			Suggestion:     p.Suggestion,
			CorrectionType: reviews.CorrectionType(p.CorrectionType),
		})
	}
	return out, nil
}
