package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/slide-review/internal/domain/reviews"
)

func TestDecodeFindingsSchemaObject(t *testing.T) {
	raw := `{"findings":[{"slide_number":2,"category":"wording","basis":"the claim","issue":"overstated","suggestion":"soften","correction_type":"required"}]}`

	got, err := DecodeFindings(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].SlideNumber)
	assert.Equal(t, reviews.CorrectionRequired, got[0].CorrectionType)
}

func TestDecodeFindingsBareArray(t *testing.T) {
	raw := ` [{"slide_number":1,"issue":"typo"}] `

	got, err := DecodeFindings(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "typo", got[0].Issue)
	// correction type may legitimately be absent; defaulting happens later
	assert.Empty(t, got[0].CorrectionType)
}

func TestDecodeFindingsEmptyObject(t *testing.T) {
	got, err := DecodeFindings(`{}`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeFindingsRejectsGarbage(t *testing.T) {
	_, err := DecodeFindings("Sure! Here are your findings:")
	require.Error(t, err)
}

func TestUserPromptIncludesRulesAndDeck(t *testing.T) {
	p := GetUserPrompt("[slide 1]\n  - hello", "corp-style-v2")
	assert.Contains(t, p, "corp-style-v2")
	assert.Contains(t, p, "[slide 1]")

	noRules := GetUserPrompt("[slide 1]\n  (no text)", "")
	assert.NotContains(t, noRules, "rule set")
}
