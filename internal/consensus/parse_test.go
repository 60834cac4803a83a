package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOpinion(t *testing.T) {
	content := `PROBABILITY: 0.65
CONFIDENCE: 8
REASONING: Polls have moved decisively in the last week.`

	op, err := parseOpinion("model-a", content)
	require.NoError(t, err)

	assert.Equal(t, "model-a", op.Model)
	assert.InDelta(t, 0.65, op.Probability, 1e-9)
	assert.Equal(t, 8, op.Confidence)
	assert.Contains(t, op.Reasoning, "Polls have moved")
}

func TestParseOpinion_ProseWrapped(t *testing.T) {
	content := `Sure, here is my assessment.

probability: 72%
confidence: 6
reasoning: Base rates favor incumbents.

Let me know if you need more detail.`

	op, err := parseOpinion("model-b", content)
	require.NoError(t, err)
	assert.InDelta(t, 0.72, op.Probability, 1e-9)
	assert.Equal(t, 6, op.Confidence)
}

func TestParseOpinion_MissingConfidenceDefaults(t *testing.T) {
	op, err := parseOpinion("m", "PROBABILITY: 0.4\nREASONING: thin data")
	require.NoError(t, err)
	assert.Equal(t, 5, op.Confidence)
}

func TestParseOpinion_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no probability line", content: "CONFIDENCE: 8\nREASONING: none"},
		{name: "non-numeric probability", content: "PROBABILITY: maybe"},
		{name: "probability above 100", content: "PROBABILITY: 150"},
		{name: "negative probability", content: "PROBABILITY: -0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOpinion("m", tt.content)
			assert.Error(t, err)
		})
	}
}
