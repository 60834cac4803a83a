package consensus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// parseOpinion extracts the structured PROBABILITY/CONFIDENCE/REASONING
// lines from a model's free-text answer. Models occasionally wrap the
// answer in prose, so each line is located by prefix rather than by
// position.
func parseOpinion(model, content string) (*types.ModelOpinion, error) {
	opinion := &types.ModelOpinion{
		Model:      model,
		Confidence: 5, // middle of the 1..10 scale when unstated
	}

	foundProbability := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(strings.ToUpper(line), "PROBABILITY:"):
			raw := strings.TrimSpace(line[len("PROBABILITY:"):])
			raw = strings.TrimSuffix(raw, "%")

			p, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parse probability %q: %w", raw, err)
			}

			// Some models answer in percent despite the prompt.
			if p > 1 && p <= 100 {
				p /= 100
			}
			if p < 0 || p > 1 {
				return nil, fmt.Errorf("probability %f out of range", p)
			}

			opinion.Probability = p
			foundProbability = true

		case strings.HasPrefix(strings.ToUpper(line), "CONFIDENCE:"):
			raw := strings.TrimSpace(line[len("CONFIDENCE:"):])

			c, err := strconv.Atoi(raw)
			if err == nil && c >= 1 && c <= 10 {
				opinion.Confidence = c
			}

		case strings.HasPrefix(strings.ToUpper(line), "REASONING:"):
			opinion.Reasoning = strings.TrimSpace(line[len("REASONING:"):])
		}
	}

	if !foundProbability {
		return nil, fmt.Errorf("no probability line in response: %q", truncate(content, 120))
	}

	return opinion, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
