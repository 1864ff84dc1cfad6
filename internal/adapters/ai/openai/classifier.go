package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/symptomly/triage/internal/adapters/ai"
	"github.com/symptomly/triage/internal/domain/types"
	"github.com/tmc/langchaingo/llms"
)

// classifyAttempts bounds retries on malformed JSON responses.
const classifyAttempts = 3

// Classifier implements ai.Classifier by asking the chat model for a
// probability distribution over the three risk bands in JSON mode.
type Classifier struct {
	client llms.Model
	logger *slog.Logger
}

// distribution is the JSON shape requested from the model.
type distribution struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

func newClassifier(client llms.Model) *Classifier {
	return &Classifier{
		client: client,
		logger: slog.Default().With("component", "openai-classifier"),
	}
}

// Classify returns the argmax label of the model's distribution with its
// confidence. The raw response text is preserved as evidence.
func (c *Classifier) Classify(ctx context.Context, text string) (ai.Verdict, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(classifyPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	var dist distribution
	var raw string
	var lastErr error
	for attempt := 0; attempt < classifyAttempts; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("classification request failed", "attempt", attempt+1, "err", err)
			return ai.Verdict{}, err
		}
		if len(response.Choices) < 1 {
			return ai.Verdict{}, fmt.Errorf("classifier returned no choices")
		}

		raw = stripFences(response.Choices[0].Content)
		if err := json.Unmarshal([]byte(raw), &dist); err != nil {
			lastErr = err
			c.logger.Warn("error parsing classifier response",
				"attempt", attempt+1, "response", raw, "err", err)
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		c.logger.Error("failed to parse classifier response after retries", "err", lastErr)
		return ai.Verdict{}, lastErr
	}

	return argmax(dist, raw), nil
}

// argmax picks the top label, normalizing the distribution so the reported
// confidence is a proper probability even when the model's values do not
// quite sum to 1.
func argmax(dist distribution, raw string) ai.Verdict {
	total := dist.High + dist.Medium + dist.Low
	if total <= 0 {
		return ai.Verdict{Label: types.RiskLow, Confidence: 0, Raw: raw}
	}

	label := types.RiskHigh
	top := dist.High
	if dist.Medium > top {
		label = types.RiskMedium
		top = dist.Medium
	}
	if dist.Low > top {
		label = types.RiskLow
		top = dist.Low
	}
	return ai.Verdict{Label: label, Confidence: top / total, Raw: raw}
}

// stripFences removes markdown code fences some models wrap around JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
