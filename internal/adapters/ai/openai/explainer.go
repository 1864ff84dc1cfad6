package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/symptomly/triage/internal/domain/types"
	"github.com/tmc/langchaingo/llms"
)

// Explainer implements ai.Explainer against the chat model.
type Explainer struct {
	client llms.Model
	logger *slog.Logger
}

func newExplainer(client llms.Model) *Explainer {
	return &Explainer{
		client: client,
		logger: slog.Default().With("component", "openai-explainer"),
	}
}

// Explain produces a short lay explanation for the decision, constrained
// to the supplied evidence.
func (e *Explainer) Explain(ctx context.Context, risk types.RiskLevel, evidence string) (string, error) {
	if evidence == "" {
		evidence = "no strong match"
	}
	user := fmt.Sprintf("Advice level: %s. Evidence: %s", risk, evidence)

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(explainPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		e.logger.Error("explanation request failed", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", nil
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}
