package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Normalizer implements ai.Normalizer with a deterministic paraphrase
// request against the chat model.
type Normalizer struct {
	client llms.Model
	logger *slog.Logger
}

func newNormalizer(client llms.Model) *Normalizer {
	return &Normalizer{
		client: client,
		logger: slog.Default().With("component", "openai-normalizer"),
	}
}

// Normalize rewrites the text into a cleaner surface form. Temperature 0
// keeps the rewrite deterministic for identical input.
func (n *Normalizer) Normalize(ctx context.Context, text string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(normalizePrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	response, err := n.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		n.logger.Error("paraphrase request failed", "length", len(text), "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		n.logger.Debug("no choices returned from model")
		return "", nil
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}
