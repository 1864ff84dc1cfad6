// Package openai implements the ai capability contracts against any
// OpenAI-compatible API (Ollama, LocalAI, vLLM, OpenAI itself).
package openai

import (
	"github.com/symptomly/triage/internal/adapters/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
type Provider struct {
	config     *ai.Config
	embedder   *Embedder
	normalizer *Normalizer
	classifier *Classifier
	explainer  *Explainer
}

// NewProvider creates a provider with all four capabilities sharing one
// chat client. The config is validated and normalized before use.
//
// Returns the ai.Provider interface to keep callers decoupled from the
// OpenAI-specific implementation.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	chat, err := newChatClient(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:     config,
		embedder:   embedder,
		normalizer: newNormalizer(chat),
		classifier: newClassifier(chat),
		explainer:  newExplainer(chat),
	}, nil
}

// newChatClient builds the shared chat-completions client.
// The "none" token satisfies local services that skip authentication.
func newChatClient(config *ai.Config) (llms.Model, error) {
	return openai.New(
		openai.WithBaseURL(config.LLMHost),
		openai.WithToken("none"),
		openai.WithModel(config.LLMModel),
	)
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder { return p.embedder }

// Normalizer returns the paraphrase service.
func (p *Provider) Normalizer() ai.Normalizer { return p.normalizer }

// Classifier returns the zero-shot risk classifier.
func (p *Provider) Classifier() ai.Classifier { return p.classifier }

// Explainer returns the explanation generator.
func (p *Provider) Explainer() ai.Explainer { return p.explainer }

// Close releases provider resources. The underlying HTTP clients need no
// explicit cleanup.
func (p *Provider) Close() error { return nil }
