package mock

import (
	"context"
	"fmt"

	"github.com/symptomly/triage/internal/adapters/ai"
	"github.com/symptomly/triage/internal/domain/types"
)

// Normalizer is a test double for ai.Normalizer. By default it returns the
// input unchanged (which callers treat as "nothing to retry").
type Normalizer struct {
	NormalizeFunc func(ctx context.Context, text string) (string, error)
}

// Normalize applies the injected behavior or echoes the input.
func (m *Normalizer) Normalize(ctx context.Context, text string) (string, error) {
	if m.NormalizeFunc != nil {
		return m.NormalizeFunc(ctx, text)
	}
	return text, nil
}

// Classifier is a test double for ai.Classifier. By default it returns a
// LOW verdict with mid confidence.
type Classifier struct {
	ClassifyFunc func(ctx context.Context, text string) (ai.Verdict, error)
}

// Classify applies the injected behavior or the default LOW verdict.
func (m *Classifier) Classify(ctx context.Context, text string) (ai.Verdict, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}
	return ai.Verdict{Label: types.RiskLow, Confidence: 0.5, Raw: `{"high":0.2,"medium":0.3,"low":0.5}`}, nil
}

// Explainer is a test double for ai.Explainer. By default it composes a
// fixed sentence from the inputs.
type Explainer struct {
	ExplainFunc func(ctx context.Context, risk types.RiskLevel, evidence string) (string, error)
}

// Explain applies the injected behavior or the default template.
func (m *Explainer) Explain(ctx context.Context, risk types.RiskLevel, evidence string) (string, error) {
	if m.ExplainFunc != nil {
		return m.ExplainFunc(ctx, risk, evidence)
	}
	return fmt.Sprintf("We showed %s advice based on: %s.", risk, evidence), nil
}

// Provider bundles the doubles behind the ai.Provider interface.
type Provider struct {
	Emb  *Embedder
	Norm *Normalizer
	Cls  *Classifier
	Expl *Explainer
}

// NewProvider creates a provider with default doubles for every capability.
func NewProvider() *Provider {
	return &Provider{
		Emb:  NewEmbedder(),
		Norm: &Normalizer{},
		Cls:  &Classifier{},
		Expl: &Explainer{},
	}
}

// Embedder implements ai.Provider.
func (p *Provider) Embedder() ai.Embedder { return p.Emb }

// Normalizer implements ai.Provider.
func (p *Provider) Normalizer() ai.Normalizer { return p.Norm }

// Classifier implements ai.Provider.
func (p *Provider) Classifier() ai.Classifier { return p.Cls }

// Explainer implements ai.Provider.
func (p *Provider) Explainer() ai.Explainer { return p.Expl }

// Close implements ai.Provider.
func (p *Provider) Close() error { return nil }
