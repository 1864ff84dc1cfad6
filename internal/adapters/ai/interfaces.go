// Package ai declares the contracts for the external model capabilities the
// pipeline consumes: text embedding, paraphrase normalization, zero-shot
// risk classification, and explanation generation. The pipeline treats every
// implementation as a remote collaborator that may be slow or absent.
package ai

import (
	"context"

	"github.com/symptomly/triage/internal/domain/types"
)

// Embedder maps text to fixed-length vectors for semantic similarity.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in one batch,
	// returned in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Normalizer rewrites free text into a cleaner surface form of the same
// content. The collaborator guarantees it adds no symptom claims and
// assigns no risk; callers only act on the result when it differs
// case-insensitively from the input.
type Normalizer interface {
	Normalize(ctx context.Context, text string) (string, error)
}

// Verdict is the argmax of a zero-shot label distribution.
type Verdict struct {
	Label      types.RiskLevel
	Confidence float64
	// Raw preserves the classifier's own rendering of its distribution
	// for evidence purposes.
	Raw string
}

// Classifier scores text against the three risk bands and returns the top
// label with its confidence.
type Classifier interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// Explainer produces a short lay explanation of a decision from the
// evidence supplied. It must not introduce facts beyond that evidence.
type Explainer interface {
	Explain(ctx context.Context, risk types.RiskLevel, evidence string) (string, error)
}

// Provider aggregates the capabilities for convenient wiring and lifecycle
// management.
type Provider interface {
	Embedder() Embedder
	Normalizer() Normalizer
	Classifier() Classifier
	Explainer() Explainer

	// Close releases resources held by the provider and its services.
	Close() error
}
