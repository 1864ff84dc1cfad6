// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"

	"github.com/symptomly/triage/internal/domain/symptom"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DataDir holds the exemplar index artifact pair.
	DataDir string `koanf:"data_dir"`

	// MaxInputRunes caps the sanitized description length.
	MaxInputRunes int `koanf:"max_input_runes"`

	// MinWords and MinChars define the input gate. A description is
	// rejected only when it fails both minima.
	MinWords int `koanf:"min_words"`
	MinChars int `koanf:"min_chars"`

	// MediumThreshold and HighThreshold map rule scores to risk bands.
	MediumThreshold int `koanf:"medium_threshold"`
	HighThreshold   int `koanf:"high_threshold"`

	// SimilarityThreshold is the minimum cosine similarity the
	// similarity stage accepts.
	SimilarityThreshold float64 `koanf:"similarity_threshold"`

	// ClassifierConfidenceThreshold is the fallback guardrail: below it,
	// out-of-context verdicts are forced down to LOW.
	ClassifierConfidenceThreshold float64 `koanf:"classifier_confidence_threshold"`

	// ContextKeywords gate similarity and classifier acceptance.
	ContextKeywords []string `koanf:"context_keywords"`

	// CacheSize bounds the decision cache. Zero disables caching.
	CacheSize int `koanf:"cache_size"`

	// AICallTimeoutMS bounds each external-capability call.
	AICallTimeoutMS int `koanf:"ai_call_timeout_ms"`

	// EmbeddingHost and LLMHost are OpenAI-compatible API base URLs.
	EmbeddingHost string `koanf:"embedding_host"`
	LLMHost       string `koanf:"llm_host"`

	// EmbeddingModel and LLMModel name the served models.
	EmbeddingModel string `koanf:"embedding_model"`
	LLMModel       string `koanf:"llm_model"`
}

// New creates a Config using defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use and
// is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:                      "info",
		Addr:                          ":8000",
		DataDir:                       "data",
		MaxInputRunes:                 symptom.DefaultMaxRunes,
		MinWords:                      symptom.DefaultMinWords,
		MinChars:                      symptom.DefaultMinChars,
		MediumThreshold:               3,
		HighThreshold:                 5,
		SimilarityThreshold:           0.75,
		ClassifierConfidenceThreshold: 0.80,
		ContextKeywords:               symptom.DefaultContextKeywords(),
		CacheSize:                     1024,
		AICallTimeoutMS:               10_000,
		EmbeddingHost:                 "http://localhost:11434/v1",
		LLMHost:                       "http://localhost:11434/v1",
		EmbeddingModel:                "all-minilm",
		LLMModel:                      "qwen2.5:3b",
	}
	return c
}
