package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if TRIAGE_CONFIG is set
//  3. env (prefix TRIAGE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TRIAGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TRIAGE_ADDR, TRIAGE_MIN_WORDS, ...
	// Map env keys like TRIAGE_MIN_WORDS -> min_words (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TRIAGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "triage_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the pipeline cannot run with.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MediumThreshold <= 0 || c.HighThreshold < c.MediumThreshold {
		return fmt.Errorf("%w: thresholds must satisfy 0 < medium <= high (medium=%d, high=%d)",
			ErrInvalidConfig, c.MediumThreshold, c.HighThreshold)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be in (0, 1], got %v",
			ErrInvalidConfig, c.SimilarityThreshold)
	}
	if c.ClassifierConfidenceThreshold <= 0 || c.ClassifierConfidenceThreshold > 1 {
		return fmt.Errorf("%w: classifier_confidence_threshold must be in (0, 1], got %v",
			ErrInvalidConfig, c.ClassifierConfidenceThreshold)
	}
	if c.MinWords < 0 || c.MinChars < 0 {
		return fmt.Errorf("%w: input gate minima must not be negative", ErrInvalidConfig)
	}
	return nil
}
