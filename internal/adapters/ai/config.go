package ai

import (
	"errors"
	"strings"
)

// Config holds connection settings for the model services.
type Config struct {
	// EmbeddingHost is the base URL of the embedding service API,
	// e.g. "http://localhost:11434/v1" for a local OpenAI-compatible server.
	EmbeddingHost string

	// LLMHost is the base URL of the chat service used for normalization,
	// classification and explanations.
	LLMHost string

	// EmbeddingModel identifies the embedding model,
	// e.g. "all-minilm", "text-embedding-3-small".
	EmbeddingModel string

	// LLMModel identifies the chat model, e.g. "qwen2.5:3b", "gpt-4o-mini".
	LLMModel string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) { c.EmbeddingHost = host }
}

// WithLLMHost sets the chat service host URL.
func WithLLMHost(host string) ConfigOption {
	return func(c *Config) { c.LLMHost = host }
}

// WithHost sets both hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.LLMHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) { c.EmbeddingModel = model }
}

// WithLLMModel sets the chat model identifier.
func WithLLMModel(model string) ConfigOption {
	return func(c *Config) { c.LLMModel = model }
}

// DefaultConfig returns settings for a local OpenAI-compatible server.
func DefaultConfig() *Config {
	host := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:  host,
		LLMHost:        host,
		EmbeddingModel: "all-minilm",
		LLMModel:       "qwen2.5:3b",
	}
}

// NewConfig creates a Config with defaults and applies the options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts the configuration into canonical form, adding the /v1
// suffix most OpenAI-compatible APIs (Ollama, LocalAI, vLLM) expect.
func (c *Config) Normalize() {
	c.EmbeddingHost = ensureV1(c.EmbeddingHost)
	c.LLMHost = ensureV1(c.LLMHost)
}

func ensureV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.LLMHost == "" {
		return errors.New("ai config: LLMHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.LLMModel == "" {
		return errors.New("ai config: LLMModel is required")
	}
	return nil
}
