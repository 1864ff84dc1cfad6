// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/symptomly/triage/internal/adapters/ai"
	"github.com/symptomly/triage/internal/adapters/ai/openai"
	"github.com/symptomly/triage/internal/adapters/index"
	"github.com/symptomly/triage/internal/domain/cache"
	"github.com/symptomly/triage/internal/domain/rules"
	"github.com/symptomly/triage/internal/domain/symptom"
	"github.com/symptomly/triage/internal/domain/triage"
	"github.com/symptomly/triage/internal/domain/types"
	"github.com/symptomly/triage/pkg/logger"
	"github.com/symptomly/triage/pkg/metrics"
)

// Service implements the API dependencies for the triage system.
type Service struct {
	mu sync.RWMutex

	// Core components
	pipeline *triage.Pipeline
	store    index.Store
	provider ai.Provider
	cache    cache.Cache

	// Configuration
	dataDir         string
	maxInputRunes   int
	minWords        int
	minChars        int
	thresholds      rules.Thresholds
	tau             float64
	confidenceFloor float64
	contextKeywords []string
	cacheSize       int
	callTimeout     time.Duration
	aiConfig        *ai.Config

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDataDir sets the directory holding the exemplar index artifacts.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithMaxInputRunes caps the sanitized description length.
func WithMaxInputRunes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxInputRunes = n
		}
	}
}

// WithInputGate sets the minimum word and character counts.
func WithInputGate(minWords, minChars int) Option {
	return func(s *Service) {
		if minWords > 0 {
			s.minWords = minWords
		}
		if minChars > 0 {
			s.minChars = minChars
		}
	}
}

// WithThresholds sets the rule score to risk band mapping.
func WithThresholds(medium, high int) Option {
	return func(s *Service) {
		if medium > 0 && high >= medium {
			s.thresholds = rules.Thresholds{Medium: medium, High: high}
		}
	}
}

// WithSimilarityThreshold sets the similarity acceptance threshold.
func WithSimilarityThreshold(tau float64) Option {
	return func(s *Service) {
		if tau > 0 {
			s.tau = tau
		}
	}
}

// WithConfidenceFloor sets the classifier guardrail threshold.
func WithConfidenceFloor(f float64) Option {
	return func(s *Service) {
		if f > 0 {
			s.confidenceFloor = f
		}
	}
}

// WithContextKeywords sets the domain-context keyword gate.
func WithContextKeywords(keywords []string) Option {
	return func(s *Service) {
		if len(keywords) > 0 {
			s.contextKeywords = keywords
		}
	}
}

// WithCacheSize bounds the decision cache. Zero disables caching.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithAICallTimeout bounds each external-capability call.
func WithAICallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithAIConfig sets the hosts and models for the OpenAI-compatible
// provider built at startup.
func WithAIConfig(cfg *ai.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.aiConfig = cfg
		}
	}
}

// WithProvider injects a pre-built AI provider, replacing the one built
// from WithAIConfig at startup. Used by tests.
func WithProvider(provider ai.Provider) Option {
	return func(s *Service) {
		s.provider = provider
	}
}

// WithStore injects a pre-built exemplar store. Used by tests.
func WithStore(store index.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:         "data",
		maxInputRunes:   symptom.DefaultMaxRunes,
		minWords:        symptom.DefaultMinWords,
		minChars:        symptom.DefaultMinChars,
		thresholds:      rules.DefaultThresholds(),
		tau:             triage.DefaultAcceptanceThreshold,
		confidenceFloor: triage.DefaultConfidenceFloor,
		contextKeywords: symptom.DefaultContextKeywords(),
		cacheSize:       1024,
		callTimeout:     triage.DefaultCallTimeout,
		aiConfig:        ai.DefaultConfig(),
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting triage service...")

	// External AI capabilities. A provider that cannot be built leaves
	// the similarity, retry and fallback stages degraded but the rules
	// stage fully functional.
	if s.provider == nil {
		provider, err := openai.NewProvider(s.aiConfig)
		if err != nil {
			s.logger.Warn(ctx, "ai provider unavailable, serving rules only", logger.Error(err))
		} else {
			s.provider = provider
		}
	}

	// Exemplar index. The build is lazy; a startup probe surfaces broken
	// artifacts in the logs instead of on the first request.
	if s.store == nil {
		s.store = index.NewMemStore(index.WithDataDir(s.dataDir))
	}
	if s.store.Ready() {
		s.logger.Info(ctx, "exemplar index ready",
			logger.Int("exemplars", s.store.Count(ctx)))
	} else {
		s.logger.Warn(ctx, "exemplar index unavailable, similarity stage disabled",
			logger.String("dataDir", s.dataDir))
	}

	s.cache = cache.New(cache.WithMaxSize(s.cacheSize))

	pipelineOpts := []triage.Option{
		triage.WithStore(s.store),
		triage.WithThresholds(s.thresholds),
		triage.WithAcceptanceThreshold(s.tau),
		triage.WithMinWords(s.minWords),
		triage.WithMinChars(s.minChars),
		triage.WithConfidenceFloor(s.confidenceFloor),
		triage.WithContextKeywords(s.contextKeywords),
		triage.WithCallTimeout(s.callTimeout),
		triage.WithLogger(s.logger),
	}
	if s.provider != nil {
		pipelineOpts = append(pipelineOpts, triage.WithProvider(s.provider))
	}
	s.pipeline = triage.New(pipelineOpts...)

	s.started = true
	s.logger.Info(ctx, "triage service started",
		logger.String("dataDir", s.dataDir),
		logger.Int("cacheSize", s.cacheSize),
		logger.Float64("similarityThreshold", s.tau),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping triage service...")

	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing ai provider", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "triage service stopped")
}

// Check runs one symptom description through the pipeline. The input is
// sanitized here so the core only ever sees clean text; identical
// descriptions are answered from the decision cache.
func (s *Service) Check(ctx context.Context, text string) types.Decision {
	sanitized := symptom.Sanitize(text, s.maxInputRunes)

	if d, ok := s.cache.Get(ctx, sanitized); ok {
		s.logger.Debug(ctx, "decision served from cache",
			logger.Int("length", len(sanitized)))
		return d
	}

	d := s.pipeline.Check(ctx, sanitized)

	s.cache.Put(ctx, sanitized, d)
	metrics.UpdateCacheSize(int(s.cache.Size()))
	return d
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":             s.started,
		"cacheSize":           s.cacheSize,
		"similarityThreshold": s.tau,
		"minWords":            s.minWords,
		"minChars":            s.minChars,
	}

	if s.started {
		stats["exemplars"] = s.store.Count(ctx)
		stats["similarityReady"] = s.store.Ready()
		stats["cachedDecisions"] = s.cache.Size()
		stats["aiAvailable"] = s.provider != nil

		// Update metrics
		metrics.UpdateExemplarCount(s.store.Count(ctx))
		metrics.UpdateCacheSize(int(s.cache.Size()))
	}

	return stats
}
