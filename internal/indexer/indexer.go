// Package indexer builds the exemplar artifacts consumed by the similarity
// store: it loads labelled exemplar phrases from a CSV (or falls back to the
// built-in seed list), embeds them concurrently, unit-normalizes the vectors
// and writes the matrix and metadata pair atomically.
package indexer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/symptomly/triage/internal/adapters/ai"
	"github.com/symptomly/triage/internal/adapters/index"
	"github.com/symptomly/triage/internal/domain/rules"
	"github.com/symptomly/triage/internal/domain/types"
	"github.com/symptomly/triage/pkg/logger"
)

// Indexer turns labelled exemplar phrases into a frozen similarity artifact.
type Indexer struct {
	embedder   ai.Embedder
	engine     *rules.Engine
	thresholds rules.Thresholds
	csvPath    string
	outputDir  string
	poolSize   int
	logger     logger.Logger
}

// Option applies a configuration option to the Indexer.
type Option func(*Indexer)

// WithEmbedder sets the embedding capability. Required for Build.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(ix *Indexer) {
		ix.embedder = embedder
	}
}

// WithEngine replaces the rule engine used to label unlabelled exemplars.
func WithEngine(engine *rules.Engine) Option {
	return func(ix *Indexer) {
		if engine != nil {
			ix.engine = engine
		}
	}
}

// WithThresholds sets the score to risk band mapping for labelling.
func WithThresholds(t rules.Thresholds) Option {
	return func(ix *Indexer) {
		if t.Medium > 0 && t.High >= t.Medium {
			ix.thresholds = t
		}
	}
}

// WithCSVPath points at a curated exemplar CSV. When empty, the built-in
// seed list is used.
func WithCSVPath(path string) Option {
	return func(ix *Indexer) {
		ix.csvPath = path
	}
}

// WithOutputDir sets the directory the artifacts are written to.
func WithOutputDir(dir string) Option {
	return func(ix *Indexer) {
		if dir != "" {
			ix.outputDir = dir
		}
	}
}

// WithPoolSize sets the embedding worker pool size.
func WithPoolSize(size int) Option {
	return func(ix *Indexer) {
		if size > 0 {
			ix.poolSize = size
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(ix *Indexer) {
		if l != nil {
			ix.logger = l
		}
	}
}

// New constructs an Indexer with default configuration.
func New(opts ...Option) *Indexer {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	ix := &Indexer{
		engine:     rules.NewEngine(),
		thresholds: rules.DefaultThresholds(),
		outputDir:  "data",
		poolSize:   poolSize,
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.logger == nil {
		ix.logger = logger.Get()
	}
	return ix
}

// LoadExemplars returns the exemplars to index: the curated CSV when one is
// configured, the built-in seed list otherwise. Seed phrases are labelled by
// running them through the rule engine, so the index always agrees with the
// rule tables.
func (ix *Indexer) LoadExemplars(_ context.Context) ([]index.Exemplar, error) {
	if ix.csvPath != "" {
		f, err := os.Open(ix.csvPath)
		if err != nil {
			return nil, fmt.Errorf("opening exemplar csv: %w", err)
		}
		defer func() { _ = f.Close() }()
		return ix.parseCSV(f)
	}

	exemplars := make([]index.Exemplar, 0, len(seedTexts))
	for _, text := range seedTexts {
		exemplars = append(exemplars, index.Exemplar{
			Text: text,
			Risk: ix.label(text),
		})
	}
	return exemplars, nil
}

// label derives a risk band for an exemplar from the rule tables.
func (ix *Indexer) label(text string) types.RiskLevel {
	return rules.Band(ix.engine.Score(text).Score, ix.thresholds)
}

// parseCSV reads exemplars from a header-carrying CSV. The text column may
// be named text, exemplar, phrase or symptom; the risk column risk, severity
// or label. A missing risk column falls back to rule-engine labelling, an
// unknown risk value resolves to LOW, and blank rows are skipped.
func (ix *Indexer) parseCSV(r io.Reader) ([]index.Exemplar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	textCol, riskCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "text", "exemplar", "phrase", "symptom":
			if textCol < 0 {
				textCol = i
			}
		case "risk", "severity", "label":
			if riskCol < 0 {
				riskCol = i
			}
		}
	}
	if textCol < 0 {
		return nil, ErrBadHeader
	}

	var exemplars []index.Exemplar
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}
		if textCol >= len(record) {
			continue
		}
		text := strings.TrimSpace(record[textCol])
		if text == "" {
			continue
		}

		risk := types.RiskLevel("")
		if riskCol >= 0 && riskCol < len(record) && strings.TrimSpace(record[riskCol]) != "" {
			risk = types.ParseRiskLevel(record[riskCol])
		} else {
			risk = ix.label(text)
		}
		exemplars = append(exemplars, index.Exemplar{Text: text, Risk: risk})
	}
	return exemplars, nil
}

// Build loads the exemplars, embeds them concurrently and writes the
// artifact pair to the output directory.
func (ix *Indexer) Build(ctx context.Context) (index.Artifact, error) {
	if ix.embedder == nil {
		return index.Artifact{}, ErrEmbedderRequired
	}

	exemplars, err := ix.LoadExemplars(ctx)
	if err != nil {
		return index.Artifact{}, err
	}
	if len(exemplars) == 0 {
		return index.Artifact{}, ErrNoExemplars
	}

	ix.logger.Info(ctx, "embedding exemplars",
		logger.Int("count", len(exemplars)),
		logger.Int("poolSize", ix.poolSize))

	vectors, err := ix.embedAll(ctx, exemplars)
	if err != nil {
		return index.Artifact{}, err
	}

	art := index.Artifact{
		Dim:     len(vectors[0]),
		Vectors: vectors,
		Meta:    exemplars,
	}
	if err := art.Validate(); err != nil {
		return index.Artifact{}, err
	}
	if err := index.SaveArtifact(ix.outputDir, art); err != nil {
		return index.Artifact{}, err
	}

	ix.logger.Info(ctx, "artifact written",
		logger.String("dir", ix.outputDir),
		logger.Int("exemplars", len(exemplars)),
		logger.Int("dim", art.Dim))
	return art, nil
}

// embedAll embeds every exemplar on the worker pool, preserving input order.
func (ix *Indexer) embedAll(ctx context.Context, exemplars []index.Exemplar) ([][]float32, error) {
	pool, err := ants.NewPool(ix.poolSize)
	if err != nil {
		return nil, fmt.Errorf("creating embed pool: %w", err)
	}
	defer pool.Release()

	vectors := make([][]float32, len(exemplars))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, ex := range exemplars {
		i, text := i, ex.Text
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			vec, embedErr := ix.embedder.EmbedText(ctx, text)
			if embedErr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%w: %q: %w", ErrEmbed, text, embedErr)
				}
				mu.Unlock()
				return
			}
			vectors[i] = unitNormalize(vec)
		})
		// A submit failure must still wait for the workers already in
		// flight before vectors can be abandoned.
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("submitting embed task: %w", submitErr)
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: empty vector for %q", ErrEmbed, exemplars[i].Text)
		}
	}
	return vectors, nil
}

// unitNormalize scales a vector to unit length; zero vectors pass through.
func unitNormalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v * inv
	}
	return out
}
