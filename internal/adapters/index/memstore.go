package index

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/symptomly/triage/pkg/metrics"
)

// MemStore is the in-memory Store implementation.
//
// The embedding matrix is held as a flat row-major slice for scan locality.
// The build runs at most once, on first use; after a successful build every
// read is lock-free. A failed build leaves the store permanently
// unavailable, which callers treat as the similarity stage being disabled.
type MemStore struct {
	loader func() (Artifact, error)

	once     sync.Once
	buildErr error
	dim      int
	flat     []float32
	meta     []Exemplar
}

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithDataDir loads the index from the artifact pair in dir.
func WithDataDir(dir string) Option {
	return func(s *MemStore) {
		s.loader = func() (Artifact, error) { return LoadArtifact(dir) }
	}
}

// WithArtifact builds the index from an in-memory artifact.
func WithArtifact(art Artifact) Option {
	return func(s *MemStore) {
		s.loader = func() (Artifact, error) { return art, nil }
	}
}

// NewMemStore creates a lazily built in-memory exemplar store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// build loads the artifact, unit-normalizes every row and flattens the
// matrix. Guarded by s.once.
func (s *MemStore) build() {
	if s.loader == nil {
		s.buildErr = ErrUnavailable
		return
	}
	art, err := s.loader()
	if err != nil {
		s.buildErr = err
		return
	}
	if err := art.Validate(); err != nil {
		s.buildErr = err
		return
	}

	s.dim = art.Dim
	s.meta = art.Meta
	s.flat = make([]float32, 0, len(art.Vectors)*art.Dim)
	for _, row := range art.Vectors {
		s.flat = append(s.flat, normalizeRow(row)...)
	}
	metrics.UpdateExemplarCount(len(s.meta))
}

// Ready reports whether the index has been built successfully. Calling it
// triggers the build if it has not run yet.
func (s *MemStore) Ready() bool {
	s.once.Do(s.build)
	return s.buildErr == nil
}

// Count returns the number of exemplars in the index.
func (s *MemStore) Count(_ context.Context) int {
	s.once.Do(s.build)
	if s.buildErr != nil {
		return 0
	}
	return len(s.meta)
}

// Nearest returns the exemplar with the highest cosine similarity to the
// query. The query is defensively re-normalized so callers can pass raw
// embedder output. Ties resolve to the earliest row.
func (s *MemStore) Nearest(_ context.Context, vec []float32) (Match, error) {
	s.once.Do(s.build)
	if s.buildErr != nil {
		return Match{}, ErrUnavailable
	}
	if len(s.meta) == 0 {
		return Match{}, ErrEmptyIndex
	}
	if len(vec) != s.dim {
		return Match{}, ErrBadQuery
	}

	start := time.Now()
	query := normalizeRow(vec)

	best := -1
	bestSim := math.Inf(-1)
	for i := 0; i < len(s.meta); i++ {
		row := s.flat[i*s.dim : (i+1)*s.dim]
		var dot float64
		for j, q := range query {
			dot += float64(q) * float64(row[j])
		}
		if dot > bestSim {
			bestSim = dot
			best = i
		}
	}
	metrics.RecordSimilaritySearchLatency(float64(time.Since(start).Microseconds()) / 1000.0)

	return Match{Exemplar: s.meta[best], Similarity: bestSim}, nil
}

// normalizeRow returns a unit-length copy of v. Zero vectors are returned
// as a copy unchanged.
func normalizeRow(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)

	var sumSquares float64
	for _, x := range out {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range out {
			out[i] *= norm
		}
	}
	return out
}
