package index

import "errors"

// Sentinel kinds for exemplar index errors.
var (
	ErrUnavailable       = errors.New("exemplar index unavailable")
	ErrEmptyIndex        = errors.New("exemplar index is empty")
	ErrRowMismatch       = errors.New("embedding rows and metadata rows differ")
	ErrDimensionMismatch = errors.New("inconsistent embedding dimension")
	ErrBadQuery          = errors.New("query vector dimension mismatch")
)
