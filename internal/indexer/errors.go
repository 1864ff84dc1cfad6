package indexer

import "errors"

// Sentinel errors for artifact building.
var (
	ErrEmbedderRequired = errors.New("embedder is required")
	ErrNoExemplars      = errors.New("no exemplars to index")
	ErrBadHeader        = errors.New("csv header has no text column")
	ErrEmbed            = errors.New("embedding failed")
)
