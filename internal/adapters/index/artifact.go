package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// On-disk artifact names. The matrix and metadata files are positionally
// paired: row i of the matrix embeds Meta[i].Text.
const (
	MatrixFile = "exemplars.mus"
	MetaFile   = "exemplars.json"
)

// Artifact is the decoded on-disk exemplar index: an N x Dim float32
// matrix plus its positionally paired metadata.
type Artifact struct {
	Dim     int
	Vectors [][]float32
	Meta    []Exemplar
}

// Validate checks the positional pairing and dimension invariants.
func (a Artifact) Validate() error {
	if len(a.Vectors) != len(a.Meta) {
		return fmt.Errorf("%w: %d vectors, %d metadata rows", ErrRowMismatch, len(a.Vectors), len(a.Meta))
	}
	for i, row := range a.Vectors {
		if len(row) != a.Dim {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), a.Dim)
		}
	}
	return nil
}

// EncodeMatrix serializes the matrix as dim, count, then row-major float32s.
func EncodeMatrix(dim int, vectors [][]float32) ([]byte, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrDimensionMismatch, dim)
	}
	size := varint.Int.Size(dim) + varint.Int.Size(len(vectors))
	for i, row := range vectors {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), dim)
		}
		for _, v := range row {
			size += raw.Float32.Size(v)
		}
	}

	bs := make([]byte, size)
	n := varint.Int.Marshal(dim, bs)
	n += varint.Int.Marshal(len(vectors), bs[n:])
	for _, row := range vectors {
		for _, v := range row {
			n += raw.Float32.Marshal(v, bs[n:])
		}
	}
	return bs, nil
}

// DecodeMatrix reverses EncodeMatrix.
func DecodeMatrix(bs []byte) (int, [][]float32, error) {
	dim, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return 0, nil, fmt.Errorf("decoding dimension: %w", err)
	}
	count, m, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return 0, nil, fmt.Errorf("decoding row count: %w", err)
	}
	n += m
	if dim <= 0 || count < 0 {
		return 0, nil, fmt.Errorf("%w: dim %d, count %d", ErrDimensionMismatch, dim, count)
	}

	vectors := make([][]float32, count)
	for i := 0; i < count; i++ {
		row := make([]float32, dim)
		for j := 0; j < dim; j++ {
			v, m, err := raw.Float32.Unmarshal(bs[n:])
			if err != nil {
				return 0, nil, fmt.Errorf("decoding row %d: %w", i, err)
			}
			row[j] = v
			n += m
		}
		vectors[i] = row
	}
	return dim, vectors, nil
}

// SaveArtifact writes the matrix and metadata files atomically: each file
// is written to a temp path in the same directory and renamed into place.
func SaveArtifact(dir string, art Artifact) error {
	if err := art.Validate(); err != nil {
		return err
	}

	matrix, err := EncodeMatrix(art.Dim, art.Vectors)
	if err != nil {
		return err
	}
	meta, err := json.MarshalIndent(art.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, MatrixFile), matrix); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, MetaFile), meta)
}

// LoadArtifact reads and validates the matrix/metadata pair. Any mismatch
// between the two files fails the load.
func LoadArtifact(dir string) (Artifact, error) {
	matrix, err := os.ReadFile(filepath.Join(dir, MatrixFile))
	if err != nil {
		return Artifact{}, fmt.Errorf("reading %s: %w", MatrixFile, err)
	}
	metaRaw, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if err != nil {
		return Artifact{}, fmt.Errorf("reading %s: %w", MetaFile, err)
	}

	dim, vectors, err := DecodeMatrix(matrix)
	if err != nil {
		return Artifact{}, err
	}
	var meta []Exemplar
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return Artifact{}, fmt.Errorf("decoding metadata: %w", err)
	}

	art := Artifact{Dim: dim, Vectors: vectors, Meta: meta}
	if err := art.Validate(); err != nil {
		return Artifact{}, err
	}
	return art, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
