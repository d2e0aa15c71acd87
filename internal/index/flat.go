// Package index provides the exact inner-product nearest-neighbor index used
// for intra-cluster search, plus the process-wide cache of built indexes.
package index

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDimMismatch signals vectors of inconsistent length within one index.
var ErrDimMismatch = errors.New("vector dimension mismatch")

// Hit is one nearest-neighbor result: the position of the vector in the
// build input and its inner-product score against the query.
type Hit struct {
	Position int
	Score    float64
}

// Flat is a brute-force exact inner-product index. Vectors are expected to be
// normalized upstream so inner product approximates cosine similarity; the
// index does not renormalize. Immutable after Build, safe for concurrent
// queries.
type Flat struct {
	dim     int
	vectors [][]float32
}

// Build constructs an index over the given vectors. Dimensionality is
// inferred from the first vector; any other length fails with ErrDimMismatch.
func Build(vectors [][]float32) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, errors.New("no vectors to index")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("zero-dimensional vector")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, index has %d",
				ErrDimMismatch, i, len(v), dim)
		}
	}
	return &Flat{dim: dim, vectors: vectors}, nil
}

// Dim returns the index dimensionality.
func (f *Flat) Dim() int { return f.dim }

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Search returns the top k vectors by descending inner-product score.
// Equal scores keep build order (stable). Query length must match the index
// dimensionality, else ErrDimMismatch.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			ErrDimMismatch, len(query), f.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{Position: i, Score: dot(query, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// dot accumulates in float64 so score thresholds compare stably.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
