package search

import (
	"fmt"

	"github.com/shopsight/prodsim/internal/domain"
)

// Search parameter limits.
const (
	DefaultCount    = 10
	MaxCount        = 20
	DefaultMinScore = 0.5
)

// SortKey names a result column usable for ordering.
type SortKey string

const (
	// SortByScore orders by similarity score.
	SortByScore SortKey = "score"
	// SortByPrice orders by sale price.
	SortByPrice SortKey = "price"
)

// Direction is a sort direction for one key.
type Direction string

const (
	// Asc sorts ascending.
	Asc Direction = "asc"
	// Desc sorts descending.
	Desc Direction = "desc"
)

// DefaultSort is the default ordering: best score first, cheaper first
// among equal scores.
func DefaultSort() ([]SortKey, []Direction) {
	return []SortKey{SortByScore, SortByPrice}, []Direction{Desc, Asc}
}

// Request is a validated similar-product query.
type Request struct {
	count         int
	minScore      float64
	bestPriceOnly bool
	sortKeys      []SortKey
	sortDirs      []Direction
}

// New validates and normalizes similar-search parameters.
// count defaults to DefaultCount and is clamped to [1, MaxCount]; minScore
// must be within [0, 1]; sortKeys and sortDirs must have matching lengths
// and default to score desc, price asc.
func New(
	count int, minScore float64, bestPriceOnly bool,
	sortKeys []SortKey, sortDirs []Direction,
) (Request, error) {
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		count = MaxCount
	}
	if minScore < 0 || minScore > 1 {
		return Request{}, fmt.Errorf("%w: min_score must be between 0 and 1, got %g",
			domain.ErrInvalidRequest, minScore)
	}
	if len(sortKeys) == 0 && len(sortDirs) == 0 {
		sortKeys, sortDirs = DefaultSort()
	}
	if len(sortKeys) != len(sortDirs) {
		return Request{}, fmt.Errorf("%w: %d sort keys for %d directions",
			domain.ErrInvalidRequest, len(sortKeys), len(sortDirs))
	}
	for _, k := range sortKeys {
		if k != SortByScore && k != SortByPrice {
			return Request{}, fmt.Errorf("%w: unknown sort key %q", domain.ErrInvalidRequest, k)
		}
	}
	for _, d := range sortDirs {
		if d != Asc && d != Desc {
			return Request{}, fmt.Errorf("%w: unknown sort direction %q", domain.ErrInvalidRequest, d)
		}
	}

	return Request{
		count:         count,
		minScore:      minScore,
		bestPriceOnly: bestPriceOnly,
		sortKeys:      sortKeys,
		sortDirs:      sortDirs,
	}, nil
}

// Count returns the per-source result cap.
func (r *Request) Count() int { return r.count }

// MinScore returns the minimum similarity threshold (inclusive).
func (r *Request) MinScore() float64 { return r.minScore }

// BestPriceOnly reports whether only cheaper-than-query rows are kept.
func (r *Request) BestPriceOnly() bool { return r.bestPriceOnly }

// SortKeys returns the ordering key list.
func (r *Request) SortKeys() []SortKey { return r.sortKeys }

// SortDirs returns the ordering direction list, index-matched to SortKeys.
func (r *Request) SortDirs() []Direction { return r.sortDirs }
