package similar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/shopsight/prodsim/internal/domain"
	"github.com/shopsight/prodsim/internal/domain/search"
	"github.com/shopsight/prodsim/internal/index"
	"github.com/shopsight/prodsim/internal/metrics"
	"github.com/shopsight/prodsim/internal/vector"
)

// Service runs exact similarity search within a product's cluster, one
// partition per data source, over cached flat indexes.
type Service struct {
	snaps  SnapshotSource
	cache  *index.Cache
	logger *zap.Logger
}

// New creates a similarity search service.
func New(snaps SnapshotSource, cache *index.Cache, logger *zap.Logger) *Service {
	return &Service{snaps: snaps, cache: cache, logger: logger}
}

// FindSimilar returns per-source neighbor matches for a product.
//
// The product's cluster comes from its first embedding row. Each data source
// in the cluster is searched separately; a source contributes at most
// req.Count() matches with score >= req.MinScore(), best first, and never the
// query product itself. Sources keep their first-appearance order; matches
// are not re-sorted across sources.
//
// A product with no embedding row yields an empty result, not an error.
// The string slice carries data-quality warnings (rows or partitions skipped
// during the search); it is informational and never implies failure.
func (s *Service) FindSimilar(
	ctx context.Context, productID string, req *search.Request,
) ([]search.Match, []string, error) {
	start := time.Now()

	snap, err := s.snaps.Snapshot(ctx)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	matches, warnings, err := s.search(snap, productID, req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	metrics.SearchDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	return matches, warnings, nil
}

// FindSimilarWithDetails joins neighbor matches with catalog details and
// applies the presentation pipeline: optional best-price filter, multi-key
// sort, and the validity gate on name and price.
//
// A product ID absent from the catalog yields domain.ErrProductNotFound,
// distinct from a product with no qualifying neighbors, which yields an
// empty result.
func (s *Service) FindSimilarWithDetails(
	ctx context.Context, productID string, req *search.Request,
) ([]search.Result, []string, error) {
	start := time.Now()

	snap, err := s.snaps.Snapshot(ctx)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	queryProduct, ok := snap.Product(productID)
	if !ok {
		return nil, nil, fmt.Errorf("product %s: %w", productID, domain.ErrProductNotFound)
	}

	matches, warnings, err := s.search(snap, productID, req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	results := make([]search.Result, 0, len(matches))
	for _, m := range matches {
		if p, found := snap.Product(m.ProductID); found {
			results = append(results, search.JoinDetails(m, &p))
		} else {
			results = append(results, search.JoinDetails(m, nil))
		}
	}

	if req.BestPriceOnly() {
		results = filterBestPrice(results, queryProduct.SalePrice)
	}

	sortResults(results, req.SortKeys(), req.SortDirs())

	// Data-quality gate, applied after ordering so it cannot change ranks.
	// Candidates without a catalog row fail it by definition.
	kept := results[:0]
	for _, r := range results {
		p, found := snap.Product(r.ProductID)
		if found && p.HasValidName() && p.HasValidPrice() {
			kept = append(kept, r)
		}
	}

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	metrics.SearchDuration.WithLabelValues("details").Observe(time.Since(start).Seconds())
	return kept, warnings, nil
}

func (s *Service) search(
	snap *domain.Snapshot, productID string, req *search.Request,
) ([]search.Match, []string, error) {
	own := snap.RowsFor(productID)
	if len(own) == 0 {
		return nil, nil, nil
	}

	clusterID := own[0].ClusterID
	query, err := vector.Parse(own[0].RawVector)
	if err != nil {
		return nil, nil, fmt.Errorf("query vector for %s: %w: %w", productID, domain.ErrDataUnavailable, err)
	}

	var matches []search.Match
	var warnings []string
	// Overfetch one extra so the query product's own row does not crowd
	// out a qualifying neighbor.
	k := req.Count() + 1

	for _, part := range partitionBySource(snap.ClusterRows(clusterID)) {
		built, ok := s.cache.Get(clusterID, part.source)
		if ok {
			metrics.IndexCacheTotal.WithLabelValues("hit").Inc()
		} else {
			metrics.IndexCacheTotal.WithLabelValues("miss").Inc()
			built = s.buildPartition(clusterID, part.source, part.rows)
			if built == nil {
				warnings = append(warnings, fmt.Sprintf(
					"source %s: no usable embedding rows", part.source))
				continue
			}
			s.cache.Put(clusterID, part.source, built)
		}
		warnings = append(warnings, built.Warnings...)

		hits, err := built.Index.Search(query, k)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf(
				"source %s: skipped, query vector has %d dimensions, index has %d",
				part.source, len(query), built.Index.Dim()))
			s.logger.Warn("partition skipped, query dimension mismatch",
				zap.Int("cluster", clusterID),
				zap.String("source", part.source),
				zap.Error(err),
			)
			continue
		}

		taken := 0
		for _, h := range hits {
			pid := built.IDs[h.Position]
			if pid == productID {
				continue
			}
			if h.Score < req.MinScore() {
				continue
			}
			matches = append(matches, search.Match{
				ProductID: pid,
				ClusterID: clusterID,
				Source:    part.source,
				Score:     h.Score,
			})
			taken++
			if taken == req.Count() {
				break
			}
		}
	}

	return matches, warnings, nil
}

// buildPartition parses the partition's vectors and builds its flat index.
// Rows that fail to parse or disagree on dimensionality are skipped with a
// warning rather than failing the build. Returns nil when no row is usable.
func (s *Service) buildPartition(clusterID int, source string, rows []domain.Embedding) *index.Partition {
	buildStart := time.Now()

	vectors := make([][]float32, 0, len(rows))
	ids := make([]string, 0, len(rows))
	var warnings []string
	dim := 0

	for _, row := range rows {
		v, err := vector.Parse(row.RawVector)
		if err != nil {
			metrics.SkippedRowsTotal.WithLabelValues("parse_error").Inc()
			warnings = append(warnings, fmt.Sprintf(
				"source %s: product %s skipped, malformed vector", source, row.ProductID))
			s.logger.Warn("embedding row skipped, malformed vector",
				zap.String("product_id", row.ProductID),
				zap.Int("cluster", clusterID),
				zap.String("source", source),
				zap.Error(err),
			)
			continue
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			metrics.SkippedRowsTotal.WithLabelValues("dim_mismatch").Inc()
			warnings = append(warnings, fmt.Sprintf(
				"source %s: product %s skipped, vector has %d dimensions, partition has %d",
				source, row.ProductID, len(v), dim))
			s.logger.Warn("embedding row skipped, dimension mismatch",
				zap.String("product_id", row.ProductID),
				zap.Int("cluster", clusterID),
				zap.String("source", source),
				zap.Int("got", len(v)),
				zap.Int("want", dim),
			)
			continue
		}
		vectors = append(vectors, v)
		ids = append(ids, row.ProductID)
	}

	if len(vectors) == 0 {
		return nil
	}

	flat, err := index.Build(vectors)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		s.logger.Error("index build failed",
			zap.Int("cluster", clusterID),
			zap.String("source", source),
			zap.Error(err),
		)
		return nil
	}

	metrics.IndexBuildsTotal.WithLabelValues("ok").Inc()
	metrics.IndexBuildDuration.Observe(time.Since(buildStart).Seconds())
	return &index.Partition{Index: flat, IDs: ids, Warnings: warnings}
}

type partitionRows struct {
	source string
	rows   []domain.Embedding
}

// partitionBySource groups cluster rows by data source, sources ordered by
// first appearance so partition order is stable for a given snapshot.
func partitionBySource(rows []domain.Embedding) []partitionRows {
	var parts []partitionRows
	pos := make(map[string]int)
	for _, r := range rows {
		i, ok := pos[r.Source]
		if !ok {
			i = len(parts)
			pos[r.Source] = i
			parts = append(parts, partitionRows{source: r.Source})
		}
		parts[i].rows = append(parts[i].rows, r)
	}
	return parts
}

// filterBestPrice keeps rows strictly cheaper than the query product.
// An unpriced query product cannot be undercut, so everything drops.
func filterBestPrice(results []search.Result, queryPrice *float64) []search.Result {
	kept := results[:0]
	if queryPrice == nil {
		return kept
	}
	for _, r := range results {
		if r.SalePrice != nil && *r.SalePrice < *queryPrice {
			kept = append(kept, r)
		}
	}
	return kept
}

// sortResults orders results by the configured key list. The sort is stable,
// so rows equal under every key keep their per-source arrival order.
func sortResults(results []search.Result, keys []search.SortKey, dirs []search.Direction) {
	sort.SliceStable(results, func(i, j int) bool {
		for n, key := range keys {
			a, b := sortValue(results[i], key), sortValue(results[j], key)
			if a == b {
				continue
			}
			if dirs[n] == search.Asc {
				return a < b
			}
			return a > b
		}
		return false
	})
}

// sortValue extracts the comparable value for one sort key. Missing prices
// rank last under ascending order; the validity gate removes them anyway.
func sortValue(r search.Result, key search.SortKey) float64 {
	switch key {
	case search.SortByScore:
		return r.Score
	case search.SortByPrice:
		if r.SalePrice == nil {
			return maxPrice
		}
		return *r.SalePrice
	}
	return 0
}

const maxPrice = 1e308
