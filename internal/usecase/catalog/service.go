package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopsight/prodsim/internal/domain"
	"github.com/shopsight/prodsim/internal/metrics"
)

// DefaultTTL bounds how long a loaded snapshot is served before a reload.
const DefaultTTL = time.Hour

// ClusterEntry is one cluster membership row joined with product details.
type ClusterEntry struct {
	Product domain.Product
	Source  string
}

// Stats summarizes the currently loaded snapshot.
type Stats struct {
	Products int
	Rows     int
	Clusters int
	Sources  int
	LoadedAt time.Time
}

// Service serves a TTL-cached catalog snapshot plus live product lookups.
type Service struct {
	products ProductRepository
	rows     EmbeddingRepository
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	snap     *domain.Snapshot
	loadedAt time.Time
}

// New creates a catalog service. A non-positive ttl falls back to DefaultTTL.
func New(products ProductRepository, rows EmbeddingRepository, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		products: products,
		rows:     rows,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Snapshot returns the current catalog snapshot, reloading it when the TTL
// has elapsed. Callers receive a shared immutable view.
func (s *Service) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap != nil && s.now().Sub(s.loadedAt) < s.ttl {
		return s.snap, nil
	}

	snap, err := s.load(ctx)
	if err != nil {
		metrics.SnapshotReloadsTotal.WithLabelValues("error").Inc()
		// Serve the stale snapshot if one exists rather than failing the request.
		if s.snap != nil {
			s.logger.Warn("snapshot reload failed, serving stale", zap.Error(err))
			return s.snap, nil
		}
		return nil, err
	}
	metrics.SnapshotReloadsTotal.WithLabelValues("ok").Inc()

	s.snap = snap
	s.loadedAt = s.now()
	return snap, nil
}

// Invalidate drops the cached snapshot so the next call reloads.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	s.loadedAt = time.Time{}
}

func (s *Service) load(ctx context.Context) (*domain.Snapshot, error) {
	start := s.now()

	products, err := s.products.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	rows, err := s.rows.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	snap := domain.NewSnapshot(products, rows)
	s.logger.Info("catalog snapshot loaded",
		zap.Int("products", snap.ProductCount()),
		zap.Int("rows", snap.RowCount()),
		zap.Int("clusters", snap.ClusterCount()),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return snap, nil
}

// GetProduct returns a single product by ID. This is a live read, not a
// snapshot read, so freshly loaded products are visible immediately.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// SearchByName returns products matching a free-text name query.
func (s *Service) SearchByName(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	products, err := s.products.SearchByName(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search by name: %w", err)
	}
	return products, nil
}

// ClusterProducts returns the members of a cluster with product details,
// one entry per (product, source) membership row in snapshot order.
func (s *Service) ClusterProducts(ctx context.Context, clusterID int) ([]ClusterEntry, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows := snap.ClusterRows(clusterID)
	entries := make([]ClusterEntry, 0, len(rows))
	for _, r := range rows {
		p, ok := snap.Product(r.ProductID)
		if !ok {
			p = domain.Product{ID: r.ProductID, Source: r.Source}
		}
		entries = append(entries, ClusterEntry{Product: p, Source: r.Source})
	}
	return entries, nil
}

// Stats reports snapshot-level counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Stats{}, err
	}

	s.mu.Lock()
	loadedAt := s.loadedAt
	s.mu.Unlock()

	return Stats{
		Products: snap.ProductCount(),
		Rows:     snap.RowCount(),
		Clusters: snap.ClusterCount(),
		Sources:  snap.SourceCount(),
		LoadedAt: loadedAt,
	}, nil
}
