package embedding

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopsight/prodsim/internal/db"
	"github.com/shopsight/prodsim/internal/domain"
)

// store is the consumer interface for embedding rows (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo loads and stores product embedding rows.
type Repo struct {
	store  store
	prefix string
}

// New creates an embedding repository. prefix is the key namespace, e.g. "prodsim:".
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Get returns the embedding row for a product.
func (r *Repo) Get(ctx context.Context, productID string) (domain.Embedding, error) {
	key := r.key(productID)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.Embedding{}, fmt.Errorf("hgetall %s: %w: %w", key, domain.ErrDataUnavailable, err)
	}
	if len(m) == 0 {
		return domain.Embedding{}, domain.ErrProductNotFound
	}
	return parseHashFields(productID, m), nil
}

// All returns every embedding row. Row order follows the key scan, which
// makes the snapshot ordering stable for a given keyspace.
func (r *Repo) All(ctx context.Context) ([]domain.Embedding, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"embedding:*")
	if err != nil {
		return nil, fmt.Errorf("scan embeddings: %w: %w", domain.ErrDataUnavailable, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w: %w", domain.ErrDataUnavailable, err)
	}

	rows := make([]domain.Embedding, 0, len(keys))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		rows = append(rows, parseHashFields(r.extractID(keys[i]), m))
	}
	return rows, nil
}

// UpsertMulti stores a batch of embedding rows.
func (r *Repo) UpsertMulti(ctx context.Context, rows []domain.Embedding) error {
	if len(rows) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(rows))
	for i, row := range rows {
		items[i] = db.HashSetItem{
			Key:    r.key(row.ProductID),
			Fields: buildHashFields(row),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset multi: %w", err)
	}
	return nil
}

func (r *Repo) key(productID string) string {
	return r.prefix + "embedding:" + productID
}

func (r *Repo) extractID(key string) string {
	return strings.TrimPrefix(key, r.prefix+"embedding:")
}

// buildHashFields converts an embedding row into a flat hash map.
// The vector stays in its textual form until index build time.
func buildHashFields(e domain.Embedding) map[string]string {
	return map[string]string{
		"cluster_id":  strconv.Itoa(e.ClusterID),
		"data_source": e.Source,
		"vector":      e.RawVector,
	}
}

// parseHashFields converts a flat hash map back into an embedding row.
// A malformed cluster_id yields cluster -1, which no request ever targets.
func parseHashFields(productID string, m map[string]string) domain.Embedding {
	clusterID := -1
	if n, err := strconv.Atoi(m["cluster_id"]); err == nil {
		clusterID = n
	}
	return domain.Embedding{
		ProductID: productID,
		ClusterID: clusterID,
		Source:    m["data_source"],
		RawVector: m["vector"],
	}
}
