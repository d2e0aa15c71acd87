package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopsight/prodsim/internal/db"
	"github.com/shopsight/prodsim/internal/domain"
)

const indexName = "catalog-idx"

// store is the consumer interface for the product catalog (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements usecase catalog.ProductRepository.
type Repo struct {
	store  store
	prefix string
}

// New creates a product repository. prefix is the key namespace, e.g. "prodsim:".
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Get returns a product by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Product, error) {
	key := r.key(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("hgetall %s: %w: %w", key, domain.ErrDataUnavailable, err)
	}
	if len(m) == 0 {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return parseHashFields(id, m), nil
}

// GetMulti returns products for the given IDs in one pipelined round-trip.
// Missing products are skipped; the result preserves input order.
func (r *Repo) GetMulti(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w: %w", domain.ErrDataUnavailable, err)
	}

	products := make([]domain.Product, 0, len(ids))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		products = append(products, parseHashFields(ids[i], m))
	}
	return products, nil
}

// All returns every product in the catalog.
func (r *Repo) All(ctx context.Context) ([]domain.Product, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"product:*")
	if err != nil {
		return nil, fmt.Errorf("scan products: %w: %w", domain.ErrDataUnavailable, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = r.extractID(key)
	}
	return r.GetMulti(ctx, ids)
}

// UpsertMulti stores a batch of products.
func (r *Repo) UpsertMulti(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(products))
	for i := range products {
		items[i] = db.HashSetItem{
			Key:    r.key(products[i].ID),
			Fields: buildHashFields(&products[i]),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset multi: %w", err)
	}
	return nil
}

// SearchByName returns products whose name matches the query text,
// ordered by relevance.
func (r *Repo) SearchByName(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 20
	}

	result, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName: indexName,
		Field:     "product_name",
		Query:     query,
		Limit:     limit,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("search by name: %w: %w", domain.ErrDataUnavailable, err)
		}
		return nil, fmt.Errorf("search by name: %w", err)
	}

	products := make([]domain.Product, 0, len(result.Entries))
	for _, entry := range result.Entries {
		products = append(products, parseHashFields(r.extractID(entry.Key), entry.Fields))
	}
	return products, nil
}

// Count returns the number of indexed products.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, "*")
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}

// EnsureIndex creates the catalog search index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", indexName, err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(indexName).
		Prefix(r.prefix+"product:").
		Text("product_name").
		Tag("data_source").
		Numeric("sale_price").
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", indexName, err)
	}
	return nil
}

// RecreateIndex drops the catalog search index if present and builds it
// fresh. Used by the loader after a schema-changing reload.
func (r *Repo) RecreateIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, indexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", indexName, err)
	}
	return r.EnsureIndex(ctx)
}

func (r *Repo) key(id string) string {
	return r.prefix + "product:" + id
}

func (r *Repo) extractID(key string) string {
	return strings.TrimPrefix(key, r.prefix+"product:")
}
