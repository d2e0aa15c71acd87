// Package prodsim embeds the product similarity engine in a Go program.
// It connects to the same Redis catalog the HTTP service uses, so a batch
// job or internal tool can run similarity queries without going through
// the API.
package prodsim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/shopsight/prodsim/internal/db/redis"
	"github.com/shopsight/prodsim/internal/domain"
	"github.com/shopsight/prodsim/internal/domain/search"
	"github.com/shopsight/prodsim/internal/index"
	embeddingrepo "github.com/shopsight/prodsim/internal/repository/embedding"
	productrepo "github.com/shopsight/prodsim/internal/repository/product"
	cataloguc "github.com/shopsight/prodsim/internal/usecase/catalog"
	similaruc "github.com/shopsight/prodsim/internal/usecase/similar"
)

// Sentinel errors surfaced by Client methods. Match with errors.Is.
var (
	// ErrNotFound reports a product ID absent from the catalog.
	ErrNotFound = domain.ErrProductNotFound
	// ErrInvalidQuery reports rejected query parameters.
	ErrInvalidQuery = domain.ErrInvalidRequest
	// ErrUnavailable reports a failed catalog or store read.
	ErrUnavailable = domain.ErrDataUnavailable
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the prodsim library entry point.
type Client struct {
	store      *dbRedis.Store
	embeddings *embeddingrepo.Repo
	catalogSvc *cataloguc.Service
	similarSvc *similaruc.Service
}

// New creates a Client and connects to Redis.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:   "prodsim:",
		snapshotTTL: cataloguc.DefaultTTL,
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("prodsim: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("prodsim: create store: %w", err)
	}

	if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("prodsim: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store *dbRedis.Store, cfg *clientConfig) *Client {
	products := productrepo.New(store, cfg.keyPrefix)
	embeddings := embeddingrepo.New(store, cfg.keyPrefix)

	catalogSvc := cataloguc.New(products, embeddings, cfg.snapshotTTL, cfg.logger)
	similarSvc := similaruc.New(catalogSvc, index.NewCache(), cfg.logger)

	return &Client{
		store:      store,
		embeddings: embeddings,
		catalogSvc: catalogSvc,
		similarSvc: similarSvc,
	}
}

// Close releases the database connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Invalidate discards the cached catalog snapshot; the next query reloads it.
func (c *Client) Invalidate() {
	c.catalogSvc.Invalidate()
}

// FindSimilar returns bare similarity matches for the product, without
// catalog details. A product with no embedding row yields an empty slice.
// The second return value lists data-quality warnings hit while serving
// the query, such as catalog rows skipped for malformed embeddings.
func (c *Client) FindSimilar(
	ctx context.Context, productID string, opts *SimilarOptions,
) ([]Match, []string, error) {
	req, err := opts.toRequest()
	if err != nil {
		return nil, nil, err
	}
	matches, warnings, err := c.similarSvc.FindSimilar(ctx, productID, &req)
	if err != nil {
		return nil, nil, err
	}
	return fromMatches(matches), warnings, nil
}

// FindSimilarWithDetails returns similarity matches joined with catalog
// details, filtered and ordered per opts. A product ID absent from the
// catalog yields ErrNotFound. Warnings report skipped or unusable rows
// without failing the query.
func (c *Client) FindSimilarWithDetails(
	ctx context.Context, productID string, opts *SimilarOptions,
) ([]SimilarProduct, []string, error) {
	req, err := opts.toRequest()
	if err != nil {
		return nil, nil, err
	}
	results, warnings, err := c.similarSvc.FindSimilarWithDetails(ctx, productID, &req)
	if err != nil {
		return nil, nil, err
	}
	return fromResults(results), warnings, nil
}

// Embedding fetches the stored similarity row for a product: its cluster
// assignment, data source, and raw vector text. IDs without an embedding
// row yield ErrNotFound even when the product exists in the catalog.
func (c *Client) Embedding(ctx context.Context, productID string) (Embedding, error) {
	e, err := c.embeddings.Get(ctx, productID)
	if err != nil {
		return Embedding{}, err
	}
	return fromEmbedding(e), nil
}

// Product fetches one catalog row by ID. Absent IDs yield ErrNotFound.
func (c *Client) Product(ctx context.Context, id string) (Product, error) {
	p, err := c.catalogSvc.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	return fromProduct(p), nil
}

// SearchProducts finds catalog rows whose name matches the query text.
func (c *Client) SearchProducts(
	ctx context.Context, query string, limit int,
) ([]Product, error) {
	found, err := c.catalogSvc.SearchByName(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Product, len(found))
	for i, p := range found {
		out[i] = fromProduct(p)
	}
	return out, nil
}

// ClusterProducts lists every product assigned to a cluster, joined with
// catalog details where available.
func (c *Client) ClusterProducts(ctx context.Context, clusterID int) ([]Product, error) {
	entries, err := c.catalogSvc.ClusterProducts(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	out := make([]Product, len(entries))
	for i, e := range entries {
		out[i] = fromProduct(e.Product)
		if out[i].Source == "" {
			out[i].Source = e.Source
		}
	}
	return out, nil
}

// Stats summarizes the loaded catalog snapshot.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	s, err := c.catalogSvc.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Products:    s.Products,
		Embeddings:  s.Rows,
		Clusters:    s.Clusters,
		DataSources: s.Sources,
		LoadedAt:    s.LoadedAt,
	}, nil
}

func (o *SimilarOptions) toRequest() (search.Request, error) {
	if o == nil {
		o = &SimilarOptions{}
	}
	keys := make([]search.SortKey, len(o.SortBy))
	dirs := make([]search.Direction, len(o.SortBy))
	for i, s := range o.SortBy {
		keys[i] = search.SortKey(s.Key)
		dirs[i] = search.Direction(s.Direction)
	}
	minScore := search.DefaultMinScore
	if o.MinScore != nil {
		minScore = *o.MinScore
	}
	return search.New(o.Count, minScore, o.BestPriceOnly, keys, dirs)
}
