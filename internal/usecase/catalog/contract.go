package catalog

import (
	"context"

	"github.com/shopsight/prodsim/internal/domain"
)

// ProductRepository defines the storage contract for catalog products.
type ProductRepository interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	All(ctx context.Context) ([]domain.Product, error)
	SearchByName(ctx context.Context, query string, limit int) ([]domain.Product, error)
}

// EmbeddingRepository reads the embedding rows backing the snapshot.
type EmbeddingRepository interface {
	All(ctx context.Context) ([]domain.Embedding, error)
}
