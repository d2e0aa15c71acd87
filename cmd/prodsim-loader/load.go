package main

import (
	"context"

	"github.com/shopsight/prodsim/internal/domain"
	embeddingrepo "github.com/shopsight/prodsim/internal/repository/embedding"
	productrepo "github.com/shopsight/prodsim/internal/repository/product"
)

func loadProducts(
	ctx context.Context,
	cfg config,
	repo *productrepo.Repo,
	metrics *loaderMetrics,
) (ingestResult, error) {
	var readErr error
	batches := produce(cfg, cfg.productsPath, productRow.toDomain, &readErr)
	result := ingest(ctx, batches, cfg.workers,
		func(ctx context.Context, batch []domain.Product) error {
			return repo.UpsertMulti(ctx, batch)
		}, metrics, "product")
	return result, readErr
}

func loadEmbeddings(
	ctx context.Context,
	cfg config,
	repo *embeddingrepo.Repo,
	metrics *loaderMetrics,
) (ingestResult, error) {
	var readErr error
	batches := produce(cfg, cfg.embeddingsPath, embeddingRow.toDomain, &readErr)
	result := ingest(ctx, batches, cfg.workers,
		func(ctx context.Context, batch []domain.Embedding) error {
			return repo.UpsertMulti(ctx, batch)
		}, metrics, "embedding")
	return result, readErr
}
