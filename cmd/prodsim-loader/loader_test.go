package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopsight/prodsim/internal/domain"
)

func TestProductRowToDomain(t *testing.T) {
	price := 12.5
	row := productRow{
		ProductID:      "p1",
		ProductName:    "Ceiling Fan",
		SalePrice:      &price,
		DataSource:     "acme",
		Category0ID:    "c0",
		Category0Label: "Home",
		Category1ID:    "c1",
		Category1Label: "Cooling",
	}

	p := row.toDomain()
	if p.ID != "p1" || p.Name != "Ceiling Fan" || p.Source != "acme" {
		t.Fatalf("unexpected product: %+v", p)
	}
	if p.SalePrice == nil || *p.SalePrice != 12.5 {
		t.Fatalf("expected price 12.5, got %v", p.SalePrice)
	}
	want := []domain.Category{{ID: "c0", Label: "Home"}, {ID: "c1", Label: "Cooling"}}
	if len(p.Categories) != 2 || p.Categories[0] != want[0] || p.Categories[1] != want[1] {
		t.Fatalf("unexpected categories: %+v", p.Categories)
	}
}

func TestProductRowToDomain_CategoryGapStops(t *testing.T) {
	// A blank level terminates the hierarchy even when deeper levels are set.
	row := productRow{
		ProductID:      "p1",
		DataSource:     "acme",
		Category1ID:    "c1",
		Category1Label: "Orphan",
	}

	if p := row.toDomain(); len(p.Categories) != 0 {
		t.Fatalf("expected no categories, got %+v", p.Categories)
	}
}

func TestEmbeddingRowToDomain(t *testing.T) {
	row := embeddingRow{
		ProductID:  "p1",
		ClusterID:  42,
		DataSource: "acme",
		Vector:     "[0.1, 0.2]",
	}

	e := row.toDomain()
	if e.ProductID != "p1" || e.ClusterID != 42 || e.Source != "acme" {
		t.Fatalf("unexpected embedding: %+v", e)
	}
	if e.RawVector != "[0.1, 0.2]" {
		t.Fatalf("vector must be stored verbatim, got %q", e.RawVector)
	}
}

func TestIngest_CountsProcessedAndFailed(t *testing.T) {
	metrics := newLoaderMetrics(prometheus.NewRegistry())

	batches := make(chan []domain.Embedding, 3)
	batches <- []domain.Embedding{{ProductID: "a"}, {ProductID: "b"}}
	batches <- []domain.Embedding{{ProductID: "fail"}}
	batches <- []domain.Embedding{{ProductID: "c"}}
	close(batches)

	var calls atomic.Int64
	result := ingest(context.Background(), batches, 2,
		func(_ context.Context, batch []domain.Embedding) error {
			calls.Add(1)
			if batch[0].ProductID == "fail" {
				return errors.New("boom")
			}
			return nil
		}, metrics, "embedding")

	if calls.Load() != 3 {
		t.Fatalf("expected 3 upsert calls, got %d", calls.Load())
	}
	if result.Processed != 3 {
		t.Fatalf("expected 3 processed rows, got %d", result.Processed)
	}
	if result.Failed != 1 {
		t.Fatalf("expected 1 failed row, got %d", result.Failed)
	}
}
