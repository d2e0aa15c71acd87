package product

import (
	"context"
	"errors"
	"testing"

	"github.com/shopsight/prodsim/internal/db"
	"github.com/shopsight/prodsim/internal/domain"
)

func TestGet_Success(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "prodsim:product:p1" {
			t.Errorf("unexpected key %q", key)
		}
		return map[string]string{
			"product_name":     "Ceiling Fan",
			"product_desc":     "Three-speed ceiling fan",
			"sale_price":       "49.99",
			"data_source":      "acme",
			"url":              "https://example.com/p/p1",
			"category_0_id":    "10",
			"category_0_label": "Home",
			"category_1_id":    "42",
			"category_1_label": "Cooling",
		}, nil
	}

	p, err := repo.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "p1" || p.Name != "Ceiling Fan" || p.Source != "acme" {
		t.Errorf("unexpected product: %+v", p)
	}
	if p.SalePrice == nil || *p.SalePrice != 49.99 {
		t.Errorf("sale price = %v, want 49.99", p.SalePrice)
	}
	if len(p.Categories) != 2 || p.Categories[1].Label != "Cooling" {
		t.Errorf("unexpected categories: %+v", p.Categories)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)

	// HGETALL on a missing key yields an empty map.
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{}, nil
	}

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return nil, &db.Error{Op: db.OpHGetAll, Err: context.DeadlineExceeded}
	}

	_, err := repo.Get(context.Background(), "p1")
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestGetMulti_SkipsMissing(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if len(keys) != 3 {
			t.Fatalf("expected 3 keys, got %d", len(keys))
		}
		return []map[string]string{
			{"product_name": "Fan"},
			{}, // missing
			{"product_name": "Fridge"},
		}, nil
	}

	products, err := repo.GetMulti(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].ID != "a" || products[1].ID != "c" {
		t.Errorf("unexpected IDs: %s, %s", products[0].ID, products[1].ID)
	}
}

func TestAll_Success(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "prodsim:product:*" {
			t.Errorf("unexpected pattern %q", pattern)
		}
		return []string{"prodsim:product:p1", "prodsim:product:p2"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		return []map[string]string{
			{"product_name": "Fan"},
			{"product_name": "Fridge"},
		}, nil
	}

	products, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].ID != "p1" || products[1].ID != "p2" {
		t.Errorf("unexpected IDs: %s, %s", products[0].ID, products[1].ID)
	}
}

func TestAll_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)

	products, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if products != nil {
		t.Errorf("expected nil, got %v", products)
	}
}

func TestUpsertMulti_BuildsHashItems(t *testing.T) {
	repo, ms := newTestRepo(t)

	var got []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		got = items
		return nil
	}

	p := testProduct(t, "p1")
	if err := repo.UpsertMulti(context.Background(), []domain.Product{p}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].Key != "prodsim:product:p1" {
		t.Errorf("unexpected key %q", got[0].Key)
	}
	fields := got[0].Fields
	if fields["product_name"] != "Ceiling Fan" || fields["sale_price"] != "49.99" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if fields["category_1_label"] != "Cooling" {
		t.Errorf("categories not flattened: %v", fields)
	}
}

func TestUpsertMulti_RoundTrip(t *testing.T) {
	p := testProduct(t, "p1")
	got := parseHashFields("p1", buildHashFields(&p))
	if got.Name != p.Name || got.Description != p.Description || got.Source != p.Source {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.SalePrice == nil || *got.SalePrice != *p.SalePrice {
		t.Errorf("price mismatch: %v", got.SalePrice)
	}
	if len(got.Categories) != len(p.Categories) {
		t.Errorf("category mismatch: %+v", got.Categories)
	}
}

func TestSearchByName_Success(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchTextFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if q.IndexName != "catalog-idx" || q.Field != "product_name" {
			t.Errorf("unexpected query: %+v", q)
		}
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{
				{
					Key:    "prodsim:product:p1",
					Score:  1.5,
					Fields: map[string]string{"product_name": "Ceiling Fan"},
				},
			},
		}, nil
	}

	products, err := repo.SearchByName(context.Background(), "fan", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" {
		t.Errorf("unexpected result: %+v", products)
	}
}

func TestSearchByName_IndexMissing(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchTextFn = func(_ context.Context, _ *db.TextQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}

	_, err := repo.SearchByName(context.Background(), "fan", 10)
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestEnsureIndex_AlreadyExists(t *testing.T) {
	repo, ms := newTestRepo(t)

	created := false
	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) {
		return true, nil
	}
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		created = true
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("CreateIndex should not be called when index exists")
	}
}

func TestEnsureIndex_Creates(t *testing.T) {
	repo, ms := newTestRepo(t)

	var got *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		got = def
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("CreateIndex not called")
	}
	if got.Name != "catalog-idx" {
		t.Errorf("index name = %q", got.Name)
	}
	if len(got.Prefixes) != 1 || got.Prefixes[0] != "prodsim:product:" {
		t.Errorf("prefixes = %v", got.Prefixes)
	}
}

func TestRecreateIndex_DropsThenCreates(t *testing.T) {
	repo, ms := newTestRepo(t)

	var calls []string
	ms.dropIndexFn = func(_ context.Context, name string) error {
		calls = append(calls, "drop "+name)
		return nil
	}
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		calls = append(calls, "create "+def.Name)
		return nil
	}

	if err := repo.RecreateIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 || calls[0] != "drop catalog-idx" || calls[1] != "create catalog-idx" {
		t.Fatalf("unexpected call order: %v", calls)
	}
}

func TestRecreateIndex_MissingIndexIsFine(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.dropIndexFn = func(_ context.Context, _ string) error {
		return db.ErrIndexNotFound
	}
	created := false
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		created = true
		return nil
	}

	if err := repo.RecreateIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("index should be created after a no-op drop")
	}
}

func TestEnsureIndex_RaceLoses(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return &db.Error{Op: db.OpCreateIndex, Err: db.ErrIndexExists}
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("expected nil when another writer created the index, got %v", err)
	}
}
