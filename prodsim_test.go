package prodsim

import (
	"errors"
	"testing"

	"github.com/shopsight/prodsim/internal/domain"
	"github.com/shopsight/prodsim/internal/domain/search"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New()
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestSimilarOptions_NilUsesDefaults(t *testing.T) {
	var opts *SimilarOptions
	req, err := opts.toRequest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Count() != search.DefaultCount {
		t.Errorf("count = %d, want %d", req.Count(), search.DefaultCount)
	}
	if req.MinScore() != search.DefaultMinScore {
		t.Errorf("min score = %g, want %g", req.MinScore(), search.DefaultMinScore)
	}
	keys, dirs := search.DefaultSort()
	if len(req.SortKeys()) != len(keys) || req.SortKeys()[0] != keys[0] {
		t.Errorf("sort keys = %v, want %v", req.SortKeys(), keys)
	}
	if req.SortDirs()[0] != dirs[0] {
		t.Errorf("sort dirs = %v, want %v", req.SortDirs(), dirs)
	}
}

func TestSimilarOptions_ExplicitZeroMinScore(t *testing.T) {
	zero := 0.0
	opts := &SimilarOptions{MinScore: &zero}
	req, err := opts.toRequest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.MinScore() != 0 {
		t.Errorf("min score = %g, want 0", req.MinScore())
	}
}

func TestSimilarOptions_BadSortKey(t *testing.T) {
	opts := &SimilarOptions{
		SortBy: []SortSpec{{Key: "name", Direction: Asc}},
	}
	_, err := opts.toRequest()
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestSimilarOptions_CustomSort(t *testing.T) {
	opts := &SimilarOptions{
		SortBy: []SortSpec{{Key: SortByPrice, Direction: Asc}},
	}
	req, err := opts.toRequest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.SortKeys()) != 1 || req.SortKeys()[0] != search.SortByPrice {
		t.Errorf("sort keys = %v, want [price]", req.SortKeys())
	}
}

func TestSentinelAliases(t *testing.T) {
	if !errors.Is(ErrNotFound, domain.ErrProductNotFound) {
		t.Error("ErrNotFound must alias domain.ErrProductNotFound")
	}
	if !errors.Is(ErrUnavailable, domain.ErrDataUnavailable) {
		t.Error("ErrUnavailable must alias domain.ErrDataUnavailable")
	}
}

func TestFromProduct_CopiesCategories(t *testing.T) {
	price := 9.99
	p := domain.Product{
		ID:        "p1",
		Name:      "Desk Lamp",
		SalePrice: &price,
		Categories: []domain.Category{
			{ID: "c0", Label: "Home"},
			{ID: "c1", Label: "Lighting"},
		},
		Source: "acme",
	}

	got := fromProduct(p)
	if got.ID != "p1" || got.Source != "acme" {
		t.Fatalf("unexpected product: %+v", got)
	}
	if len(got.Categories) != 2 || got.Categories[1].Label != "Lighting" {
		t.Fatalf("unexpected categories: %+v", got.Categories)
	}
}

func TestFromEmbedding_MapsStoredFields(t *testing.T) {
	e := domain.Embedding{
		ProductID: "p1",
		ClusterID: 7,
		Source:    "acme",
		RawVector: "[0.1, 0.2]",
	}

	got := fromEmbedding(e)
	if got.ProductID != "p1" || got.ClusterID != 7 || got.DataSource != "acme" {
		t.Fatalf("unexpected embedding: %+v", got)
	}
	if got.Vector != "[0.1, 0.2]" {
		t.Errorf("vector = %q, want stored text verbatim", got.Vector)
	}
}
