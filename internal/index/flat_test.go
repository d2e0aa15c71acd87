package index

import (
	"errors"
	"testing"
)

func TestBuild_DimFromFirstVector(t *testing.T) {
	f, err := Build([][]float32{{1, 0, 0}, {0, 1, 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Dim() != 3 {
		t.Errorf("Dim() = %d, want 3", f.Dim())
	}
	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}
}

func TestBuild_DimMismatch(t *testing.T) {
	_, err := Build([][]float32{{1, 0}, {1, 0, 0}})
	if !errors.Is(err, ErrDimMismatch) {
		t.Fatalf("expected ErrDimMismatch, got %v", err)
	}
}

func TestBuild_Empty(t *testing.T) {
	if _, err := Build(nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearch_TopKByDescendingScore(t *testing.T) {
	f, err := Build([][]float32{
		{0.1, 0},
		{0.9, 0},
		{0.5, 0},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	hits, err := f.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Position != 1 || hits[1].Position != 2 {
		t.Errorf("positions = %d,%d, want 1,2", hits[0].Position, hits[1].Position)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("scores not descending: %g, %g", hits[0].Score, hits[1].Score)
	}
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	f, _ := Build([][]float32{{1}, {0.5}})
	hits, err := f.Search([]float32{1}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}
}

func TestSearch_QueryDimMismatch(t *testing.T) {
	f, _ := Build([][]float32{{1, 0}})
	_, err := f.Search([]float32{1}, 1)
	if !errors.Is(err, ErrDimMismatch) {
		t.Fatalf("expected ErrDimMismatch, got %v", err)
	}
}

func TestSearch_EqualScoresKeepBuildOrder(t *testing.T) {
	f, _ := Build([][]float32{{1, 0}, {1, 0}, {1, 0}})
	hits, err := f.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i, h := range hits {
		if h.Position != i {
			t.Errorf("hit %d position = %d", i, h.Position)
		}
	}
}
