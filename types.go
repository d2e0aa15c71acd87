package prodsim

import (
	"time"

	"github.com/shopsight/prodsim/internal/domain"
	"github.com/shopsight/prodsim/internal/domain/search"
)

// Sort keys accepted by SimilarOptions.SortBy.
const (
	SortByScore = string(search.SortByScore)
	SortByPrice = string(search.SortByPrice)
)

// Sort directions accepted by SimilarOptions.SortBy.
const (
	Asc  = string(search.Asc)
	Desc = string(search.Desc)
)

// SortSpec orders results by one key.
type SortSpec struct {
	Key       string
	Direction string
}

// SimilarOptions configures a similarity query. The zero value (or nil)
// requests the defaults: up to 10 results per data source, minimum score
// 0.5, ordered by score descending then price ascending.
type SimilarOptions struct {
	// Count caps results per data source. 0 means the default of 10;
	// values above 20 are clamped.
	Count int
	// MinScore is the inclusive similarity threshold in [0, 1].
	// Nil means the default of 0.5.
	MinScore *float64
	// BestPriceOnly keeps only results strictly cheaper than the query
	// product.
	BestPriceOnly bool
	// SortBy orders the detailed results. Empty means score desc, price asc.
	SortBy []SortSpec
}

// Category is one level of a product's category hierarchy.
type Category struct {
	ID    string
	Label string
}

// Product is a catalog row.
type Product struct {
	ID          string
	Name        string
	Description string
	SalePrice   *float64
	Categories  []Category
	Source      string
	URL         string
	Image       string
}

// Match is a bare similarity hit, without catalog details.
type Match struct {
	ProductID string
	ClusterID int
	Source    string
	Score     float64
}

// SimilarProduct is a similarity hit joined with catalog details.
type SimilarProduct struct {
	ProductID   string
	Name        string
	Description string
	SalePrice   *float64
	Source      string
	ClusterID   int
	Score       float64
	URL         string
	Image       string
}

// Embedding is a product's similarity row as stored: cluster assignment,
// data source, and the vector in its textual form.
type Embedding struct {
	ProductID  string
	ClusterID  int
	DataSource string
	Vector     string
}

// Stats summarizes the loaded catalog snapshot.
type Stats struct {
	Products    int
	Embeddings  int
	Clusters    int
	DataSources int
	LoadedAt    time.Time
}

func fromProduct(p domain.Product) Product {
	out := Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		SalePrice:   p.SalePrice,
		Source:      p.Source,
		URL:         p.URL,
		Image:       p.Image,
	}
	for _, c := range p.Categories {
		out.Categories = append(out.Categories, Category{ID: c.ID, Label: c.Label})
	}
	return out
}

func fromEmbedding(e domain.Embedding) Embedding {
	return Embedding{
		ProductID:  e.ProductID,
		ClusterID:  e.ClusterID,
		DataSource: e.Source,
		Vector:     e.RawVector,
	}
}

func fromMatches(in []search.Match) []Match {
	out := make([]Match, len(in))
	for i, m := range in {
		out[i] = Match{
			ProductID: m.ProductID,
			ClusterID: m.ClusterID,
			Source:    m.Source,
			Score:     m.Score,
		}
	}
	return out
}

func fromResults(in []search.Result) []SimilarProduct {
	out := make([]SimilarProduct, len(in))
	for i, r := range in {
		out[i] = SimilarProduct{
			ProductID:   r.ProductID,
			Name:        r.Name,
			Description: r.Description,
			SalePrice:   r.SalePrice,
			Source:      r.Source,
			ClusterID:   r.ClusterID,
			Score:       r.Score,
			URL:         r.URL,
			Image:       r.Image,
		}
	}
	return out
}
