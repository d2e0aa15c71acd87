package search

import "github.com/shopsight/prodsim/internal/domain"

// Match is a bare similarity hit against the embeddings table.
type Match struct {
	ProductID string
	ClusterID int
	Source    string
	Score     float64
}

// Result is a similarity hit joined with catalog details. Detail fields are
// zero-valued when the candidate had no catalog row (left join semantics).
type Result struct {
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

// JoinDetails copies catalog detail columns onto a match.
func JoinDetails(m Match, p *domain.Product) Result {
	r := Result{
		ProductID: m.ProductID,
		ClusterID: m.ClusterID,
		Source:    m.Source,
		Score:     m.Score,
	}
	if p == nil {
		return r
	}
	r.Name = p.Name
	r.Description = p.Description
	r.SalePrice = p.SalePrice
	r.URL = p.URL
	r.Image = p.Image
	if p.Source != "" {
		r.Source = p.Source
	}
	return r
}
