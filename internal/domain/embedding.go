package domain

// Embedding is one row of the embeddings table: a product's cluster
// assignment plus its pre-normalized vector, kept in the text form the
// upstream pipeline stores it in. Coercion to []float32 happens once, at
// index build time, in the vector package.
type Embedding struct {
	ProductID string
	ClusterID int
	Source    string
	RawVector string
}
