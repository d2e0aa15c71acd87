package domain

// Snapshot is an immutable point-in-time view of the catalog joined with its
// embedding rows. Once published it is never mutated, so it is safe to share
// across goroutines without locking. Row order is the load order, which fixes
// the partitioning order for a given keyspace.
type Snapshot struct {
	products map[string]Product
	rows     []Embedding
	rowIdx   map[string][]int
}

// NewSnapshot builds a snapshot from catalog products and embedding rows.
func NewSnapshot(products []Product, rows []Embedding) *Snapshot {
	s := &Snapshot{
		products: make(map[string]Product, len(products)),
		rows:     rows,
		rowIdx:   make(map[string][]int, len(rows)),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	for i, r := range rows {
		s.rowIdx[r.ProductID] = append(s.rowIdx[r.ProductID], i)
	}
	return s
}

// Product returns the catalog entry for an ID.
func (s *Snapshot) Product(id string) (Product, bool) {
	p, ok := s.products[id]
	return p, ok
}

// RowsFor returns the embedding rows for a product in snapshot order.
// A product listed by several sources has one row per source.
func (s *Snapshot) RowsFor(productID string) []Embedding {
	idx := s.rowIdx[productID]
	if len(idx) == 0 {
		return nil
	}
	rows := make([]Embedding, len(idx))
	for i, j := range idx {
		rows[i] = s.rows[j]
	}
	return rows
}

// ClusterRows returns all embedding rows in a cluster in snapshot order.
func (s *Snapshot) ClusterRows(clusterID int) []Embedding {
	var rows []Embedding
	for _, r := range s.rows {
		if r.ClusterID == clusterID {
			rows = append(rows, r)
		}
	}
	return rows
}

// ProductCount returns the number of catalog products.
func (s *Snapshot) ProductCount() int { return len(s.products) }

// RowCount returns the number of embedding rows.
func (s *Snapshot) RowCount() int { return len(s.rows) }

// ClusterCount returns the number of distinct clusters.
func (s *Snapshot) ClusterCount() int {
	seen := make(map[int]struct{})
	for _, r := range s.rows {
		seen[r.ClusterID] = struct{}{}
	}
	return len(seen)
}

// SourceCount returns the number of distinct data sources.
func (s *Snapshot) SourceCount() int {
	seen := make(map[string]struct{})
	for _, r := range s.rows {
		seen[r.Source] = struct{}{}
	}
	return len(seen)
}
