package index

import "sync"

// Key identifies one cached index: a cluster restricted to one data source.
type Key struct {
	ClusterID int
	Source    string
}

// Partition is a built index together with the product ID backing each
// index position. IDs[i] is the product behind vector i. Warnings records
// the rows excluded during the build (malformed or mis-sized vectors); they
// are kept with the partition so every request that searches it can report
// the same data-quality issues.
type Partition struct {
	Index    *Flat
	IDs      []string
	Warnings []string
}

// Cache holds built partitions per (cluster, source) pair for the lifetime of
// the owning engine. Append-only: there is no eviction and no invalidation
// after catalog mutation — a stale cache is an accepted limitation. Entries
// are published whole (build fully, then Put), so readers never observe a
// partially built index. Concurrent builders for the same key race
// harmlessly: Build is a pure function of the partition's vectors.
type Cache struct {
	mu         sync.RWMutex
	partitions map[Key]*Partition
}

// NewCache creates an empty index cache.
func NewCache() *Cache {
	return &Cache{partitions: make(map[Key]*Partition)}
}

// Get returns the cached partition for the key, or (nil, false) on a miss.
func (c *Cache) Get(clusterID int, source string) (*Partition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.partitions[Key{ClusterID: clusterID, Source: source}]
	return p, ok
}

// Put stores a fully built partition. First writer wins; a concurrent
// duplicate overwrites with an identical partition.
func (c *Cache) Put(clusterID int, source string, p *Partition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partitions[Key{ClusterID: clusterID, Source: source}] = p
}

// Len returns the number of cached partitions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.partitions)
}
