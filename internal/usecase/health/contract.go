package health

import (
	"context"

	"github.com/shopsight/prodsim/internal/domain"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SnapshotSource reports whether a catalog snapshot can be served.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
}
