package similar

import (
	"context"

	"github.com/shopsight/prodsim/internal/domain"
)

// SnapshotSource supplies the catalog snapshot searches run against.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
}
