package history

import (
	"context"

	"github.com/phishguard/phishguard/internal/core"
)

// NoopRepository discards scan records. It is used when scan history
// persistence is disabled.
type NoopRepository struct{}

// NewNoopRepository creates a repository that stores nothing
func NewNoopRepository() *NoopRepository {
	return &NoopRepository{}
}

// SaveScan discards the record
func (r *NoopRepository) SaveScan(ctx context.Context, rec *core.ScanRecord) error {
	return nil
}

// RecentScans always returns an empty slice
func (r *NoopRepository) RecentScans(ctx context.Context, limit int) ([]core.ScanRecord, error) {
	return []core.ScanRecord{}, nil
}

// Close is a no-op
func (r *NoopRepository) Close() error {
	return nil
}
