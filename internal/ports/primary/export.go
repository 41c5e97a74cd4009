package primary

import (
	"context"
	"time"
)

// ExportService defines the primary port for queue snapshot exports.
type ExportService interface {
	// Export writes a snapshot of both partitions to the configured sink.
	Export(ctx context.Context) (*ExportResult, error)
}

// ExportResult describes a written snapshot.
type ExportResult struct {
	ExportedAt time.Time
	Active     int
	Shipped    int
	Bytes      int
}
