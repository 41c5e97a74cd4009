// Package export contains the snapshot sinks queue exports are written to.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/example/triage/internal/ports/secondary"
)

// FileSink writes snapshots to a local file, replacing it atomically.
type FileSink struct {
	path string
}

// NewFileSink creates a sink for path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the file the sink writes.
func (s *FileSink) Path() string { return s.path }

// Write replaces the file with data. Readers never see a partial snapshot.
func (s *FileSink) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", s.path, err)
	}
	return nil
}

var _ secondary.SnapshotSink = (*FileSink)(nil)
