package export

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/example/triage/internal/ports/secondary"
)

// Open returns the sink for target: a file://path URL, an s3://bucket/key
// URL, or a bare filesystem path.
func Open(ctx context.Context, target string, s3opts S3Options) (secondary.SnapshotSink, error) {
	if target == "" {
		return nil, fmt.Errorf("no export target configured")
	}
	if !strings.Contains(target, "://") {
		return NewFileSink(target), nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid export target %q: %w", target, err)
	}
	switch u.Scheme {
	case "file":
		path := u.Path
		if u.Host != "" {
			// file://relative/path
			path = u.Host + u.Path
		}
		return NewFileSink(path), nil
	case "s3":
		return NewS3Sink(ctx, u.Host, strings.TrimPrefix(u.Path, "/"), s3opts)
	default:
		return nil, fmt.Errorf("unsupported export target scheme %q", u.Scheme)
	}
}
