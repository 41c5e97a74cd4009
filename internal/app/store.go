package app

import (
	"context"
	"time"
)

// storeCaller runs record store calls under a per-call deadline and reports
// their latency.
type storeCaller struct {
	timeout  time.Duration
	observer Observer
}

func (c storeCaller) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	c.observer.StoreCall(op, time.Since(start), err)
	return err
}
