// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/natefinch/atomic"

	"github.com/example/triage/internal/core/effects"
)

// EffectExecutor carries out planned effects.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor with real I/O.
type DefaultEffectExecutor struct {
	logger *slog.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(logger *slog.Logger) *DefaultEffectExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultEffectExecutor{logger: logger}
}

// Execute processes a slice of effects, executing each in sequence.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.FileEffect:
		return e.executeFile(typed)
	case effects.LogEffect:
		e.executeLog(ctx, typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeFile(eff effects.FileEffect) error {
	switch eff.Operation {
	case effects.FileMkdir:
		return os.MkdirAll(eff.Path, os.FileMode(eff.Mode))
	case effects.FileWrite:
		if err := atomic.WriteFile(eff.Path, bytes.NewReader(eff.Content)); err != nil {
			return err
		}
		return os.Chmod(eff.Path, os.FileMode(eff.Mode))
	default:
		return fmt.Errorf("unknown file operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeLog(ctx context.Context, eff effects.LogEffect) {
	attrs := make([]any, 0, len(eff.Fields)*2)
	for k, v := range eff.Fields {
		attrs = append(attrs, k, v)
	}
	e.logger.Log(ctx, eff.Level, eff.Message, attrs...)
}
