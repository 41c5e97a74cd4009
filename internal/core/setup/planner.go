// Package setup contains the pure planning logic for initializing a triage
// config directory.
package setup

import (
	"log/slog"
	"path/filepath"

	"github.com/example/triage/internal/core/effects"
)

// ConfigFileName is the name of the config file inside the config directory.
const ConfigFileName = "config.yaml"

// PlanInput contains pre-fetched state for init planning.
// All values must be gathered by the caller - no I/O in the planner.
type PlanInput struct {
	ConfigDir     string
	DirExists     bool
	ConfigExists  bool
	ConfigContent []byte // rendered default config
	Force         bool   // overwrite an existing config file
}

// Plan is the ordered set of effects that initializes the config directory.
type Plan struct {
	ConfigPath string
	WriteFile  bool
	Effects    []effects.Effect
}

// PlanInit decides what init must do.
func PlanInit(in PlanInput) Plan {
	path := filepath.Join(in.ConfigDir, ConfigFileName)
	plan := Plan{ConfigPath: path}

	if !in.DirExists {
		plan.Effects = append(plan.Effects, effects.FileEffect{
			Operation: effects.FileMkdir,
			Path:      in.ConfigDir,
			Mode:      0o755,
		})
	}

	if in.ConfigExists && !in.Force {
		plan.Effects = append(plan.Effects, effects.LogEffect{
			Level:   slog.LevelInfo,
			Message: "config file exists; leaving it unchanged",
			Fields:  map[string]any{"path": path},
		})
		return plan
	}

	plan.WriteFile = true
	plan.Effects = append(plan.Effects,
		effects.FileEffect{
			Operation: effects.FileWrite,
			Path:      path,
			Content:   in.ConfigContent,
			Mode:      0o600,
		},
		effects.LogEffect{
			Level:   slog.LevelInfo,
			Message: "wrote config file",
			Fields:  map[string]any{"path": path},
		},
	)
	return plan
}
