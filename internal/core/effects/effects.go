// Package effects describes side effects as data. Core planners return them;
// internal/app carries them out.
package effects

import "log/slog"

// Effect is one planned side effect.
type Effect interface {
	EffectType() string
}

// FileOp names a file system operation.
type FileOp string

const (
	FileMkdir FileOp = "mkdir" // create the directory and its parents
	FileWrite FileOp = "write" // atomically replace the file content
)

// FileEffect creates a directory or replaces a file.
type FileEffect struct {
	Operation FileOp
	Path      string
	Content   []byte // FileWrite only
	Mode      uint32
}

func (FileEffect) EffectType() string { return "file" }

// LogEffect asks the shell to log a message with structured fields.
type LogEffect struct {
	Level   slog.Level
	Message string
	Fields  map[string]any
}

func (LogEffect) EffectType() string { return "log" }
