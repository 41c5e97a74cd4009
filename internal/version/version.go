// Package version reports the build identity of the binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// These variables are set at build time via ldflags
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = "unknown"
)

// String returns the version line printed by `triage version`.
func String() string {
	return fmt.Sprintf("triage %s (commit: %s, built: %s)", Version, shortCommit(commit()), BuildTime)
}

// commit prefers the ldflags value, then the VCS stamp embedded by go build.
func commit() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
