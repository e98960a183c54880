// Package internal exposes build information stamped by the Go toolchain.
package internal

import (
	"runtime/debug"
	"time"
)

// Build information, filled from the vcs settings embedded in the binary.
// The zero-ish defaults remain when the binary was built outside a checkout.
var (
	BuildRevision      = "unknown"
	BuildRevisionTime  time.Time
	BuildLocalModified = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			BuildRevision = setting.Value
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				BuildRevisionTime = t
			}
		case "vcs.modified":
			BuildLocalModified = setting.Value
		}
	}
}
