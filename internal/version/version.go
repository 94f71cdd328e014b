// Package version exposes build-time version information.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time.
//
//nolint:gochecknoglobals // Build-time injection requires package variables
var (
	// Version is the semantic version of the build, or "dev" for
	// untagged builds.
	Version = "dev"

	// Commit is the git commit hash the binary was built from.
	Commit = ""

	// Date is the build timestamp in RFC3339 format.
	Date = ""
)

// String returns a single-line human-readable version string.
func String() string {
	s := Version
	if Commit != "" {
		short := Commit
		if len(short) > 12 {
			short = short[:12]
		}
		s = fmt.Sprintf("%s (%s)", s, short)
	}
	return s
}

// Full returns the complete version report including build metadata
// and the Go runtime used.
func Full() string {
	s := fmt.Sprintf("scrip %s", String())
	if Date != "" {
		s += fmt.Sprintf("\nbuilt:  %s", Date)
	}
	s += fmt.Sprintf("\ngo:     %s (%s/%s)", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return s
}
