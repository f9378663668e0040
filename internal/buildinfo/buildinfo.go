// Package buildinfo holds values injected at link time:
//
//	go build -ldflags "-X github.com/fzon/storefront/internal/buildinfo.Version=1.2.0"
package buildinfo

import "fmt"

var (
	Version = "N/A"
	Date    = "N/A"
	Commit  = "N/A"
)

// String formats the build values for --version output and startup logs.
func String() string {
	return fmt.Sprintf("Build version: %s\nBuild date: %s\nBuild commit: %s", Version, Date, Commit)
}
