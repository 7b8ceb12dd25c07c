// Package buildinfo carries version metadata injected at build time.
package buildinfo

import "fmt"

// Populated via ldflags, e.g.:
//
//	go build -ldflags "-X github.com/orgtower/orgtower/pkg/buildinfo.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template returns the version template used by the root command.
func Template() string {
	return fmt.Sprintf("orgtower %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
