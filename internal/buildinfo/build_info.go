// Package buildinfo carries the version stamp the analytics server was
// built with, injected through the linker.
package buildinfo

import "fmt"

// BuildInfo identifies one build of the server binary.
type BuildInfo struct {
	Version    string
	CommitHash string
	BuildDate  string
}

// String renders the stamp for the version flag and startup log.
func (i BuildInfo) String() string {
	return fmt.Sprintf("version %s (%s) built on %s", i.Version, i.CommitHash, i.BuildDate)
}
