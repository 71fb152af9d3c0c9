// Package version holds build metadata injected with -ldflags, e.g.
// -X git.home.luguber.info/inful/pagesmith/internal/version.Version=v1.2.0.
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// String formats the metadata for `pagesmith --version`.
func String() string {
	s := "pagesmith " + Version
	if GitCommit != "" {
		s += fmt.Sprintf(" (%s", GitCommit)
		if BuildTime != "" {
			s += ", built " + BuildTime
		}
		s += ")"
	}
	return s
}
