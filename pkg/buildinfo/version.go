// Package buildinfo holds the version stamped into the craftree binary.
//
// The variables are set with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/craftree/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/craftree/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/craftree/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/craftree
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the build information on three lines.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Version, Commit, Date)
}

// UserAgent identifies craftree in outgoing HTTP requests.
func UserAgent() string {
	return "craftree/" + Version
}
