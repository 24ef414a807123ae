// Package buildinfo carries version metadata injected at link time:
//
//	go build -ldflags "-X 'github.com/m3rciful/adboard/core/buildinfo.Version=v1.0.0' \
//	  -X 'github.com/m3rciful/adboard/core/buildinfo.Commit=abcdef0'"
package buildinfo

var (
	// Version is the release tag of the build.
	Version = "dev"
	// Commit is the source revision of the build.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)
