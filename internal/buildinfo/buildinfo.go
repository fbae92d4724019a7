// Package buildinfo carries release metadata for the brag binary.
package buildinfo

import "runtime/debug"

// Set via -ldflags "-X" for release builds; empty for local builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// Info is the version reported by `brag version` and the MCP handshake.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

// Get returns the build metadata, falling back to the module version
// recorded by `go install` and finally to "dev".
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	if info.Version != "" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
		return info
	}
	info.Version = "dev"
	return info
}
