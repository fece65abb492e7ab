// Package buildinfo reports which lineage build is running.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/lineage/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/lineage/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/lineage/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Without them, [Get] falls back to the VCS stamp the go command embeds.
package buildinfo

import (
	"runtime/debug"
	"strings"
)

// Set by ldflags.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the build information served on /healthz.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
	Dirty   bool   `json:"dirty,omitempty"`
}

var readBuildInfo = debug.ReadBuildInfo

// Get returns the ldflags values, completed from the embedded VCS settings
// where they were left empty.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// Template is the cobra version template.
func Template() string {
	info := Get()
	var b strings.Builder
	b.WriteString("{{.Name}} " + info.Version + "\n")
	if info.Commit != "" {
		commit := info.Commit
		if info.Dirty {
			commit += " (modified)"
		}
		b.WriteString("commit " + commit + "\n")
	}
	if info.Date != "" {
		b.WriteString("built  " + info.Date + "\n")
	}
	return b.String()
}
