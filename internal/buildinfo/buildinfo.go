// Package buildinfo reports the version of the running binary.
package buildinfo

import "runtime/debug"

// Version is set at build time:
//
//	go build -ldflags "-X github.com/amishk599/jobrake/internal/buildinfo.Version=v1.2.0" ./cmd/jobrake
//
// When unset, the module version recorded by the Go toolchain is used.
var Version = ""

// Info describes the running binary.
type Info struct {
	Version  string `json:"version"`
	Revision string `json:"revision,omitempty"`
}

// Get returns the build info for the running binary.
func Get() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(Version, bi)
}

func resolve(ldVersion string, bi *debug.BuildInfo) Info {
	info := Info{Version: ldVersion}
	if bi == nil {
		if info.Version == "" {
			info.Version = "dev"
		}
		return info
	}
	if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			info.Revision = s.Value
		}
	}
	return info
}
