// Package version reports the build version of the agent binary, from
// ldflags when set and otherwise from the VCS metadata embedded by the
// Go toolchain.
package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Info describes one build of the binary
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Compiler  string `json:"compiler"`
	Tag       string `json:"tag,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Source    string `json:"source,omitempty"`
	Hash      string `json:"hash,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Set at link time with -ldflags "-X ...version.GitTag=..."
var (
	GitTag    string
	GitBranch string
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Get returns the build information for the named executable
func Get(name string) Info {
	info := Info{
		Name:     name,
		Compiler: runtime.Version(),
		Tag:      GitTag,
		Branch:   GitBranch,
	}

	var goos, goarch string
	if build, ok := debug.ReadBuildInfo(); ok {
		info.Source = build.Main.Path
		for _, setting := range build.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.Hash = setting.Value
			case "vcs.time":
				info.BuildTime = setting.Value
			case "vcs.modified":
				info.Modified = setting.Value == "true"
			case "GOOS":
				goos = setting.Value
			case "GOARCH":
				goarch = setting.Value
			}
		}
	}
	if goos != "" && goarch != "" {
		info.Platform = goos + "/" + goarch
	}
	info.Version = info.version()
	return info
}

// Version returns the version string for the current build
func Version() string {
	return Get("").Version
}

// JSON returns the build information for the named executable as
// indented JSON
func JSON(name string) []byte {
	data, err := json.MarshalIndent(Get(name), "", "  ")
	if err != nil {
		panic(err)
	}
	return data
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// version picks the most specific version identifier available
func (info Info) version() string {
	switch {
	case info.Tag != "":
		return info.Tag
	case info.Branch != "":
		return info.Branch
	case len(info.Hash) >= 12:
		return info.Hash[:12]
	}
	return "dev"
}
