// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X 'envdoctor/internal/version.Version=v1.2.0'"
package version

import "runtime"

const unknown = "unknown"

var (
	Version   = "dev"
	GitCommit = unknown
	GitBranch = unknown
	BuildTime = unknown
	BuildUser = unknown
)

// Info is the build and runtime description printed by `envdoctor version`.
type Info struct {
	Version      string `json:"version"`
	GitCommit    string `json:"git_commit"`
	GitBranch    string `json:"git_branch"`
	BuildTime    string `json:"build_time"`
	BuildUser    string `json:"build_user"`
	GoVersion    string `json:"go_version"`
	Platform     string `json:"platform"`
	Architecture string `json:"architecture"`
	Compiler     string `json:"compiler"`
}

func Get() Info {
	return Info{
		Version:      Version,
		GitCommit:    GitCommit,
		GitBranch:    GitBranch,
		BuildTime:    BuildTime,
		BuildUser:    BuildUser,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS,
		Architecture: runtime.GOARCH,
		Compiler:     runtime.Compiler,
	}
}

// Known reports whether v was set at build time.
func Known(v string) bool {
	return v != "" && v != unknown
}
