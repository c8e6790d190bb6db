// Package checkups implements the probes the doctor runs and builds them
// from a manifest.
package checkups

import (
	"os"

	"envdoctor/internal/android"
	"envdoctor/internal/dotnet"
	"envdoctor/internal/platform"
)

// Environment is the host view a checkup reads. Tests replace any field.
type Environment struct {
	Runner      platform.Runner
	Getenv      func(string) string
	Home        string
	OS          platform.OS
	Is64Bit     bool
	PlatformKey string
	IsAdmin     func() bool
}

// HostEnvironment describes the running process.
func HostEnvironment(runner platform.Runner) Environment {
	info := platform.Current()
	home, _ := platform.HomeDirectory()
	return Environment{
		Runner:      runner,
		Getenv:      os.Getenv,
		Home:        home,
		OS:          info.OS,
		Is64Bit:     info.Is64Bit,
		PlatformKey: info.DownloadKey(),
		IsAdmin:     platform.IsAdmin,
	}
}

func (e Environment) getenv(key string) string {
	if e.Getenv == nil {
		return ""
	}
	return e.Getenv(key)
}

func (e Environment) androidLocator() *android.Locator {
	return &android.Locator{Getenv: e.getenv, Home: e.Home, OS: e.OS}
}

func (e Environment) dotnetLocator() *dotnet.Locator {
	return &dotnet.Locator{Getenv: e.getenv, Home: e.Home, OS: e.OS}
}
