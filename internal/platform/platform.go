package platform

import (
	"fmt"
	"math/bits"
	"os"
	"runtime"
	"sync"

	"envdoctor/internal/common"
)

// OS is the operating system family the tool runs on.
type OS string

const (
	OSWindows OS = "windows"
	OSMacOS   OS = "darwin"
	OSLinux   OS = "linux"
)

func (o OS) String() string {
	return string(o)
}

// Info describes the running process. Bitness is the process's own pointer
// width, not the host OS's.
type Info struct {
	OS      OS     `json:"os"`
	Arch    string `json:"arch"`
	Is64Bit bool   `json:"is_64_bit"`
}

var (
	currentOnce sync.Once
	current     Info
)

// Current returns the platform of the running process, computed once.
func Current() Info {
	currentOnce.Do(func() {
		current = Info{
			OS:      detectOS(runtime.GOOS),
			Arch:    runtime.GOARCH,
			Is64Bit: bits.UintSize == 64,
		}
	})
	return current
}

// detectOS maps GOOS to an OS family. BSDs and other unixes behave like Linux
// for path and privilege purposes.
func detectOS(goos string) OS {
	switch goos {
	case "windows":
		return OSWindows
	case "darwin", "ios":
		return OSMacOS
	default:
		return OSLinux
	}
}

func IsWindows() bool {
	return Current().OS == OSWindows
}

// Is64BitProcess reports the running tool's bitness.
func Is64BitProcess() bool {
	return Current().Is64Bit
}

// DownloadKey returns the manifest URL key for info, e.g. "win64" or
// "osxArm64".
func (i Info) DownloadKey() string {
	var base string
	switch i.OS {
	case OSWindows:
		base = "win"
	case OSMacOS:
		base = "osx"
	default:
		base = "linux"
	}

	switch {
	case i.Arch == "arm64":
		return base + "Arm64"
	case i.Is64Bit && i.OS != OSMacOS:
		return base + "64"
	default:
		return base
	}
}

// DownloadKey returns the manifest URL key for the running process.
func DownloadKey() string {
	return Current().DownloadKey()
}

func (i Info) String() string {
	bitness := 32
	if i.Is64Bit {
		bitness = 64
	}
	return fmt.Sprintf("%s-%s (%d-bit)", i.OS, i.Arch, bitness)
}

// HomeDirectory returns the user's home directory.
func HomeDirectory() (string, error) {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home, nil
	}

	if IsWindows() {
		if home := os.Getenv("USERPROFILE"); home != "" {
			return home, nil
		}
		drive := os.Getenv("HOMEDRIVE")
		path := os.Getenv("HOMEPATH")
		if drive != "" && path != "" {
			return drive + path, nil
		}
		return "", fmt.Errorf("could not determine home directory on Windows")
	}

	if home := os.Getenv("HOME"); home != "" {
		return home, nil
	}
	return "", fmt.Errorf("could not determine home directory")
}

var (
	adminOnce  sync.Once
	adminValue bool

	// adminCheck is swapped in tests.
	adminCheck = checkAdmin
)

// IsAdmin reports whether the process runs with administrator (Windows) or
// root (elsewhere) privileges. The answer is computed once. Any failure of
// the underlying introspection, including a panic, is treated as "not admin".
func IsAdmin() bool {
	adminOnce.Do(func() {
		adminValue = safeAdminCheck()
	})
	return adminValue
}

func safeAdminCheck() (admin bool) {
	defer func() {
		if r := recover(); r != nil {
			common.DoctorLogger.Debug("privilege check panicked: %v", r)
			admin = false
		}
	}()

	ok, err := adminCheck()
	if err != nil {
		common.DoctorLogger.Debug("privilege check failed: %v", err)
		return false
	}
	return ok
}
