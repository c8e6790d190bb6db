// Package android locates an Android SDK and inspects the packages
// installed in it.
package android

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"envdoctor/internal/manifest"
	"envdoctor/internal/platform"
	"envdoctor/internal/versioning"
)

// SdkRootVariable is exported once an SDK has been located.
const SdkRootVariable = "ANDROID_SDK_ROOT"

// Marker directories; a root containing none of them is not an SDK.
var sdkMarkers = []string{"platform-tools", "cmdline-tools", "tools", "build-tools"}

// Locator finds the SDK root from the environment and well-known paths.
type Locator struct {
	Getenv func(string) string
	Home   string
	OS     platform.OS
}

// Candidates lists the directories searched, in order.
func (l *Locator) Candidates() []string {
	var dirs []string
	for _, name := range []string{SdkRootVariable, "ANDROID_HOME"} {
		if v := l.Getenv(name); v != "" {
			dirs = append(dirs, v)
		}
	}

	switch l.OS {
	case platform.OSWindows:
		if local := l.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Android", "Sdk"))
		}
		dirs = append(dirs, `C:\Program Files (x86)\Android\android-sdk`)
	case platform.OSMacOS:
		dirs = append(dirs,
			filepath.Join(l.Home, "Library", "Android", "sdk"),
			filepath.Join(l.Home, "Library", "Developer", "Xamarin", "android-sdk-macosx"))
	default:
		dirs = append(dirs,
			filepath.Join(l.Home, "Android", "Sdk"),
			filepath.Join(l.Home, "Android", "sdk"))
	}
	return dirs
}

// Locate returns the first candidate that looks like an SDK.
func (l *Locator) Locate() (string, bool) {
	for _, dir := range l.Candidates() {
		if IsSdkRoot(dir) {
			return dir, true
		}
	}
	return "", false
}

func IsSdkRoot(dir string) bool {
	if dir == "" {
		return false
	}
	for _, marker := range sdkMarkers {
		if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// Sdk is a located SDK root.
type Sdk struct {
	Root string
}

func (s Sdk) PackageDir(p manifest.AndroidPackage) string {
	return filepath.Join(s.Root, p.RelativeDir())
}

// InstalledRevision reads Pkg.Revision from the package's
// source.properties.
func (s Sdk) InstalledRevision(p manifest.AndroidPackage) (string, bool) {
	f, err := os.Open(filepath.Join(s.PackageDir(p), "source.properties"))
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if ok && strings.TrimSpace(key) == "Pkg.Revision" {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

// IsInstalled reports whether p is present and, when p names a version,
// whether the installed revision is at least that version.
func (s Sdk) IsInstalled(p manifest.AndroidPackage) bool {
	info, err := os.Stat(s.PackageDir(p))
	if err != nil || !info.IsDir() {
		return false
	}
	if p.Version == "" {
		return true
	}
	minimum, ok := versioning.TryParse(p.Version)
	if !ok {
		return false
	}
	revision, ok := s.InstalledRevision(p)
	if !ok {
		return false
	}
	return versioning.IsCompatibleString(revision, minimum, nil)
}

// SdkManager returns the sdkmanager binary, newest tools first.
func (s Sdk) SdkManager() (string, bool) {
	name := "sdkmanager"
	if platform.IsWindows() {
		name = "sdkmanager.bat"
	}
	candidates := []string{
		filepath.Join(s.Root, "cmdline-tools", "latest", "bin", name),
	}
	if versions, err := os.ReadDir(filepath.Join(s.Root, "cmdline-tools")); err == nil {
		for i := len(versions) - 1; i >= 0; i-- {
			if versions[i].IsDir() && versions[i].Name() != "latest" {
				candidates = append(candidates, filepath.Join(s.Root, "cmdline-tools", versions[i].Name(), "bin", name))
			}
		}
	}
	candidates = append(candidates, filepath.Join(s.Root, "tools", "bin", name))

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}
