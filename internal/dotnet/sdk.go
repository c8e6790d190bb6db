// Package dotnet inspects .NET SDK installations and drives the dotnet CLI
// for workload installation.
package dotnet

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"envdoctor/internal/platform"
	"envdoctor/internal/versioning"
)

// RootVariable points the dotnet host at an installation.
const RootVariable = "DOTNET_ROOT"

// Locator finds a dotnet installation.
type Locator struct {
	Getenv func(string) string
	Home   string
	OS     platform.OS
}

func (l *Locator) Candidates() []string {
	var dirs []string
	if v := l.Getenv(RootVariable); v != "" {
		dirs = append(dirs, v)
	}
	switch l.OS {
	case platform.OSWindows:
		dirs = append(dirs, `C:\Program Files\dotnet`)
	case platform.OSMacOS:
		dirs = append(dirs, "/usr/local/share/dotnet")
	default:
		dirs = append(dirs, "/usr/share/dotnet", "/usr/lib/dotnet")
	}
	if l.Home != "" {
		dirs = append(dirs, DefaultUserRoot(l.Home))
	}
	return dirs
}

// Locate returns the first directory holding a dotnet executable, trying
// preferred before the usual candidates. Empty entries are ignored.
func (l *Locator) Locate(preferred ...string) (string, bool) {
	dirs := append(append([]string(nil), preferred...), l.Candidates()...)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(executableIn(dir, l.OS)); err == nil && !info.IsDir() {
			return dir, true
		}
	}
	return "", false
}

// DefaultUserRoot is where archive installs are unpacked.
func DefaultUserRoot(home string) string {
	return filepath.Join(home, ".dotnet")
}

func executableIn(root string, os platform.OS) string {
	if os == platform.OSWindows {
		return filepath.Join(root, "dotnet.exe")
	}
	return filepath.Join(root, "dotnet")
}

// Executable returns the dotnet host inside root.
func Executable(root string) string {
	return executableIn(root, platform.Current().OS)
}

// SdkInfo is one line of "dotnet --list-sdks".
type SdkInfo struct {
	Version versioning.Version
	Path    string
}

// Dir is the SDK's own directory, <root>/sdk/<version>.
func (s SdkInfo) Dir() string {
	return filepath.Join(s.Path, s.Version.String())
}

// ParseSdkList reads "6.0.100 [/usr/share/dotnet/sdk]" lines. Lines whose
// version does not parse are skipped. The result is sorted ascending.
func ParseSdkList(output string) []SdkInfo {
	var sdks []SdkInfo
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		raw, rest, _ := strings.Cut(line, " ")
		v, ok := versioning.TryParse(raw)
		if !ok {
			continue
		}
		path := strings.TrimSpace(rest)
		path = strings.TrimSuffix(strings.TrimPrefix(path, "["), "]")
		sdks = append(sdks, SdkInfo{Version: v, Path: path})
	}
	sort.SliceStable(sdks, func(i, j int) bool {
		return sdks[i].Version.Compare(sdks[j].Version) < 0
	})
	return sdks
}

// ListSdks runs "dotnet --list-sdks" for the installation at root.
func ListSdks(ctx context.Context, runner platform.Runner, root string) ([]SdkInfo, error) {
	result, err := runner.Run(ctx, platform.Command{
		Path: Executable(root),
		Args: []string{"--list-sdks"},
		Env:  map[string]string{"DOTNET_CLI_TELEMETRY_OPTOUT": "1", "DOTNET_NOLOGO": "1"},
	})
	if err != nil {
		return nil, fmt.Errorf("dotnet --list-sdks: %w", err)
	}
	return ParseSdkList(result.Stdout), nil
}

// BestMatch returns the highest installed SDK satisfying req.
func BestMatch(sdks []SdkInfo, req versioning.Requirement) (SdkInfo, bool) {
	for i := len(sdks) - 1; i >= 0; i-- {
		if req.IsSatisfiedBy(sdks[i].Version) {
			return sdks[i], true
		}
	}
	return SdkInfo{}, false
}

// FeatureBand is the SDK band workload manifests are installed under:
// major.minor.(patch rounded down to hundreds), keeping the first two
// pre-release identifiers, so 6.0.101 maps to 6.0.100 and
// 6.0.100-preview.5.21302.13 maps to 6.0.100-preview.5.
func FeatureBand(v versioning.Version) string {
	band := fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch()/100*100)
	if pre := v.Prerelease(); pre != "" {
		parts := strings.SplitN(pre, ".", 3)
		if len(parts) > 2 {
			parts = parts[:2]
		}
		band += "-" + strings.Join(parts, ".")
	}
	return band
}
