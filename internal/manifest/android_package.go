package manifest

import (
	"path/filepath"
	"strings"

	"envdoctor/internal/platform"
)

// ArchX86 is the only architecture that needs a 32-bit process.
const ArchX86 = "x86"

type AndroidPackage struct {
	// Path is the sdkmanager path, e.g. "platforms;android-30".
	Path         string           `json:"path" yaml:"path"`
	Alternatives []AndroidPackage `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	Version      string           `json:"version,omitempty" yaml:"version,omitempty"`
	Arch         string           `json:"arch,omitempty" yaml:"arch,omitempty"`
}

// IsArchCompatible checks Arch against the running tool's bitness.
func (p AndroidPackage) IsArchCompatible() bool {
	return p.IsArchCompatibleFor(platform.Is64BitProcess())
}

// IsArchCompatibleFor: an empty Arch fits any process, "x86" needs a 32-bit
// process and every other value needs a 64-bit process.
func (p AndroidPackage) IsArchCompatibleFor(is64Bit bool) bool {
	switch {
	case p.Arch == "":
		return true
	case p.Arch == ArchX86:
		return !is64Bit
	default:
		return is64Bit
	}
}

// Candidates lists the package followed by its alternatives, depth first.
func (p AndroidPackage) Candidates() []AndroidPackage {
	out := []AndroidPackage{p}
	for _, alt := range p.Alternatives {
		out = append(out, alt.Candidates()...)
	}
	return out
}

// RelativeDir converts the sdkmanager path into a directory below the SDK root.
func (p AndroidPackage) RelativeDir() string {
	return filepath.FromSlash(strings.ReplaceAll(p.Path, ";", "/"))
}

// Resolution is the outcome of walking a package's candidates.
type Resolution struct {
	Match     AndroidPackage
	Found     bool
	Attempted []string
}

// Resolve walks the candidates in order and stops at the first one that is
// arch compatible for is64Bit and reported present by the predicate. The
// predicate is not consulted for incompatible candidates.
func (p AndroidPackage) Resolve(is64Bit bool, present func(AndroidPackage) bool) Resolution {
	var res Resolution
	for _, c := range p.Candidates() {
		res.Attempted = append(res.Attempted, c.Path)
		if !c.IsArchCompatibleFor(is64Bit) {
			continue
		}
		if present(c) {
			res.Match = c
			res.Found = true
			return res
		}
	}
	return res
}

// InstallCandidate returns the first arch-compatible candidate to install.
func (p AndroidPackage) InstallCandidate(is64Bit bool) (AndroidPackage, bool) {
	for _, c := range p.Candidates() {
		if c.IsArchCompatibleFor(is64Bit) {
			return c, true
		}
	}
	return AndroidPackage{}, false
}
