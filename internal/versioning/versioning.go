// Package versioning decides whether a discovered tool version satisfies a
// minimum and/or exact requirement.
//
// Versions are semantic versions parsed with github.com/Masterminds/semver/v3,
// so pre-release and build metadata follow semver precedence.
package versioning

import (
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"

	derrors "envdoctor/internal/errors"
)

// Version is a parsed semantic version. The zero value means "absent".
type Version struct {
	v *mm.Version
}

// Normalize cleans raw version text scraped from tool output before parsing.
// Java update separators are read as pre-release separators so that
// "1.8.0_292" orders after "1.8.0_1". Components past the third are folded
// into the pre-release ("11.0.2.1" becomes "11.0.2-1") and numeric
// pre-release identifiers lose leading zeros ("1.8.0_05" becomes "1.8.0-5").
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, ".-_")
	s = strings.ReplaceAll(s, "_", "-")

	s, build, hasBuild := strings.Cut(s, "+")
	core, pre, hasPre := strings.Cut(s, "-")
	if parts := strings.Split(core, "."); len(parts) > 3 {
		extra := strings.Join(parts[3:], ".")
		core = strings.Join(parts[:3], ".")
		if hasPre {
			pre = extra + "." + pre
		} else {
			pre = extra
		}
		hasPre = true
	}

	s = core
	if hasPre {
		ids := strings.Split(pre, ".")
		for i, id := range ids {
			ids[i] = trimLeadingZeros(id)
		}
		s += "-" + strings.Join(ids, ".")
	}
	if hasBuild {
		s += "+" + build
	}
	return s
}

func trimLeadingZeros(id string) string {
	if len(id) < 2 || strings.Trim(id, "0123456789") != "" {
		return id
	}
	if trimmed := strings.TrimLeft(id, "0"); trimmed != "" {
		return trimmed
	}
	return "0"
}

// Parse parses raw into a Version. Failures are *errors.VersionParseError.
func Parse(raw string) (Version, error) {
	normalized := Normalize(raw)
	if normalized == "" {
		return Version{}, derrors.NewVersionParseError(raw, nil)
	}
	v, err := mm.NewVersion(normalized)
	if err != nil {
		return Version{}, derrors.NewVersionParseError(raw, err)
	}
	return Version{v: v}, nil
}

// TryParse is Parse without the error.
func TryParse(raw string) (Version, bool) {
	v, err := Parse(raw)
	return v, err == nil
}

// IsZero reports whether v is absent.
func (v Version) IsZero() bool {
	return v.v == nil
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.Original()
}

// Semver returns the canonical major.minor.patch[-pre][+meta] form.
func (v Version) Semver() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

func (v Version) Major() uint64 {
	if v.v == nil {
		return 0
	}
	return v.v.Major()
}

func (v Version) Minor() uint64 {
	if v.v == nil {
		return 0
	}
	return v.v.Minor()
}

func (v Version) Patch() uint64 {
	if v.v == nil {
		return 0
	}
	return v.v.Patch()
}

func (v Version) Prerelease() string {
	if v.v == nil {
		return ""
	}
	return v.v.Prerelease()
}

// Compare compares v and o, returning:
// -1 if v < o
//
//	0 if v == o
//	1 if v > o
//
// An absent version sorts before every present one.
func (v Version) Compare(o Version) int {
	switch {
	case v.v == nil && o.v == nil:
		return 0
	case v.v == nil:
		return -1
	case o.v == nil:
		return 1
	}
	return v.v.Compare(o.v)
}

// Equal reports semver equality; build metadata is ignored.
func (v Version) Equal(o Version) bool {
	if v.v == nil || o.v == nil {
		return false
	}
	return v.Compare(o) == 0
}

// MarshalText renders the original version text.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses version text; empty text yields the zero Version.
func (v *Version) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*v = Version{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// IsCompatible reports whether candidate satisfies the requirement. When
// exact is present only an equal candidate is compatible and minimum is
// ignored; otherwise candidate must be >= minimum. A missing minimum is a
// programming error.
func IsCompatible(candidate, minimum Version, exact *Version) bool {
	if minimum.IsZero() {
		panic("versioning: minimum version is required")
	}
	if candidate.IsZero() {
		return false
	}
	if exact != nil && !exact.IsZero() {
		return candidate.Equal(*exact)
	}
	return candidate.Compare(minimum) >= 0
}

// IsCompatibleString parses candidate and checks it. Unparsable text is
// incompatible.
func IsCompatibleString(candidate string, minimum Version, exact *Version) bool {
	v, ok := TryParse(candidate)
	if !ok {
		return false
	}
	return IsCompatible(v, minimum, exact)
}

// DisplayRequirement renders the requirement for diagnostic titles.
func DisplayRequirement(minimum Version, exact *Version) string {
	if exact != nil && !exact.IsZero() {
		return exact.String()
	}
	return fmt.Sprintf(">= %s", minimum)
}
