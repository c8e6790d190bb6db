package checkups

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"envdoctor/internal/doctor"
	"envdoctor/internal/platform"
	"envdoctor/internal/versioning"
)

const OpenJdkID = "openjdk"

// DefaultOpenJdkMinimum applies when the manifest names no minimum.
const DefaultOpenJdkMinimum = "1.8.0-1"

// DefaultVendorHints are the path fragments that mark a supported JDK build.
var DefaultVendorHints = []string{"openjdk", "microsoft"}

var javacVersionPattern = regexp.MustCompile(`[0-9.\-_]+`)

const maxJdkSearchDepth = 5

// JdkInfo is one javac found on disk.
type JdkInfo struct {
	Javac   string
	Version versioning.Version
}

// Home is the JDK root, the parent of javac's bin directory.
func (j JdkInfo) Home() string {
	return filepath.Dir(filepath.Dir(j.Javac))
}

type OpenJdkCheckup struct {
	Requirement versioning.Requirement
	VendorHints []string

	// SearchDirs replaces the default search locations when set.
	SearchDirs []string

	Env Environment
}

func NewOpenJdkCheckup(minimum, exact string, env Environment) (*OpenJdkCheckup, error) {
	if minimum == "" {
		minimum = DefaultOpenJdkMinimum
	}
	req, err := versioning.NewRequirement(minimum, exact)
	if err != nil {
		return nil, fmt.Errorf("openjdk requirement: %w", err)
	}
	return &OpenJdkCheckup{Requirement: req, VendorHints: DefaultVendorHints, Env: env}, nil
}

func (c *OpenJdkCheckup) ID() string    { return OpenJdkID }
func (c *OpenJdkCheckup) Title() string { return "OpenJDK " + c.Requirement.String() }

func (c *OpenJdkCheckup) Examine(ctx context.Context, state *doctor.SharedState) (doctor.Diagnosis, error) {
	jdks, err := c.FindJdks(ctx)
	if err != nil {
		return doctor.Diagnosis{}, err
	}

	var best *JdkInfo
	var details []string
	for i := range jdks {
		jdk := jdks[i]
		ok := c.isSupportedVendor(jdk.Javac) && c.Requirement.IsSatisfiedBy(jdk.Version)
		mark := "incompatible"
		if ok {
			mark = "compatible"
			if best == nil || jdk.Version.Compare(best.Version) > 0 {
				best = &jdk
			}
		}
		details = append(details, fmt.Sprintf("%s (%s) %s", jdk.Version, jdk.Home(), mark))
	}

	if best == nil {
		msg := fmt.Sprintf("No compatible OpenJDK found (requires %s)", c.Requirement)
		return doctor.Fail(c, msg, nil).WithDetails(details...), nil
	}

	home := best.Home()
	state.Set(doctor.KeyOpenJdkHome, home)
	state.SetEnvironmentVariable("JAVA_HOME", home)
	return doctor.Ok(c, fmt.Sprintf("%s (%s)", best.Version, home)).WithDetails(details...), nil
}

func (c *OpenJdkCheckup) isSupportedVendor(path string) bool {
	if len(c.VendorHints) == 0 {
		return true
	}
	lower := strings.ToLower(path)
	for _, hint := range c.VendorHints {
		if strings.Contains(lower, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

// Dirs lists the directories searched for javac.
func (c *OpenJdkCheckup) Dirs() []string {
	if c.SearchDirs != nil {
		return c.SearchDirs
	}

	var dirs []string
	switch c.Env.OS {
	case platform.OSWindows:
		dirs = append(dirs, `C:\Program Files\Android\Jdk`, `C:\Program Files\Microsoft`)
	case platform.OSMacOS:
		dirs = append(dirs,
			filepath.Join(c.Env.Home, "Library", "Developer", "Xamarin", "jdk"),
			"/Library/Java/JavaVirtualMachines")
	default:
		dirs = append(dirs, "/usr/lib/jvm")
	}
	dirs = append(dirs, c.Env.getenv("JAVA_HOME"), c.Env.getenv("JDK_HOME"))

	for _, entry := range filepath.SplitList(c.Env.getenv("PATH")) {
		lower := strings.ToLower(entry)
		if strings.Contains(lower, "java") || strings.Contains(lower, "jdk") {
			dirs = append(dirs, entry)
		}
	}
	return dirs
}

// FindJdks locates every javac below the search directories and reads its
// version. Duplicates by javac path are dropped.
func (c *OpenJdkCheckup) FindJdks(ctx context.Context) ([]JdkInfo, error) {
	seen := make(map[string]bool)
	var jdks []JdkInfo
	for _, dir := range c.Dirs() {
		if dir == "" {
			continue
		}
		for _, javac := range findJavac(dir, javacName(c.Env.OS)) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if seen[javac] {
				continue
			}
			seen[javac] = true
			if v, ok := c.javacVersion(ctx, javac); ok {
				jdks = append(jdks, JdkInfo{Javac: javac, Version: v})
			}
		}
	}
	return jdks, nil
}

func (c *OpenJdkCheckup) javacVersion(ctx context.Context, javac string) (versioning.Version, bool) {
	result, err := c.Env.Runner.Run(ctx, platform.Command{Path: javac, Args: []string{"-version"}, Cacheable: true})
	if err != nil {
		return versioning.Version{}, false
	}
	for _, match := range javacVersionPattern.FindAllString(result.Output(), -1) {
		if v, ok := versioning.TryParse(match); ok {
			return v, true
		}
	}
	return versioning.Version{}, false
}

func javacName(os platform.OS) string {
	if os == platform.OSWindows {
		return "javac.exe"
	}
	return "javac"
}

func findJavac(root, name string) []string {
	root = filepath.Clean(root)
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	var found []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			if rel != "." && strings.Count(rel, string(filepath.Separator)) >= maxJdkSearchDepth {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == name {
			found = append(found, path)
		}
		return nil
	})
	return found
}
