package checkups

import (
	"context"
	"fmt"
	"strings"

	"envdoctor/internal/android"
	"envdoctor/internal/doctor"
	"envdoctor/internal/manifest"
	"envdoctor/internal/solutions"
)

const (
	AndroidSdkID      = "androidsdk"
	AndroidPackagesID = "androidsdk-packages"
)

// AndroidSdkCheckup locates the SDK and records its root.
type AndroidSdkCheckup struct {
	Locator *android.Locator
}

func (c *AndroidSdkCheckup) ID() string    { return AndroidSdkID }
func (c *AndroidSdkCheckup) Title() string { return "Android SDK" }

func (c *AndroidSdkCheckup) Examine(_ context.Context, state *doctor.SharedState) (doctor.Diagnosis, error) {
	root, ok := c.Locator.Locate()
	if !ok {
		details := make([]string, 0)
		for _, dir := range c.Locator.Candidates() {
			details = append(details, "searched "+dir)
		}
		return doctor.Fail(c, "Android SDK not found", nil).WithDetails(details...), nil
	}

	state.Set(doctor.KeyAndroidSdkRoot, root)
	state.SetEnvironmentVariable(android.SdkRootVariable, root)
	return doctor.Ok(c, root), nil
}

// AndroidPackagesCheckup verifies the required SDK packages, walking each
// package's alternatives in order.
type AndroidPackagesCheckup struct {
	Packages []manifest.AndroidPackage
	Env      Environment
}

func (c *AndroidPackagesCheckup) ID() string             { return AndroidPackagesID }
func (c *AndroidPackagesCheckup) Title() string          { return "Android SDK Packages" }
func (c *AndroidPackagesCheckup) Dependencies() []string { return []string{AndroidSdkID} }

func (c *AndroidPackagesCheckup) Examine(_ context.Context, state *doctor.SharedState) (doctor.Diagnosis, error) {
	root, ok := state.GetString(doctor.KeyAndroidSdkRoot)
	if !ok {
		return doctor.Fail(c, "Android SDK location unknown", nil), nil
	}
	sdk := android.Sdk{Root: root}

	var details, missing, installable []string
	for _, pkg := range c.Packages {
		res := pkg.Resolve(c.Env.Is64Bit, sdk.IsInstalled)
		if res.Found {
			details = append(details, res.Match.Path+" installed")
			continue
		}
		missing = append(missing, pkg.Path)
		details = append(details, fmt.Sprintf("%s missing (tried: %s)", pkg.Path, strings.Join(res.Attempted, ", ")))
		if candidate, ok := pkg.InstallCandidate(c.Env.Is64Bit); ok {
			installable = append(installable, candidate.Path)
		}
	}

	if len(missing) == 0 {
		return doctor.Ok(c, fmt.Sprintf("%d packages installed", len(c.Packages))).WithDetails(details...), nil
	}

	var sol doctor.Solution
	if len(installable) > 0 {
		sol = &solutions.AndroidPackagesInstallSolution{SdkRoot: root, Packages: installable, Runner: c.Env.Runner}
	}
	msg := "Missing Android packages: " + strings.Join(missing, ", ")
	return doctor.Fail(c, msg, sol).WithDetails(details...), nil
}
