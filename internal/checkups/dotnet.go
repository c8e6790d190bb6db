package checkups

import (
	"context"
	"fmt"
	"os"
	"strings"

	"envdoctor/internal/doctor"
	"envdoctor/internal/dotnet"
	"envdoctor/internal/manifest"
	"envdoctor/internal/solutions"
	"envdoctor/internal/versioning"
)

const DotNetID = "dotnet"

// keyDotNetSdkVersions maps each manifest SDK version to the installed SDK
// version chosen for it.
const keyDotNetSdkVersions = "dotnet.sdk_versions"

// DotNetSdkCheckup verifies the manifest's SDKs are installed.
type DotNetSdkCheckup struct {
	Sdks []manifest.DotNetSdk
	Env  Environment
}

func (c *DotNetSdkCheckup) ID() string    { return DotNetID }
func (c *DotNetSdkCheckup) Title() string { return ".NET SDK" }

func (c *DotNetSdkCheckup) Examine(ctx context.Context, state *doctor.SharedState) (doctor.Diagnosis, error) {
	// A root recorded by an earlier examination or an install wins over the
	// host's DOTNET_ROOT, which still points where it did before the run.
	recorded, _ := state.GetString(doctor.KeyDotNetRoot)
	exported, _ := state.EnvironmentVariable(dotnet.RootVariable)
	root, found := c.Env.dotnetLocator().Locate(recorded, exported)

	var installed []dotnet.SdkInfo
	var details []string
	if found {
		sdks, err := dotnet.ListSdks(ctx, c.Env.Runner, root)
		if err != nil {
			if ctx.Err() != nil {
				return doctor.Diagnosis{}, ctx.Err()
			}
			details = append(details, err.Error())
		}
		installed = sdks
		state.Set(doctor.KeyDotNetRoot, root)
		state.SetEnvironmentVariable(dotnet.RootVariable, root)
	} else {
		state.Delete(doctor.KeyDotNetRoot)
		details = append(details, "dotnet not found")
	}

	resolved := make(map[string]string)
	var missing []string
	var fixes []doctor.Solution
	for i, sdk := range c.Sdks {
		v, err := versioning.Parse(sdk.Version)
		if err != nil {
			missing = append(missing, sdk.Version)
			details = append(details, err.Error())
			continue
		}
		if match, ok := dotnet.BestMatch(installed, versioning.ExactRequirement(v, sdk.RequireExact)); ok {
			resolved[sdk.Version] = match.Version.String()
			if i == 0 {
				state.Set(doctor.KeyDotNetSdkVersion, match.Version.String())
			}
			details = append(details, fmt.Sprintf("%s (%s)", match.Version, match.Dir()))
			continue
		}

		missing = append(missing, sdk.Version)
		url, err := sdk.ResolveURL(c.Env.PlatformKey)
		if err != nil {
			details = append(details, err.Error())
			continue
		}
		fixes = append(fixes, &solutions.DotNetSdkInstallSolution{
			URL:        string(url),
			Version:    sdk.Version,
			InstallDir: dotnet.DefaultUserRoot(c.Env.Home),
			Runner:     c.Env.Runner,
			IsAdmin:    c.Env.IsAdmin,
		})
	}
	state.Set(keyDotNetSdkVersions, resolved)

	if len(missing) == 0 {
		return doctor.Ok(c, root).WithDetails(details...), nil
	}
	msg := "Missing .NET SDK: " + strings.Join(missing, ", ")
	return doctor.Fail(c, msg, solutions.Combine("dotnet-sdks", fixes)).WithDetails(details...), nil
}

// installedSdk returns the root and the installed version chosen for sdk by
// DotNetSdkCheckup.
func installedSdk(state *doctor.SharedState, sdk manifest.DotNetSdk) (root, version string, ok bool) {
	root, ok = state.GetString(doctor.KeyDotNetRoot)
	if !ok {
		return "", "", false
	}
	versions, ok := doctor.Lookup[map[string]string](state, keyDotNetSdkVersions)
	if !ok {
		return "", "", false
	}
	version, ok = versions[sdk.Version]
	return root, version, ok
}

// DotNetWorkloadsCheckup verifies the workload manifests an SDK needs.
type DotNetWorkloadsCheckup struct {
	Sdk manifest.DotNetSdk
	Env Environment
}

func (c *DotNetWorkloadsCheckup) ID() string             { return "dotnetworkloads-" + c.Sdk.Version }
func (c *DotNetWorkloadsCheckup) Title() string          { return ".NET SDK - Workloads (" + c.Sdk.Version + ")" }
func (c *DotNetWorkloadsCheckup) Dependencies() []string { return []string{DotNetID} }

func (c *DotNetWorkloadsCheckup) Examine(_ context.Context, state *doctor.SharedState) (doctor.Diagnosis, error) {
	root, installed, ok := installedSdk(state, c.Sdk)
	if !ok {
		return doctor.Fail(c, fmt.Sprintf(".NET SDK %s is not installed", c.Sdk.Version), nil), nil
	}
	sdkVersion, err := versioning.Parse(installed)
	if err != nil {
		return doctor.Diagnosis{}, err
	}
	band := dotnet.FeatureBand(sdkVersion)
	resolver := c.Sdk.EnableWorkloadResolver && !dotnet.WorkloadResolverEnabled(root, installed)

	var details []string
	var fixes []doctor.Solution
	for _, w := range c.Sdk.Workloads {
		status := workloadStatus(root, band, w)
		details = append(details, fmt.Sprintf("%s %s: %s", w.ID, w.Version, status))
		if status == "installed" {
			continue
		}
		fixes = append(fixes, &solutions.DotNetWorkloadInstallSolution{
			SdkRoot:        root,
			SdkVersion:     installed,
			Workload:       w,
			PackageSources: c.Sdk.PackageSources,
			EnableResolver: c.Sdk.EnableWorkloadResolver,
			Installer:      dotnet.NewWorkloadManager(root, installed, c.Sdk.PackageSources, c.Env.Runner),
		})
	}

	if len(fixes) == 0 && !resolver {
		return doctor.Ok(c, fmt.Sprintf("%d workloads installed", len(c.Sdk.Workloads))).WithDetails(details...), nil
	}
	if len(fixes) == 0 {
		fix := &solutions.DotNetWorkloadResolverSolution{SdkRoot: root, SdkVersion: installed}
		return doctor.Fail(c, "Workload resolver is not enabled", fix).WithDetails(details...), nil
	}
	msg := fmt.Sprintf("%d workloads need installing", len(fixes))
	return doctor.Fail(c, msg, solutions.Combine("workloads-"+installed, fixes)).WithDetails(details...), nil
}

func workloadStatus(root, band string, w manifest.DotNetWorkload) string {
	path := dotnet.WorkloadManifestPath(root, band, dotnet.ManifestID(w.PackageID))
	m, err := dotnet.ReadWorkloadManifest(path)
	switch {
	case os.IsNotExist(err):
		return "not installed"
	case err != nil:
		return "unreadable manifest"
	}
	required, ok := versioning.TryParse(w.Version)
	if !ok {
		return "invalid required version"
	}
	if !versioning.IsCompatibleString(m.Version, required, nil) {
		return "manifest " + m.Version + " is older than required"
	}
	if len(m.Workloads) > 0 && !m.HasWorkload(w.ID) {
		return "not defined by manifest " + m.Version
	}
	return "installed"
}

// DotNetPacksCheckup warns about missing packs. Packs arrive with
// workloads, so it offers no solution.
type DotNetPacksCheckup struct {
	Sdk manifest.DotNetSdk
}

func (c *DotNetPacksCheckup) ID() string             { return "dotnetpacks-" + c.Sdk.Version }
func (c *DotNetPacksCheckup) Title() string          { return ".NET SDK - Packs (" + c.Sdk.Version + ")" }
func (c *DotNetPacksCheckup) Dependencies() []string { return []string{DotNetID} }

func (c *DotNetPacksCheckup) Examine(_ context.Context, state *doctor.SharedState) (doctor.Diagnosis, error) {
	root, ok := state.GetString(doctor.KeyDotNetRoot)
	if !ok {
		return doctor.Fail(c, ".NET SDK location unknown", nil), nil
	}

	var missing, details []string
	for _, pack := range c.Sdk.Packs {
		if info, err := os.Stat(dotnet.PackDir(root, pack.ID, pack.Version)); err == nil && info.IsDir() {
			details = append(details, pack.ID+" "+pack.Version+" installed")
			continue
		}
		missing = append(missing, pack.ID+" "+pack.Version)
	}
	if len(missing) == 0 {
		return doctor.Ok(c, fmt.Sprintf("%d packs installed", len(c.Sdk.Packs))).WithDetails(details...), nil
	}
	return doctor.Warn(c, "Missing packs: "+strings.Join(missing, ", "), nil).WithDetails(details...), nil
}
