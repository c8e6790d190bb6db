// Package solutions holds the remediations checkups attach to their
// diagnoses.
package solutions

import (
	"context"
	"fmt"

	"envdoctor/internal/doctor"
	"envdoctor/internal/dotnet"
	doctorerrors "envdoctor/internal/errors"
	"envdoctor/internal/manifest"
	"envdoctor/internal/versioning"
)

// WorkloadInstaller installs one workload manifest and the workload it
// defines. *dotnet.WorkloadManager implements it.
type WorkloadInstaller interface {
	InstallWorkloadManifest(ctx context.Context, packageID, workloadID string, version versioning.Version) (bool, error)
}

// DotNetWorkloadInstallSolution installs a workload into one SDK.
type DotNetWorkloadInstallSolution struct {
	SdkRoot        string
	SdkVersion     string
	Workload       manifest.DotNetWorkload
	PackageSources []string

	// EnableResolver makes the solution depend on enabling the SDK's
	// workload resolver first.
	EnableResolver bool

	Installer WorkloadInstaller
}

func (s *DotNetWorkloadInstallSolution) Key() string {
	return doctor.SolutionKey("DotNetWorkloadInstall", s.SdkRoot, s.SdkVersion,
		s.Workload.PackageID, s.Workload.ID, s.Workload.Version, s.PackageSources)
}

func (s *DotNetWorkloadInstallSolution) Dependencies() []doctor.Solution {
	if !s.EnableResolver {
		return nil
	}
	return []doctor.Solution{&DotNetWorkloadResolverSolution{SdkRoot: s.SdkRoot, SdkVersion: s.SdkVersion}}
}

func (s *DotNetWorkloadInstallSolution) Implement(ctx context.Context, _ *doctor.SharedState, progress doctor.Progress) error {
	progress.ReportStatus(fmt.Sprintf("Installing Workload: %s...", s.Workload.ID))
	failed := fmt.Sprintf("Failed to install workload: %s.", s.Workload.ID)

	version, err := versioning.Parse(s.Workload.Version)
	if err != nil {
		progress.ReportStatus(failed)
		return doctorerrors.NewRemediationError(s.Key(), failed, err)
	}

	installer := s.Installer
	if installer == nil {
		return doctorerrors.NewRemediationError(s.Key(), failed, fmt.Errorf("no workload installer configured"))
	}

	ok, err := installer.InstallWorkloadManifest(ctx, s.Workload.PackageID, s.Workload.ID, version)
	if err != nil || !ok {
		progress.ReportStatus(failed)
		return doctorerrors.NewRemediationError(s.Key(), failed, err)
	}

	progress.ReportStatus(fmt.Sprintf("Installed Workload: %s.", s.Workload.ID))
	return nil
}

// DotNetWorkloadResolverSolution writes the SDK's workload resolver
// sentinel.
type DotNetWorkloadResolverSolution struct {
	SdkRoot    string
	SdkVersion string
}

func (s *DotNetWorkloadResolverSolution) Key() string {
	return doctor.SolutionKey("DotNetWorkloadResolver", s.SdkRoot, s.SdkVersion)
}

func (s *DotNetWorkloadResolverSolution) Dependencies() []doctor.Solution { return nil }

func (s *DotNetWorkloadResolverSolution) Implement(_ context.Context, _ *doctor.SharedState, progress doctor.Progress) error {
	if dotnet.WorkloadResolverEnabled(s.SdkRoot, s.SdkVersion) {
		return nil
	}
	progress.ReportStatus(fmt.Sprintf("Enabling workload resolver for SDK %s...", s.SdkVersion))
	if err := dotnet.EnableWorkloadResolver(s.SdkRoot, s.SdkVersion); err != nil {
		return doctorerrors.NewRemediationError(s.Key(), "Failed to enable workload resolver.", err)
	}
	return nil
}
