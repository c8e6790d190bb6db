package solutions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"envdoctor/internal/doctor"
	"envdoctor/internal/dotnet"
	doctorerrors "envdoctor/internal/errors"
	"envdoctor/internal/installer"
	"envdoctor/internal/platform"
)

// DotNetSdkInstallSolution downloads an SDK and installs it. Archives are
// unpacked into InstallDir without elevation; platform installers (.pkg,
// .exe) need administrator rights.
type DotNetSdkInstallSolution struct {
	URL        string
	Version    string
	InstallDir string

	Runner  platform.Runner
	IsAdmin func() bool
}

func (s *DotNetSdkInstallSolution) Key() string {
	return doctor.SolutionKey("DotNetSdkInstall", s.URL, s.Version, s.InstallDir)
}

func (s *DotNetSdkInstallSolution) Dependencies() []doctor.Solution { return nil }

func (s *DotNetSdkInstallSolution) Implement(ctx context.Context, state *doctor.SharedState, progress doctor.Progress) error {
	inst := installer.New(s.Runner)
	name := installer.FileName(s.URL)
	archive := installer.IsArchive(name)

	if !archive && !s.admin() {
		return doctorerrors.NewRemediationError(s.Key(), "Installing the .NET SDK requires administrator rights.",
			doctorerrors.NewPermissionError("install "+name, nil))
	}

	tmp, err := os.MkdirTemp("", "envdoctor-dotnet-*")
	if err != nil {
		return doctorerrors.NewRemediationError(s.Key(), "", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	progress.ReportStatus(fmt.Sprintf("Downloading .NET SDK %s...", s.Version))
	download := filepath.Join(tmp, name)
	if err := inst.DownloadFile(ctx, s.URL, download); err != nil {
		return doctorerrors.NewRemediationError(s.Key(), "Failed to download .NET SDK "+s.Version+".", err)
	}

	progress.ReportStatus(fmt.Sprintf("Installing .NET SDK %s...", s.Version))
	if archive {
		if err := inst.ExtractArchive(ctx, download, s.InstallDir); err != nil {
			return doctorerrors.NewRemediationError(s.Key(), "Failed to extract .NET SDK "+s.Version+".", err)
		}
		state.Set(doctor.KeyDotNetRoot, s.InstallDir)
		state.SetEnvironmentVariable(dotnet.RootVariable, s.InstallDir)
	} else if err := s.runInstaller(ctx, inst, download); err != nil {
		return doctorerrors.NewRemediationError(s.Key(), "Failed to install .NET SDK "+s.Version+".", err)
	}

	progress.ReportStatus(fmt.Sprintf("Installed .NET SDK %s.", s.Version))
	return nil
}

func (s *DotNetSdkInstallSolution) admin() bool {
	if s.IsAdmin != nil {
		return s.IsAdmin()
	}
	return platform.IsAdmin()
}

func (s *DotNetSdkInstallSolution) runInstaller(ctx context.Context, inst *installer.Installer, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pkg":
		return inst.RunCommand(ctx, "installer", "-pkg", path, "-target", "/")
	case ".exe":
		return inst.RunCommand(ctx, path, "/install", "/quiet", "/norestart")
	default:
		return fmt.Errorf("unsupported installer: %s", filepath.Base(path))
	}
}
