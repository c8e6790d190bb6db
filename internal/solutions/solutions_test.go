package solutions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envdoctor/internal/doctor"
	doctorerrors "envdoctor/internal/errors"
	"envdoctor/internal/manifest"
	"envdoctor/internal/platform"
	"envdoctor/internal/versioning"
)

type fakeInstaller struct {
	calls   int
	ok      bool
	err     error
	version versioning.Version
}

func (f *fakeInstaller) InstallWorkloadManifest(_ context.Context, _, _ string, version versioning.Version) (bool, error) {
	f.calls++
	f.version = version
	return f.ok, f.err
}

type messages []string

func (m *messages) ReportStatus(msg string) { *m = append(*m, msg) }

func workload(version string) manifest.DotNetWorkload {
	return manifest.DotNetWorkload{
		PackageID: "Microsoft.NET.Sdk.Maui.Manifest-6.0.100",
		ID:        "maui",
		Version:   version,
	}
}

func TestWorkloadInstallRejectsBadVersionBeforeInstalling(t *testing.T) {
	inst := &fakeInstaller{ok: true}
	s := &DotNetWorkloadInstallSolution{SdkRoot: "/dotnet", SdkVersion: "6.0.100", Workload: workload("not-a-version"), Installer: inst}

	var progress messages
	err := s.Implement(context.Background(), doctor.NewSharedState(), &progress)

	require.Error(t, err)
	assert.Equal(t, 0, inst.calls)
	assert.True(t, doctorerrors.IsRemediationError(err))
	assert.True(t, doctorerrors.IsVersionParseError(err))
	assert.Contains(t, err.Error(), "Failed to install workload: maui.")
	assert.Equal(t, messages{"Installing Workload: maui...", "Failed to install workload: maui."}, progress)
}

func TestWorkloadInstallSuccess(t *testing.T) {
	inst := &fakeInstaller{ok: true}
	s := &DotNetWorkloadInstallSolution{SdkRoot: "/dotnet", SdkVersion: "6.0.100", Workload: workload("6.0.100-preview.5.794"), Installer: inst}

	var progress messages
	require.NoError(t, s.Implement(context.Background(), doctor.NewSharedState(), &progress))
	assert.Equal(t, 1, inst.calls)
	assert.Equal(t, "6.0.100-preview.5.794", inst.version.String())
	assert.Equal(t, "Installed Workload: maui.", progress[len(progress)-1])
}

func TestWorkloadInstallFailure(t *testing.T) {
	for _, inst := range []*fakeInstaller{{ok: false}, {err: errors.New("feed unreachable")}} {
		s := &DotNetWorkloadInstallSolution{Workload: workload("6.0.100"), Installer: inst}
		err := s.Implement(context.Background(), doctor.NewSharedState(), &messages{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Failed to install workload: maui.")
	}
}

func TestWorkloadInstallKeyAndDependencies(t *testing.T) {
	a := &DotNetWorkloadInstallSolution{SdkRoot: "/dotnet", SdkVersion: "6.0.100", Workload: workload("6.0.100"),
		PackageSources: []string{"https://a"}, Installer: &fakeInstaller{}}
	b := &DotNetWorkloadInstallSolution{SdkRoot: "/dotnet", SdkVersion: "6.0.100", Workload: workload("6.0.100"),
		PackageSources: []string{"https://a"}, Installer: &fakeInstaller{ok: true}}
	assert.Equal(t, a.Key(), b.Key())

	c := *a
	c.PackageSources = []string{"https://b"}
	assert.NotEqual(t, a.Key(), c.Key())

	assert.Empty(t, a.Dependencies())
	a.EnableResolver = true
	deps := a.Dependencies()
	require.Len(t, deps, 1)
	assert.Equal(t, (&DotNetWorkloadResolverSolution{SdkRoot: "/dotnet", SdkVersion: "6.0.100"}).Key(), deps[0].Key())
}

func TestWorkloadResolverSolution(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sdk", "6.0.100"), 0755))

	s := &DotNetWorkloadResolverSolution{SdkRoot: root, SdkVersion: "6.0.100"}
	require.NoError(t, s.Implement(context.Background(), doctor.NewSharedState(), &messages{}))
	assert.FileExists(t, filepath.Join(root, "sdk", "6.0.100", "EnableWorkloadResolver.sentinel"))

	missing := &DotNetWorkloadResolverSolution{SdkRoot: root, SdkVersion: "7.0.100"}
	assert.Error(t, missing.Implement(context.Background(), doctor.NewSharedState(), &messages{}))
}

func TestGroup(t *testing.T) {
	one := &DotNetWorkloadInstallSolution{Workload: workload("6.0.100")}
	two := &DotNetWorkloadInstallSolution{Workload: manifest.DotNetWorkload{ID: "android", Version: "30.0.100"}}
	group := NewGroup("workloads", one, two)

	deps := group.Dependencies()
	require.Len(t, deps, 2)
	assert.Equal(t, one.Key(), deps[0].Key())
	assert.Equal(t, "Group(workloads,"+one.Key()+"|"+two.Key()+")", group.Key())

	var progress messages
	require.NoError(t, group.Implement(context.Background(), doctor.NewSharedState(), &progress))
	assert.Equal(t, messages{"workloads: 2 solutions completed."}, progress)

	assert.Same(t, one, Combine("workloads", []doctor.Solution{one}))
	assert.Nil(t, Combine("workloads", nil))
}

type recordingRunner struct {
	cmds []platform.Command
	err  error
}

func (r *recordingRunner) Run(_ context.Context, cmd platform.Command) (*platform.Result, error) {
	r.cmds = append(r.cmds, cmd)
	if r.err != nil {
		return &platform.Result{ExitCode: 1}, r.err
	}
	return &platform.Result{}, nil
}

func fakeSdk(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	name := "sdkmanager"
	if platform.IsWindows() {
		name = "sdkmanager.bat"
	}
	bin := filepath.Join(root, "cmdline-tools", "latest", "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, name), nil, 0755))
	return root
}

func TestAndroidPackagesInstall(t *testing.T) {
	root := fakeSdk(t)
	runner := &recordingRunner{}
	s := &AndroidPackagesInstallSolution{SdkRoot: root, Packages: []string{"platform-tools", "build-tools;30.0.3"}, Runner: runner}

	state := doctor.NewSharedState()
	state.SetEnvironmentVariable("JAVA_HOME", "/opt/jdk")
	require.NoError(t, s.Implement(context.Background(), state, &messages{}))

	require.Len(t, runner.cmds, 1)
	cmd := runner.cmds[0]
	assert.Equal(t, []string{"--sdk_root=" + root, "--install", "platform-tools", "build-tools;30.0.3"}, cmd.Args)
	assert.Equal(t, "/opt/jdk", cmd.Env["JAVA_HOME"])
	assert.Equal(t, root, cmd.Env["ANDROID_SDK_ROOT"])
	assert.Contains(t, cmd.Stdin, "y\n")
}

func TestAndroidSolutionsShareLicenses(t *testing.T) {
	a := &AndroidPackagesInstallSolution{SdkRoot: "/sdk", Packages: []string{"platform-tools"}}
	b := &AndroidPackagesInstallSolution{SdkRoot: "/sdk", Packages: []string{"emulator"}}
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Dependencies()[0].Key(), b.Dependencies()[0].Key())
}

func TestAndroidLicensesWithoutSdkManager(t *testing.T) {
	s := &AndroidLicensesSolution{SdkRoot: t.TempDir(), Runner: &recordingRunner{}}
	err := s.Implement(context.Background(), doctor.NewSharedState(), &messages{})
	assert.ErrorContains(t, err, "sdkmanager not found")
}

func TestAndroidLicensesFailure(t *testing.T) {
	s := &AndroidLicensesSolution{SdkRoot: fakeSdk(t), Runner: &recordingRunner{err: errors.New("exit status 1")}}
	err := s.Implement(context.Background(), doctor.NewSharedState(), &messages{})
	require.Error(t, err)
	assert.True(t, doctorerrors.IsRemediationError(err))
}

func TestSdkInstallerNeedsAdmin(t *testing.T) {
	runner := &recordingRunner{}
	s := &DotNetSdkInstallSolution{
		URL:     "https://example.com/dotnet-sdk-6.0.100-osx-x64.pkg",
		Version: "6.0.100",
		Runner:  runner,
		IsAdmin: func() bool { return false },
	}
	err := s.Implement(context.Background(), doctor.NewSharedState(), &messages{})
	require.Error(t, err)
	assert.True(t, doctorerrors.IsPermissionError(err))
	assert.Empty(t, runner.cmds)
}
