package dotnet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envdoctor/internal/platform"
)

func TestManifestID(t *testing.T) {
	assert.Equal(t, "microsoft.net.sdk.android", ManifestID("Microsoft.NET.Sdk.Android.Manifest-6.0.100"))
	assert.Equal(t, "microsoft.net.sdk.maui", ManifestID("Microsoft.NET.Sdk.Maui"))
}

func TestReadWorkloadManifest(t *testing.T) {
	root := t.TempDir()
	path := WorkloadManifestPath(root, "6.0.100", "microsoft.net.sdk.android")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{
  // generated
  "version": "30.0.100-preview.5.28",
  "workloads": { "microsoft-android-sdk-full": {}, },
}`), 0644))

	m, err := ReadWorkloadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "30.0.100-preview.5.28", m.Version)
	assert.True(t, m.HasWorkload("microsoft-android-sdk-full"))
	assert.False(t, m.HasWorkload("maui"))

	_, err = ReadWorkloadManifest(filepath.Join(root, "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestEnableWorkloadResolver(t *testing.T) {
	root := t.TempDir()
	assert.Error(t, EnableWorkloadResolver(root, "6.0.100"))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sdk", "6.0.100"), 0755))
	assert.False(t, WorkloadResolverEnabled(root, "6.0.100"))
	require.NoError(t, EnableWorkloadResolver(root, "6.0.100"))
	assert.True(t, WorkloadResolverEnabled(root, "6.0.100"))
	require.NoError(t, EnableWorkloadResolver(root, "6.0.100"))
}

func TestInstallWorkloadManifest(t *testing.T) {
	runner := &stubRunner{}
	m := NewWorkloadManager("/opt/dotnet", "6.0.100", []string{"https://feed/index.json"}, runner)
	m.tempDir = t.TempDir()

	ok, err := m.InstallWorkloadManifest(context.Background(),
		"Microsoft.NET.Sdk.Android.Manifest-6.0.100", "microsoft-android-sdk-full",
		mustVersion(t, "30.0.100-preview.5.28"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, runner.cmds, 2)
	update := runner.cmds[0].Args
	assert.Equal(t, []string{"workload", "update", "--from-rollback-file"}, update[:3])
	assert.Equal(t, []string{"--source", "https://feed/index.json"}, update[4:])
	assert.Equal(t, []string{"workload", "install", "microsoft-android-sdk-full", "--skip-manifest-update",
		"--source", "https://feed/index.json"}, runner.cmds[1].Args)
	assert.Equal(t, "/opt/dotnet", runner.cmds[1].Env[RootVariable])

	leftovers, err := os.ReadDir(m.tempDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "rollback file removed")
}

func TestInstallWorkloadManifestFailure(t *testing.T) {
	runner := &stubRunner{result: &platform.Result{ExitCode: 1, Stderr: "NU1101"}, err: errors.New("exit status 1")}
	m := NewWorkloadManager("/opt/dotnet", "6.0.100", nil, runner)
	m.tempDir = t.TempDir()

	ok, err := m.InstallWorkloadManifest(context.Background(), "Microsoft.NET.Sdk.Maui.Manifest-6.0.100", "maui",
		mustVersion(t, "6.0.100"))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, runner.cmds, 1, "install is not attempted after a failed update")
}
