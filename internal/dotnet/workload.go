package dotnet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"envdoctor/internal/common"
	"envdoctor/internal/platform"
	"envdoctor/internal/versioning"
)

// ResolverSentinel enables the workload resolver for an SDK when present
// in the SDK directory.
const ResolverSentinel = "EnableWorkloadResolver.sentinel"

// ManifestID derives the workload manifest id from its NuGet package id by
// dropping the ".Manifest-<band>" suffix: Microsoft.NET.Sdk.Android.Manifest-6.0.100
// becomes microsoft.net.sdk.android.
func ManifestID(packageID string) string {
	id := strings.ToLower(packageID)
	if idx := strings.LastIndex(id, ".manifest-"); idx >= 0 {
		id = id[:idx]
	}
	return id
}

// WorkloadManifestPath is <root>/sdk-manifests/<band>/<manifest id>/WorkloadManifest.json.
func WorkloadManifestPath(root, band, manifestID string) string {
	return filepath.Join(root, "sdk-manifests", band, manifestID, "WorkloadManifest.json")
}

// WorkloadManifest is the subset of WorkloadManifest.json the doctor reads.
type WorkloadManifest struct {
	Version   string                     `json:"version"`
	Workloads map[string]json.RawMessage `json:"workloads"`
	Packs     map[string]json.RawMessage `json:"packs"`
}

// HasWorkload reports whether the manifest defines id.
func (m *WorkloadManifest) HasWorkload(id string) bool {
	_, ok := m.Workloads[id]
	return ok
}

// ReadWorkloadManifest parses a manifest file. Comments and trailing commas
// are accepted.
func ReadWorkloadManifest(path string) (*WorkloadManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m WorkloadManifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &m, nil
}

// PackDir is <root>/packs/<id>/<version>.
func PackDir(root, id, version string) string {
	return filepath.Join(root, "packs", id, version)
}

func resolverSentinelPath(root, sdkVersion string) string {
	return filepath.Join(root, "sdk", sdkVersion, ResolverSentinel)
}

// WorkloadResolverEnabled reports whether the sentinel exists.
func WorkloadResolverEnabled(root, sdkVersion string) bool {
	_, err := os.Stat(resolverSentinelPath(root, sdkVersion))
	return err == nil
}

// EnableWorkloadResolver writes the sentinel. It is a no-op when the file
// already exists.
func EnableWorkloadResolver(root, sdkVersion string) error {
	path := resolverSentinelPath(root, sdkVersion)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return fmt.Errorf("sdk %s not found under %s: %w", sdkVersion, root, err)
	}
	return os.WriteFile(path, nil, 0644)
}

// WorkloadManager installs workload manifests and their workloads through
// the dotnet CLI of one SDK.
type WorkloadManager struct {
	SdkRoot    string
	SdkVersion string
	Sources    []string

	runner  platform.Runner
	tempDir string
	logger  *common.SafeLogger
}

func NewWorkloadManager(sdkRoot, sdkVersion string, sources []string, runner platform.Runner) *WorkloadManager {
	return &WorkloadManager{
		SdkRoot:    sdkRoot,
		SdkVersion: sdkVersion,
		Sources:    sources,
		runner:     runner,
		tempDir:    os.TempDir(),
		logger:     common.CLILogger,
	}
}

// InstallWorkloadManifest pins the manifest of packageID to version with a
// rollback file and installs workloadID from it. It returns false when
// either dotnet invocation fails.
func (m *WorkloadManager) InstallWorkloadManifest(ctx context.Context, packageID, workloadID string, version versioning.Version) (bool, error) {
	rollback, err := m.writeRollbackFile(ManifestID(packageID), version)
	if err != nil {
		return false, err
	}
	defer func() { _ = os.Remove(rollback) }()

	update := append([]string{"workload", "update", "--from-rollback-file", rollback}, m.sourceArgs()...)
	if ok, err := m.dotnet(ctx, update...); !ok {
		return false, err
	}

	install := append([]string{"workload", "install", workloadID, "--skip-manifest-update"}, m.sourceArgs()...)
	return m.dotnet(ctx, install...)
}

func (m *WorkloadManager) writeRollbackFile(manifestID string, version versioning.Version) (string, error) {
	data, err := json.Marshal(map[string]string{manifestID: version.String()})
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp(m.tempDir, "envdoctor-rollback-*.json")
	if err != nil {
		return "", fmt.Errorf("create rollback file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("write rollback file: %w", err)
	}
	return f.Name(), nil
}

func (m *WorkloadManager) sourceArgs() []string {
	var args []string
	for _, s := range m.Sources {
		args = append(args, "--source", s)
	}
	return args
}

func (m *WorkloadManager) dotnet(ctx context.Context, args ...string) (bool, error) {
	result, err := m.runner.Run(ctx, platform.Command{
		Path: Executable(m.SdkRoot),
		Args: args,
		Env: map[string]string{
			RootVariable:                  m.SdkRoot,
			"DOTNET_CLI_TELEMETRY_OPTOUT": "1",
			"DOTNET_NOLOGO":               "1",
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		m.logger.Warn("dotnet %s failed: %s", strings.Join(args[:2], " "), strings.TrimSpace(result.Output()))
		return false, nil
	}
	return true, nil
}
