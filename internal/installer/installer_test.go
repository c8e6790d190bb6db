package installer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envdoctor/internal/platform"
)

type recordingRunner struct {
	commands []platform.Command
	err      error
}

func (r *recordingRunner) Run(_ context.Context, cmd platform.Command) (*platform.Result, error) {
	r.commands = append(r.commands, cmd)
	if r.err != nil {
		return &platform.Result{ExitCode: 1, Stderr: "boom"}, r.err
	}
	return &platform.Result{}, nil
}

func TestDownloadPrefersCurl(t *testing.T) {
	runner := &recordingRunner{}
	i := New(runner)
	i.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }

	dest := filepath.Join(t.TempDir(), "dl", "sdk.tar.gz")
	require.NoError(t, i.DownloadFile(context.Background(), "https://example.com/sdk.tar.gz", dest))

	require.Len(t, runner.commands, 1)
	assert.Equal(t, "/usr/bin/curl", runner.commands[0].Path)
	assert.Equal(t, []string{"-fsSL", "-o", dest, "https://example.com/sdk.tar.gz"}, runner.commands[0].Args)
	assert.DirExists(t, filepath.Dir(dest))
}

func TestDownloadFallsBackToWget(t *testing.T) {
	runner := &recordingRunner{}
	i := New(runner)
	i.lookPath = func(name string) (string, error) {
		if name == "wget" {
			return "/bin/wget", nil
		}
		return "", errors.New("not found")
	}

	dest := filepath.Join(t.TempDir(), "sdk.zip")
	require.NoError(t, i.DownloadFile(context.Background(), "https://example.com/sdk.zip", dest))
	assert.Equal(t, "/bin/wget", runner.commands[0].Path)
}

func TestDownloadWithoutTools(t *testing.T) {
	i := New(&recordingRunner{})
	i.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	err := i.DownloadFile(context.Background(), "https://example.com/a", filepath.Join(t.TempDir(), "a"))
	assert.ErrorContains(t, err, "neither curl nor wget")
}

func TestDownloadFailure(t *testing.T) {
	runner := &recordingRunner{err: errors.New("exit status 22")}
	i := New(runner)
	i.lookPath = func(name string) (string, error) { return name, nil }

	err := i.DownloadFile(context.Background(), "https://example.com/a", filepath.Join(t.TempDir(), "a"))
	assert.ErrorContains(t, err, "download failed")
}

func TestExtractArchive(t *testing.T) {
	runner := &recordingRunner{}
	i := New(runner)
	dest := t.TempDir()

	require.NoError(t, i.ExtractArchive(context.Background(), "/tmp/sdk.tar.gz", dest))
	assert.Equal(t, "tar", runner.commands[0].Path)
	assert.Equal(t, []string{"-xzf", "/tmp/sdk.tar.gz", "-C", dest}, runner.commands[0].Args)

	assert.ErrorContains(t, i.ExtractArchive(context.Background(), "/tmp/sdk.pkg", dest), "unsupported archive format")
}

func TestIsArchive(t *testing.T) {
	tests := map[string]bool{
		"dotnet-sdk-6.0.100-linux-x64.tar.gz": true,
		"sdk.TGZ":                             true,
		"sdk.zip":                             true,
		"dotnet-sdk-6.0.100-win-x64.exe":      false,
		"dotnet-sdk-6.0.100-osx-x64.pkg":      false,
	}
	for name, want := range tests {
		assert.Equal(t, want, IsArchive(name), name)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "sdk.tar.gz", FileName("https://example.com/a/b/sdk.tar.gz?sig=1"))
	assert.Equal(t, "download", FileName("https://example.com/"))
}
