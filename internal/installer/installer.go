// Package installer holds the shell-out primitives solutions use to fetch
// and unpack toolchains. Transfers go through curl or wget; archives are
// unpacked with tar or unzip.
package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"envdoctor/internal/common"
	"envdoctor/internal/platform"
)

type Installer struct {
	runner   platform.Runner
	lookPath func(string) (string, error)
	logger   *common.SafeLogger
}

func New(runner platform.Runner) *Installer {
	return &Installer{
		runner:   runner,
		lookPath: exec.LookPath,
		logger:   common.CLILogger,
	}
}

// RunCommand executes a command and fails on a non-zero exit.
func (i *Installer) RunCommand(ctx context.Context, name string, args ...string) error {
	_, err := i.Run(ctx, platform.Command{Path: name, Args: args})
	return err
}

// Run executes cmd, logging stderr the way a failed install needs it.
func (i *Installer) Run(ctx context.Context, cmd platform.Command) (*platform.Result, error) {
	result, err := i.runner.Run(ctx, cmd)
	if err != nil {
		if result != nil && result.Stderr != "" {
			i.logger.Error("Command stderr: %s", strings.TrimSpace(result.Stderr))
		}
		return result, fmt.Errorf("command failed: %s: %w", cmd, err)
	}
	if result.Stderr != "" {
		i.logger.Debug("Command stderr: %s", strings.TrimSpace(result.Stderr))
	}
	return result, nil
}

// DownloadFile fetches url into destPath with curl, falling back to wget.
func (i *Installer) DownloadFile(ctx context.Context, url, destPath string) error {
	i.logger.Info("Downloading %s", url)

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	var cmd platform.Command
	if path, err := i.lookPath("curl"); err == nil {
		cmd = platform.Command{Path: path, Args: []string{"-fsSL", "-o", destPath, url}}
	} else if path, err := i.lookPath("wget"); err == nil {
		cmd = platform.Command{Path: path, Args: []string{"-q", "-O", destPath, url}}
	} else {
		return fmt.Errorf("neither curl nor wget available for download")
	}

	if _, err := i.Run(ctx, cmd); err != nil {
		_ = os.Remove(destPath)
		return fmt.Errorf("download failed: %w", err)
	}

	i.logger.Info("Download completed: %s", destPath)
	return nil
}

// IsArchive reports whether ExtractArchive can unpack path.
func IsArchive(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".tar.gz") ||
		strings.HasSuffix(lower, ".tgz") ||
		strings.HasSuffix(lower, ".zip")
}

// ExtractArchive unpacks a .tar.gz, .tgz or .zip into destPath.
func (i *Installer) ExtractArchive(ctx context.Context, archivePath, destPath string) error {
	i.logger.Info("Extracting %s to %s", archivePath, destPath)

	if err := os.MkdirAll(destPath, 0755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}

	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return i.RunCommand(ctx, "tar", "-xzf", archivePath, "-C", destPath)
	case strings.HasSuffix(lower, ".zip"):
		if platform.IsWindows() {
			return i.RunCommand(ctx, "tar", "-xf", archivePath, "-C", destPath)
		}
		return i.RunCommand(ctx, "unzip", "-q", "-o", archivePath, "-d", destPath)
	default:
		return fmt.Errorf("unsupported archive format: %s", archivePath)
	}
}

// FileName returns the last path element of a download URL without its
// query string.
func FileName(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		url = url[:idx]
	}
	name := url[strings.LastIndex(url, "/")+1:]
	if name == "" {
		return "download"
	}
	return name
}
