package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"envdoctor/internal/version"
)

var VersionJSON bool

var versionCmd = &cobra.Command{
	Use:   CmdVersion,
	Short: "Show version and build information",
	Long: `Display version and build information for envdoctor.

  envdoctor version          # human-readable
  envdoctor version --json   # machine-readable

Version information is set at build time:
  go build -ldflags "-X 'envdoctor/internal/version.Version=v1.0.0'"`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func runVersion(cmd *cobra.Command, _ []string) error {
	return writeVersion(cmd.OutOrStdout(), version.Get(), VersionJSON)
}

func writeVersion(w io.Writer, info version.Info, asJSON bool) error {
	if asJSON {
		jsonData, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version information: %w", err)
		}
		_, err = fmt.Fprintln(w, string(jsonData))
		return err
	}

	fmt.Fprintf(w, "envdoctor Version Information\n")
	fmt.Fprintf(w, "=============================\n\n")
	fmt.Fprintf(w, "Version:      %s\n", info.Version)

	if version.Known(info.GitCommit) {
		if len(info.GitCommit) > 7 {
			fmt.Fprintf(w, "Git Commit:   %s (%s)\n", info.GitCommit[:7], info.GitCommit)
		} else {
			fmt.Fprintf(w, "Git Commit:   %s\n", info.GitCommit)
		}
	}

	if version.Known(info.GitBranch) {
		fmt.Fprintf(w, "Git Branch:   %s\n", info.GitBranch)
	}

	if version.Known(info.BuildTime) {
		if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
			fmt.Fprintf(w, "Build Time:   %s\n", t.UTC().Format("2006-01-02 15:04:05 UTC"))
		} else {
			fmt.Fprintf(w, "Build Time:   %s\n", info.BuildTime)
		}
	}

	if version.Known(info.BuildUser) {
		fmt.Fprintf(w, "Build User:   %s\n", info.BuildUser)
	}

	fmt.Fprintf(w, "\nRuntime Information:\n")
	fmt.Fprintf(w, "Go Version:   %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform:     %s\n", info.Platform)
	fmt.Fprintf(w, "Architecture: %s\n", info.Architecture)
	fmt.Fprintf(w, "Compiler:     %s\n", info.Compiler)
	return nil
}

func init() {
	versionCmd.Flags().BoolVar(&VersionJSON, "json", false, "Output version information in JSON format")

	rootCmd.AddCommand(versionCmd)
}
