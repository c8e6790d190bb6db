package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"envdoctor/internal/common"
)

const (
	CmdCheck    = "check"
	CmdList     = "list"
	CmdManifest = "manifest"
	CmdVersion  = "version"
)

var (
	configPath     string
	manifestSource string
	verbose        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "envdoctor",
	Short: "envdoctor - checks and repairs a developer environment",
	Long: `envdoctor verifies that a machine has what a project needs: an OpenJDK,
an Android SDK with the required packages, .NET SDKs with their workloads
and packs. The requirements come from a JSON manifest, local or remote.

With --fix, envdoctor installs what is missing, then checks again.

Exit codes:
  0  everything is ok
  1  usage, configuration or manifest error
  2  warnings remain
  3  errors remain`,
	// Don't show usage when there's an error
	SilenceUsage: true,
	// Don't show errors (we'll handle them ourselves)
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (default ~/.envdoctor/config.yaml)")
	flags.StringVarP(&manifestSource, "manifest", "m", "", "manifest path or URL")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging and full diagnosis details")
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code, message := exitCode(rootCmd.ExecuteContext(ctx))
	if message != "" {
		fmt.Fprintln(os.Stderr, message)
	}
	return code
}

func configureLogging(level string) {
	if verbose {
		common.SetGlobalLevel(common.LogDebug)
		return
	}
	common.SetGlobalLevel(common.ParseLogLevel(level))
}
