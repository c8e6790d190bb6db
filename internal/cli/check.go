package cli

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"envdoctor/internal/checkups"
	"envdoctor/internal/common"
	"envdoctor/internal/config"
	"envdoctor/internal/doctor"
	"envdoctor/internal/manifest"
	"envdoctor/internal/platform"
	"envdoctor/internal/version"
)

var (
	checkFix         bool
	checkSkip        []string
	checkJSON        bool
	checkMetricsFile string
	checkParallelism int
	checkApplyEnv    bool
)

var checkCmd = &cobra.Command{
	Use:     CmdCheck,
	Aliases: []string{"doctor"},
	Short:   "Check the environment against a manifest",
	Long: `Examine every requirement in the manifest and report what is missing.

  envdoctor check -m ./envdoctor.json           # report only
  envdoctor check -m ./envdoctor.json --fix     # install what is missing
  envdoctor check --skip openjdk --json         # machine-readable report
  envdoctor check --metrics-file run.prom       # Prometheus text output`,
	Args: cobra.NoArgs,
	RunE: runCheckCmd,
}

func init() {
	flags := checkCmd.Flags()
	flags.BoolVar(&checkFix, "fix", false, "remediate problems that have a known solution")
	flags.StringSliceVar(&checkSkip, "skip", nil, "checkup ids to skip")
	flags.BoolVar(&checkJSON, "json", false, "print the report as JSON")
	flags.StringVar(&checkMetricsFile, "metrics-file", "", "write run metrics in Prometheus text format")
	flags.IntVarP(&checkParallelism, "parallelism", "p", config.DefaultParallelism, "checkups examined concurrently")
	flags.BoolVar(&checkApplyEnv, "apply-env", true, "export variables found by checkups into the process environment")

	rootCmd.AddCommand(checkCmd)
}

// checkOutput selects where and how a run is printed.
type checkOutput struct {
	Out     io.Writer
	Err     io.Writer
	JSON    bool
	Verbose bool
}

// newProbeRunner memoizes version probes, so checkups examined again after
// remediation reuse the answers for unchanged binaries.
func newProbeRunner(timeout time.Duration) (platform.Runner, error) {
	return platform.NewCachingRunner(platform.NewRunner(timeout), platform.DefaultProbeCacheSize)
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return runCheck(cmd.Context(), cfg, checkOutput{
		Out:     cmd.OutOrStdout(),
		Err:     cmd.ErrOrStderr(),
		JSON:    checkJSON,
		Verbose: verbose,
	})
}

// runCheck performs one doctor run. A completed run with problems returns
// an *ExitError carrying the report's exit code.
func runCheck(ctx context.Context, cfg *config.Config, out checkOutput) error {
	list, err := buildCheckups(ctx, cfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics, err := doctor.NewMetrics(registry)
	if err != nil {
		return NewRuntimeError("Cannot register metrics", err)
	}

	var reporter doctor.Reporter = doctor.NopReporter{}
	if !out.JSON && !common.IsCI() {
		reporter = newConsoleReporter(out.Err)
	}

	report, runErr := doctor.New(list...).Run(ctx, doctor.Options{
		Fix:                    cfg.Fix,
		Skip:                   cfg.Skip,
		Parallelism:            cfg.Parallelism,
		RemediationParallelism: cfg.RemediationParallelism,
		ProbeTimeout:           cfg.ProbeTimeout,
		RemediationTimeout:     cfg.RemediationTimeout,
		ApplyEnvironment:       cfg.ApplyEnvironment,
		Reporter:               reporter,
		Metrics:                metrics,
	})
	if report == nil {
		return NewRuntimeError("Doctor run failed", runErr)
	}

	if out.JSON {
		if err := writeReportJSON(out.Out, report); err != nil {
			return err
		}
	} else {
		renderReport(out.Out, report, out.Verbose)
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, registry); err != nil {
			common.CLILogger.Warn("Failed to write metrics to %s: %v", cfg.MetricsFile, err)
		}
	}

	if runErr != nil {
		return NewRuntimeError("Run interrupted", runErr)
	}
	if code := report.ExitCode(); code != doctor.ExitCodeOk {
		return &ExitError{Code: code}
	}
	return nil
}

func buildCheckups(ctx context.Context, cfg *config.Config) ([]doctor.Checkup, error) {
	if err := cfg.RequireManifest(); err != nil {
		return nil, NewConfigError("No manifest configured", err)
	}
	m, err := manifest.Load(ctx, cfg.Manifest)
	if err != nil {
		return nil, NewManifestError(cfg.Manifest, err)
	}
	runner, err := newProbeRunner(cfg.ProbeTimeout)
	if err != nil {
		return nil, NewRuntimeError("Cannot create command runner", err)
	}
	list, err := checkups.FromManifest(m, checkups.HostEnvironment(runner), version.Version)
	if err != nil {
		return nil, NewManifestError(cfg.Manifest, err)
	}
	return list, nil
}
