// Package doctor runs environment checkups, remediates what they find and
// re-examines the result.
package doctor

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"envdoctor/internal/common"
	"envdoctor/internal/platform"
)

const (
	DefaultParallelism            = 4
	DefaultRemediationParallelism = 1
)

// Options configures one run.
type Options struct {
	// Fix remediates Warning and Error diagnoses that carry a solution.
	Fix bool

	// Skip lists checkup ids that are not examined. Checkups depending on
	// a skipped id treat it as satisfied.
	Skip []string

	Parallelism            int
	RemediationParallelism int
	ProbeTimeout           time.Duration
	RemediationTimeout     time.Duration

	// ApplyEnvironment exports the variables checkups recorded into the
	// process environment once the run completes.
	ApplyEnvironment bool

	Reporter Reporter
	Metrics  *Metrics

	// Setenv replaces os.Setenv, for tests.
	Setenv func(key, value string) error
}

func (o Options) withDefaults() Options {
	if o.Parallelism <= 0 {
		o.Parallelism = DefaultParallelism
	}
	if o.RemediationParallelism <= 0 {
		o.RemediationParallelism = DefaultRemediationParallelism
	}
	if o.Reporter == nil {
		o.Reporter = NopReporter{}
	}
	if o.Setenv == nil {
		o.Setenv = os.Setenv
	}
	return o
}

// Report is the outcome of a run.
type Report struct {
	Platform     platform.Info
	Diagnoses    []Diagnosis
	Remediations []RemediationResult
	Skipped      []string
	Environment  map[string]string
	Status       Status
	Started      time.Time
	Duration     time.Duration
}

// ExitCode maps the aggregate status to a process exit code.
func (r *Report) ExitCode() int {
	return r.Status.ExitCode()
}

// Unresolved returns the diagnoses that are not Ok.
func (r *Report) Unresolved() []Diagnosis {
	var out []Diagnosis
	for _, d := range r.Diagnoses {
		if d.Status != StatusOk {
			out = append(out, d)
		}
	}
	return out
}

// Remediation returns the result for the solution attached to d.
func (r *Report) Remediation(d Diagnosis) (RemediationResult, bool) {
	key := d.SolutionKey()
	if key == "" {
		return RemediationResult{}, false
	}
	for _, res := range r.Remediations {
		if res.Key == key {
			return res, true
		}
	}
	return RemediationResult{}, false
}

// FailedRemediations returns every result that did not succeed.
func (r *Report) FailedRemediations() []RemediationResult {
	var out []RemediationResult
	for _, res := range r.Remediations {
		if !res.Succeeded() {
			out = append(out, res)
		}
	}
	return out
}

// Doctor owns the registered checkups. It holds no per-run state, so one
// Doctor may run repeatedly.
type Doctor struct {
	checkups []Checkup
	logger   *common.SafeLogger
}

func New(checkups ...Checkup) *Doctor {
	return &Doctor{
		checkups: checkups,
		logger:   common.DoctorLogger,
	}
}

// WithLogger replaces the logger.
func (d *Doctor) WithLogger(logger *common.SafeLogger) *Doctor {
	d.logger = logger
	return d
}

// Checkups returns the registered checkups in registration order.
func (d *Doctor) Checkups() []Checkup {
	return append([]Checkup(nil), d.checkups...)
}

func (d *Doctor) validate() error {
	seen := make(map[string]bool, len(d.checkups))
	for _, c := range d.checkups {
		if c == nil {
			return fmt.Errorf("nil checkup registered")
		}
		if c.ID() == "" {
			return fmt.Errorf("checkup %q has an empty id", c.Title())
		}
		if seen[c.ID()] {
			return fmt.Errorf("duplicate checkup id %q", c.ID())
		}
		seen[c.ID()] = true
	}
	return nil
}

// Run examines every checkup, remediates when opts.Fix is set and returns
// the final report. Failures of individual checkups or solutions are part
// of the report, not the error. The error is non-nil only for an invalid
// registration or a cancelled context; in the latter case the partial
// report is still returned.
func (d *Doctor) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	report := &Report{
		Platform: platform.Current(),
		Started:  time.Now(),
	}
	state := NewSharedState()

	skip := make(map[string]bool, len(opts.Skip))
	for _, id := range opts.Skip {
		skip[id] = true
	}
	var active []Checkup
	for _, c := range d.checkups {
		if skip[c.ID()] {
			report.Skipped = append(report.Skipped, c.ID())
			continue
		}
		active = append(active, c)
	}

	d.logger.Info("Examining %d checkups (parallelism %d)", len(active), opts.Parallelism)
	ex := &examiner{
		state:       state,
		reporter:    opts.Reporter,
		metrics:     opts.Metrics,
		logger:      d.logger,
		parallelism: opts.Parallelism,
		timeout:     opts.ProbeTimeout,
	}
	diagnoses := ex.run(ctx, active)

	if opts.Fix && ctx.Err() == nil {
		diagnoses, report.Remediations = d.remediate(ctx, state, active, diagnoses, ex, opts)
	}

	report.Diagnoses = diagnoses
	report.Status = Worst(diagnoses)
	report.Environment = state.Environment()
	if opts.ApplyEnvironment {
		d.applyEnvironment(report.Environment, opts.Setenv)
	}
	report.Duration = time.Since(report.Started)
	opts.Metrics.observeRun(report.Status)

	d.logger.Info("Run finished with status %s in %v", report.Status, report.Duration)
	return report, ctx.Err()
}

func (d *Doctor) remediate(ctx context.Context, state *SharedState, active []Checkup, diagnoses []Diagnosis, ex *examiner, opts Options) ([]Diagnosis, []RemediationResult) {
	var roots []Solution
	for _, diag := range diagnoses {
		if diag.Status != StatusOk && diag.Solution != nil {
			roots = append(roots, diag.Solution)
		}
	}
	if len(roots) == 0 {
		return diagnoses, nil
	}

	plan := buildPlan(roots)
	d.logger.Info("Remediating %d solutions: %v", len(plan.order), plan.Keys())
	rem := &remediator{
		state:       state,
		reporter:    opts.Reporter,
		metrics:     opts.Metrics,
		logger:      d.logger,
		parallelism: opts.RemediationParallelism,
		timeout:     opts.RemediationTimeout,
	}
	results := rem.run(ctx, plan)

	fixed := make(map[string]bool)
	for _, diag := range diagnoses {
		if key := diag.SolutionKey(); key != "" && diag.Status != StatusOk {
			if node, ok := plan.nodes[key]; ok && node.result.Succeeded() {
				fixed[diag.CheckupID] = true
			}
		}
	}
	if len(fixed) == 0 || ctx.Err() != nil {
		return diagnoses, results
	}

	affected := affectedCheckups(active, fixed)
	var again []Checkup
	settled := make(map[string]Diagnosis, len(diagnoses))
	for i, c := range active {
		if affected[c.ID()] {
			again = append(again, c)
		} else {
			settled[c.ID()] = diagnoses[i]
		}
	}

	d.logger.Info("Re-examining %d checkups", len(again))
	ex.settled = settled
	fresh := ex.run(ctx, again)
	byID := make(map[string]Diagnosis, len(fresh))
	for _, diag := range fresh {
		byID[diag.CheckupID] = diag
	}
	out := make([]Diagnosis, len(diagnoses))
	for i, diag := range diagnoses {
		if updated, ok := byID[diag.CheckupID]; ok {
			out[i] = updated
		} else {
			out[i] = diag
		}
	}
	return out, results
}

// affectedCheckups returns the fixed checkups plus everything that depends
// on them, directly or transitively.
func affectedCheckups(checkups []Checkup, fixed map[string]bool) map[string]bool {
	dependents := make(map[string][]string)
	for _, c := range checkups {
		for _, dep := range checkupDependencies(c) {
			dependents[dep] = append(dependents[dep], c.ID())
		}
	}

	affected := make(map[string]bool, len(fixed))
	var queue []string
	for id := range fixed {
		affected[id] = true
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range dependents[id] {
			if !affected[dep] {
				affected[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return affected
}

func (d *Doctor) applyEnvironment(env map[string]string, setenv func(string, string) error) {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if current, ok := os.LookupEnv(name); ok && current == env[name] {
			continue
		}
		if err := setenv(name, env[name]); err != nil {
			d.logger.Warn("Failed to set %s: %v", name, err)
			continue
		}
		d.logger.Debug("Set %s=%s", name, env[name])
	}
}
