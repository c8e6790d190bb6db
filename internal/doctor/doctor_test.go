package doctor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	doctorerrors "envdoctor/internal/errors"
)

func findDiagnosis(t *testing.T, r *Report, id string) Diagnosis {
	t.Helper()
	for _, d := range r.Diagnoses {
		if d.CheckupID == id {
			return d
		}
	}
	t.Fatalf("no diagnosis for %s", id)
	return Diagnosis{}
}

func findResult(t *testing.T, r *Report, key string) RemediationResult {
	t.Helper()
	for _, res := range r.Remediations {
		if res.Key == key {
			return res
		}
	}
	t.Fatalf("no remediation result for %s", key)
	return RemediationResult{}
}

func TestRunAllOk(t *testing.T) {
	d := New(okCheckup("a"), okCheckup("b", "a"))

	report, err := d.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, StatusOk, report.Status)
	assert.Equal(t, ExitCodeOk, report.ExitCode())
	require.Len(t, report.Diagnoses, 2)
	assert.Equal(t, "a", report.Diagnoses[0].CheckupID)
	assert.Equal(t, "b", report.Diagnoses[1].CheckupID)
	assert.Empty(t, report.Remediations)
	assert.Empty(t, report.Unresolved())
}

func TestRunWithoutFixLeavesErrors(t *testing.T) {
	sol := &fakeSolution{key: "x"}
	d := New(fixableCheckup("a", nil, sol))

	report, err := d.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, StatusError, report.Status)
	assert.Equal(t, ExitCodeError, report.ExitCode())
	assert.Equal(t, 0, sol.Calls())
	assert.Empty(t, report.Remediations)
}

func TestRunDuplicateCheckupID(t *testing.T) {
	_, err := New(okCheckup("a"), okCheckup("a")).Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestSharedDependencyImplementedOnce(t *testing.T) {
	for _, parallelism := range []int{1, 4} {
		shared := &fakeSolution{key: "shared"}
		x := &fakeSolution{key: "x", deps: []Solution{shared}}
		y := &fakeSolution{key: "y", deps: []Solution{&fakeSolution{key: "shared"}}}

		d := New(
			fixableCheckup("a", nil, x),
			fixableCheckup("b", nil, y),
		)
		report, err := d.Run(context.Background(), Options{Fix: true, RemediationParallelism: parallelism})
		require.NoError(t, err)

		assert.Equal(t, 1, shared.Calls(), "parallelism %d", parallelism)
		assert.Equal(t, 1, x.Calls())
		assert.Equal(t, 1, y.Calls())
		require.Len(t, report.Remediations, 3)
		if parallelism == 1 {
			assert.Equal(t, []string{shared.Key(), x.Key(), y.Key()},
				[]string{report.Remediations[0].Key, report.Remediations[1].Key, report.Remediations[2].Key})
		}
		for _, res := range report.Remediations {
			assert.Equal(t, OutcomeSucceeded, res.Outcome)
		}
	}
}

func TestSameSolutionFromTwoDiagnosesRunsOnce(t *testing.T) {
	var fixed atomic.Bool
	first := &fakeSolution{key: "same", run: func(*SharedState) { fixed.Store(true) }}
	second := &fakeSolution{key: "same", run: func(*SharedState) { fixed.Store(true) }}

	d := New(fixableCheckup("a", &fixed, first), fixableCheckup("b", &fixed, second))
	report, err := d.Run(context.Background(), Options{Fix: true})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Calls()+second.Calls())
	assert.Len(t, report.Remediations, 1)
	assert.Equal(t, StatusOk, report.Status)
}

func TestFailedDependencyBlocksDependents(t *testing.T) {
	var zFixed atomic.Bool
	shared := &fakeSolution{key: "shared", err: errors.New("disk full")}
	x := &fakeSolution{key: "x", deps: []Solution{shared}}
	y := &fakeSolution{key: "y", deps: []Solution{shared}}
	z := &fakeSolution{key: "z", run: func(*SharedState) { zFixed.Store(true) }}

	d := New(
		fixableCheckup("a", nil, x),
		fixableCheckup("b", nil, y),
		fixableCheckup("c", &zFixed, z),
	)
	report, err := d.Run(context.Background(), Options{Fix: true, RemediationParallelism: 2})
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, findResult(t, report, shared.Key()).Outcome)
	assert.Equal(t, OutcomeBlocked, findResult(t, report, x.Key()).Outcome)
	assert.Equal(t, OutcomeBlocked, findResult(t, report, y.Key()).Outcome)
	assert.Equal(t, OutcomeSucceeded, findResult(t, report, z.Key()).Outcome)
	assert.Equal(t, 0, x.Calls())
	assert.Equal(t, 0, y.Calls())

	blocked := findResult(t, report, x.Key())
	assert.True(t, doctorerrors.IsRemediationError(blocked.Err))
	assert.Contains(t, blocked.Message(), shared.Key())
	assert.ErrorContains(t, findResult(t, report, shared.Key()).Err, "disk full")

	assert.Equal(t, StatusError, findDiagnosis(t, report, "a").Status)
	assert.Equal(t, StatusOk, findDiagnosis(t, report, "c").Status)
	assert.Equal(t, StatusError, report.Status)
	assert.Len(t, report.FailedRemediations(), 3)

	res, ok := report.Remediation(findDiagnosis(t, report, "a"))
	require.True(t, ok)
	assert.Equal(t, OutcomeBlocked, res.Outcome)
}

type cyclicSolution struct {
	fakeSolution
	next *cyclicSolution
}

func (s *cyclicSolution) Dependencies() []Solution { return []Solution{s.next} }

func TestDependencyCycleFailsMembers(t *testing.T) {
	a := &cyclicSolution{fakeSolution: fakeSolution{key: "a"}}
	b := &cyclicSolution{fakeSolution: fakeSolution{key: "b"}}
	a.next, b.next = b, a
	bystander := &fakeSolution{key: "free"}

	d := New(fixableCheckup("one", nil, a), fixableCheckup("two", nil, bystander))
	report, err := d.Run(context.Background(), Options{Fix: true, RemediationParallelism: 3})
	require.NoError(t, err)

	for _, key := range []string{a.Key(), b.Key()} {
		res := findResult(t, report, key)
		assert.Equal(t, OutcomeFailed, res.Outcome)
		assert.Contains(t, res.Message(), "dependency cycle")
	}
	assert.Equal(t, 0, a.Calls())
	assert.Equal(t, 0, b.Calls())
	assert.Equal(t, OutcomeSucceeded, findResult(t, report, bystander.Key()).Outcome)
}

func TestSolutionPanicBecomesFailure(t *testing.T) {
	sol := &fakeSolution{key: "boom", run: func(*SharedState) { panic("kaboom") }}
	report, err := New(fixableCheckup("a", nil, sol)).Run(context.Background(), Options{Fix: true})
	require.NoError(t, err)

	res := findResult(t, report, sol.Key())
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Message(), "kaboom")
}

func TestRemediationReexaminesDependents(t *testing.T) {
	var fixed atomic.Bool
	sol := &fakeSolution{key: "install", run: func(*SharedState) { fixed.Store(true) }}
	base := fixableCheckup("base", &fixed, sol)
	dependent := okCheckup("dependent", "base")
	unrelated := okCheckup("unrelated")

	reporter := &recordingReporter{}
	report, err := New(base, dependent, unrelated).Run(context.Background(), Options{Fix: true, Reporter: reporter})
	require.NoError(t, err)

	assert.Equal(t, StatusOk, report.Status)
	assert.Equal(t, "fixed", findDiagnosis(t, report, "base").Message)
	assert.Equal(t, StatusOk, findDiagnosis(t, report, "dependent").Status)
	assert.Equal(t, 2, base.Calls())
	assert.Equal(t, 1, dependent.Calls(), "skipped on the first pass, examined after the fix")
	assert.Equal(t, 1, unrelated.Calls())
	assert.Contains(t, reporter.statuses, sol.Key()+": implementing install")
	require.Len(t, reporter.results, 1)
}

func TestWarningsAreRemediated(t *testing.T) {
	var fixed atomic.Bool
	sol := &fakeSolution{key: "improve", run: func(*SharedState) { fixed.Store(true) }}
	c := &fakeCheckup{id: "w"}
	c.examine = func(context.Context, *SharedState) (Diagnosis, error) {
		if fixed.Load() {
			return Ok(c, "improved"), nil
		}
		return Warn(c, "could be better", sol), nil
	}

	report, err := New(c).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusWarning, report.Status)
	assert.Equal(t, ExitCodeWarning, report.ExitCode())

	report, err = New(c).Run(context.Background(), Options{Fix: true})
	require.NoError(t, err)
	assert.Equal(t, StatusOk, report.Status)
}

func TestProbeErrorsBecomeDiagnoses(t *testing.T) {
	panicky := &fakeCheckup{id: "panicky"}
	panicky.examine = func(context.Context, *SharedState) (Diagnosis, error) {
		panic("probe exploded")
	}
	failing := &fakeCheckup{id: "failing"}
	failing.examine = func(context.Context, *SharedState) (Diagnosis, error) {
		return Diagnosis{}, errors.New("cannot stat")
	}
	healthy := okCheckup("healthy")

	report, err := New(panicky, failing, healthy).Run(context.Background(), Options{})
	require.NoError(t, err)

	p := findDiagnosis(t, report, "panicky")
	assert.Equal(t, StatusError, p.Status)
	assert.True(t, doctorerrors.IsProbeError(p.Err))
	assert.Contains(t, p.Message, "probe exploded")
	assert.Nil(t, p.Solution)
	assert.True(t, p.Unfixable())

	f := findDiagnosis(t, report, "failing")
	assert.Equal(t, StatusError, f.Status)
	assert.True(t, doctorerrors.IsProbeError(f.Err))
	assert.Contains(t, f.Message, "cannot stat")

	assert.Equal(t, StatusOk, findDiagnosis(t, report, "healthy").Status)
}

func TestFailedDependencySkipsCheckup(t *testing.T) {
	broken := fixableCheckup("sdk", nil, nil)
	dependent := okCheckup("packages", "sdk")

	report, err := New(dependent, broken).Run(context.Background(), Options{})
	require.NoError(t, err)

	d := findDiagnosis(t, report, "packages")
	assert.Equal(t, StatusError, d.Status)
	assert.Equal(t, "skipped: dependency sdk failed", d.Message)
	assert.Equal(t, 0, dependent.Calls())
}

func TestCheckupCycle(t *testing.T) {
	a := okCheckup("a", "b")
	b := okCheckup("b", "a")

	report, err := New(a, b).Run(context.Background(), Options{})
	require.NoError(t, err)
	for _, id := range []string{"a", "b"} {
		d := findDiagnosis(t, report, id)
		assert.Equal(t, StatusError, d.Status)
		assert.Contains(t, d.Message, "dependency cycle")
	}
}

func TestSkippedCheckupsSatisfyDependents(t *testing.T) {
	broken := fixableCheckup("sdk", nil, nil)
	dependent := okCheckup("packages", "sdk")

	report, err := New(broken, dependent).Run(context.Background(), Options{Skip: []string{"sdk"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"sdk"}, report.Skipped)
	require.Len(t, report.Diagnoses, 1)
	assert.Equal(t, StatusOk, report.Status)
	assert.Equal(t, 0, broken.Calls())
}

func TestEnvironmentAppliedOnce(t *testing.T) {
	const name = "ENVDOCTOR_TEST_JAVA_HOME"
	c := &fakeCheckup{id: "jdk"}
	c.examine = func(_ context.Context, state *SharedState) (Diagnosis, error) {
		state.SetEnvironmentVariable(name, "/opt/jdk")
		state.SetEnvironmentVariable(name, "/opt/jdk")
		return Ok(c, "found"), nil
	}

	var calls []string
	setenv := func(k, v string) error {
		calls = append(calls, k+"="+v)
		return nil
	}

	report, err := New(c).Run(context.Background(), Options{ApplyEnvironment: true, Setenv: setenv})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{name: "/opt/jdk"}, report.Environment)
	assert.Equal(t, []string{name + "=/opt/jdk"}, calls)

	calls = nil
	_, err = New(c).Run(context.Background(), Options{ApplyEnvironment: false, Setenv: setenv})
	require.NoError(t, err)
	assert.Empty(t, calls)
}

func TestRepeatedRunsAreStable(t *testing.T) {
	d := New(okCheckup("a"), fixableCheckup("b", nil, nil), okCheckup("c", "b"))

	first, err := d.Run(context.Background(), Options{})
	require.NoError(t, err)
	second, err := d.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	for i := range first.Diagnoses {
		assert.Equal(t, first.Diagnoses[i].Status, second.Diagnoses[i].Status)
		assert.Equal(t, first.Diagnoses[i].Message, second.Diagnoses[i].Message)
	}
}

func TestCancelledRunReturnsPartialReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(okCheckup("a")).Run(ctx, Options{Fix: true})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, StatusError, report.Status)
}

func TestCancelDuringRemediation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := &fakeSolution{key: "a", err: context.Canceled, run: func(*SharedState) { cancel() }}
	b := &fakeSolution{key: "b", deps: []Solution{a}}
	c := &fakeSolution{key: "c"}

	report, err := New(
		fixableCheckup("ca", nil, a),
		fixableCheckup("cb", nil, b),
		fixableCheckup("cc", nil, c),
	).Run(ctx, Options{Fix: true, RemediationParallelism: 1})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)

	require.Len(t, report.Remediations, 3)
	assert.Equal(t, OutcomeCancelled, findResult(t, report, a.Key()).Outcome)
	blocked := findResult(t, report, b.Key())
	assert.Equal(t, OutcomeBlocked, blocked.Outcome)
	assert.Contains(t, blocked.Message(), a.Key())
	assert.Equal(t, OutcomeCancelled, findResult(t, report, c.Key()).Outcome)

	assert.Equal(t, 1, a.Calls())
	assert.Equal(t, 0, b.Calls())
	assert.Equal(t, 0, c.Calls())
	assert.Equal(t, StatusError, report.Status)
}

func TestWorst(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"empty", nil, StatusOk},
		{"all ok", []Status{StatusOk, StatusOk}, StatusOk},
		{"warning", []Status{StatusOk, StatusWarning}, StatusWarning},
		{"error wins", []Status{StatusWarning, StatusError, StatusOk}, StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ds []Diagnosis
			for _, s := range tt.statuses {
				ds = append(ds, Diagnosis{Status: s})
			}
			assert.Equal(t, tt.want, Worst(ds))
		})
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusOk, StatusWarning, StatusError} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	var s Status
	assert.Error(t, s.UnmarshalText([]byte("fatal")))
}

func TestSolutionKey(t *testing.T) {
	assert.Equal(t, "Install(a,1.0)", SolutionKey("Install", "a", "1.0"))
	assert.Equal(t, "Install(a|b,true)", SolutionKey("Install", []string{"a", "b"}, true))
	assert.Equal(t, "Empty()", SolutionKey("Empty"))
}
