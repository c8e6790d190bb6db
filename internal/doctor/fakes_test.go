package doctor

import (
	"context"
	"sync"
	"sync/atomic"
)

type fakeCheckup struct {
	id      string
	deps    []string
	examine func(ctx context.Context, state *SharedState) (Diagnosis, error)
	calls   int32
}

func (c *fakeCheckup) ID() string             { return c.id }
func (c *fakeCheckup) Title() string          { return "Fake " + c.id }
func (c *fakeCheckup) Dependencies() []string { return c.deps }

func (c *fakeCheckup) Examine(ctx context.Context, state *SharedState) (Diagnosis, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.examine(ctx, state)
}

func (c *fakeCheckup) Calls() int {
	return int(atomic.LoadInt32(&c.calls))
}

func okCheckup(id string, deps ...string) *fakeCheckup {
	c := &fakeCheckup{id: id, deps: deps}
	c.examine = func(context.Context, *SharedState) (Diagnosis, error) {
		return Ok(c, "fine"), nil
	}
	return c
}

// fixableCheckup fails with sol until fixed reports true.
func fixableCheckup(id string, fixed *atomic.Bool, sol Solution, deps ...string) *fakeCheckup {
	c := &fakeCheckup{id: id, deps: deps}
	c.examine = func(context.Context, *SharedState) (Diagnosis, error) {
		if fixed != nil && fixed.Load() {
			return Ok(c, "fixed"), nil
		}
		return Fail(c, "broken", sol), nil
	}
	return c
}

type fakeSolution struct {
	key   string
	deps  []Solution
	err   error
	calls int32
	run   func(state *SharedState)
}

func (s *fakeSolution) Key() string              { return SolutionKey("Fake", s.key) }
func (s *fakeSolution) Dependencies() []Solution { return s.deps }

func (s *fakeSolution) Implement(_ context.Context, state *SharedState, progress Progress) error {
	atomic.AddInt32(&s.calls, 1)
	progress.ReportStatus("implementing " + s.key)
	if s.run != nil {
		s.run(state)
	}
	return s.err
}

func (s *fakeSolution) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

type recordingReporter struct {
	mu       sync.Mutex
	started  []string
	finished []Diagnosis
	statuses []string
	results  []RemediationResult
}

func (r *recordingReporter) CheckupStarted(c Checkup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, c.ID())
}

func (r *recordingReporter) CheckupFinished(d Diagnosis) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, d)
}

func (r *recordingReporter) SolutionStatus(key, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, key+": "+message)
}

func (r *recordingReporter) SolutionFinished(result RemediationResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}
