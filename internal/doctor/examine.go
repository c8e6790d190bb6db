package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"envdoctor/internal/common"
	doctorerrors "envdoctor/internal/errors"
)

type checkupNode struct {
	checkup   Checkup
	deps      []*checkupNode
	external  []string
	cycle     []string
	done      chan struct{}
	diagnosis Diagnosis
}

// examiner runs a set of checkups in dependency order. Dependencies that
// are outside the set are resolved against settled, which holds the
// diagnoses of an earlier pass; an id found in neither is treated as
// satisfied.
type examiner struct {
	state       *SharedState
	reporter    Reporter
	metrics     *Metrics
	logger      *common.SafeLogger
	parallelism int
	timeout     time.Duration
	settled     map[string]Diagnosis
}

func (e *examiner) run(ctx context.Context, checkups []Checkup) []Diagnosis {
	nodes := e.graph(checkups)

	sem := semaphore.NewWeighted(int64(max(e.parallelism, 1)))
	var g errgroup.Group
	for _, n := range nodes {
		n := n
		g.Go(func() error {
			defer close(n.done)
			n.diagnosis = e.schedule(ctx, sem, n)
			e.metrics.observeCheckup(n.diagnosis)
			e.reporter.CheckupFinished(n.diagnosis)
			return nil
		})
	}
	_ = g.Wait()

	diagnoses := make([]Diagnosis, len(nodes))
	for i, n := range nodes {
		diagnoses[i] = n.diagnosis
	}
	return diagnoses
}

func (e *examiner) graph(checkups []Checkup) []*checkupNode {
	nodes := make([]*checkupNode, len(checkups))
	byID := make(map[string]*checkupNode, len(checkups))
	for i, c := range checkups {
		nodes[i] = &checkupNode{checkup: c, done: make(chan struct{})}
		byID[c.ID()] = nodes[i]
	}
	for _, n := range nodes {
		for _, id := range checkupDependencies(n.checkup) {
			if dep, ok := byID[id]; ok {
				n.deps = append(n.deps, dep)
			} else {
				n.external = append(n.external, id)
			}
		}
	}
	markCheckupCycles(nodes)
	return nodes
}

// markCheckupCycles flags every checkup on a dependency loop and drops the
// loop's edges so nothing waits on a node that never finishes.
func markCheckupCycles(nodes []*checkupNode) {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[*checkupNode]int, len(nodes))
	var stack []*checkupNode

	var visit func(n *checkupNode)
	visit = func(n *checkupNode) {
		state[n] = visiting
		stack = append(stack, n)
		for _, dep := range n.deps {
			switch state[dep] {
			case unvisited:
				visit(dep)
			case visiting:
				start := 0
				for i, s := range stack {
					if s == dep {
						start = i
						break
					}
				}
				path := make([]string, 0, len(stack)-start+1)
				for _, s := range stack[start:] {
					path = append(path, s.checkup.ID())
				}
				path = append(path, dep.checkup.ID())
				for _, s := range stack[start:] {
					if s.cycle == nil {
						s.cycle = path
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = visited
	}
	for _, n := range nodes {
		if state[n] == unvisited {
			visit(n)
		}
	}
	for _, n := range nodes {
		if n.cycle != nil {
			n.deps = nil
		}
	}
}

func (e *examiner) schedule(ctx context.Context, sem *semaphore.Weighted, n *checkupNode) Diagnosis {
	c := n.checkup
	if n.cycle != nil {
		return probeFailure(c, fmt.Errorf("dependency cycle: %s", strings.Join(n.cycle, " -> ")))
	}

	for _, dep := range n.deps {
		<-dep.done
		if dep.diagnosis.Status == StatusError {
			return skippedDiagnosis(c, dep.checkup.ID())
		}
	}
	for _, id := range n.external {
		if prior, ok := e.settled[id]; ok && prior.Status == StatusError {
			return skippedDiagnosis(c, id)
		}
	}

	if err := ctx.Err(); err != nil {
		return probeFailure(c, err)
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return probeFailure(c, err)
	}
	defer sem.Release(1)
	return e.examine(ctx, c)
}

func (e *examiner) examine(ctx context.Context, c Checkup) (d Diagnosis) {
	e.reporter.CheckupStarted(c)
	e.logger.Debug("Examining %s", c.ID())
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			d = probeFailure(c, fmt.Errorf("panic: %v", rec))
		}
		e.metrics.observeCheckupDuration(c.ID(), time.Since(start))
	}()

	ctx, cancel := common.WithOptionalTimeout(ctx, e.timeout)
	defer cancel()

	diagnosis, err := c.Examine(ctx, e.state)
	if err != nil {
		return probeFailure(c, err)
	}
	return normalize(c, diagnosis)
}

// normalize fills in the identity fields a checkup may leave blank.
func normalize(c Checkup, d Diagnosis) Diagnosis {
	if d.Checkup == nil {
		d.Checkup = c
	}
	if d.CheckupID == "" {
		d.CheckupID = c.ID()
	}
	if d.Title == "" {
		d.Title = c.Title()
	}
	return d
}

func probeFailure(c Checkup, cause error) Diagnosis {
	err := doctorerrors.NewProbeError(c.ID(), cause)
	d := Fail(c, err.Error(), nil)
	d.Err = err
	return d
}

func skippedDiagnosis(c Checkup, dependency string) Diagnosis {
	return Fail(c, fmt.Sprintf("skipped: dependency %s failed", dependency), nil)
}
