package doctor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"envdoctor/internal/common"
	doctorerrors "envdoctor/internal/errors"
)

// Outcome is the terminal state of one solution identity.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeCancelled Outcome = "cancelled"
)

// RemediationResult records what happened to one solution identity.
type RemediationResult struct {
	Key      string        `json:"key"`
	Outcome  Outcome       `json:"outcome"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Succeeded reports a completed remediation.
func (r RemediationResult) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

// Message is the failure text, or "" on success.
func (r RemediationResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type planNode struct {
	key      string
	solution Solution
	deps     []*planNode
	cycle    []string
	done     chan struct{}
	result   RemediationResult
}

// remediationPlan is a dependency-ordered, deduplicated set of solutions.
// Every dependency appears before its dependents; otherwise nodes keep the
// order in which they were discovered.
type remediationPlan struct {
	order []*planNode
	nodes map[string]*planNode
}

func buildPlan(roots []Solution) *remediationPlan {
	p := &remediationPlan{nodes: make(map[string]*planNode)}
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int)
	var stack []*planNode

	var visit func(s Solution) *planNode
	visit = func(s Solution) *planNode {
		key := s.Key()
		node, seen := p.nodes[key]
		if !seen {
			node = &planNode{key: key, solution: s, done: make(chan struct{})}
			p.nodes[key] = node
		}

		switch state[key] {
		case visited:
			return node
		case visiting:
			// Close the loop: everything on the stack from node onward is
			// part of the cycle.
			start := 0
			for i, n := range stack {
				if n == node {
					start = i
					break
				}
			}
			path := make([]string, 0, len(stack)-start+1)
			for _, n := range stack[start:] {
				path = append(path, n.key)
			}
			path = append(path, key)
			for _, n := range stack[start:] {
				if n.cycle == nil {
					n.cycle = path
				}
			}
			return nil
		}

		state[key] = visiting
		stack = append(stack, node)
		for _, dep := range node.solution.Dependencies() {
			if dep == nil {
				continue
			}
			if d := visit(dep); d != nil {
				node.deps = append(node.deps, d)
			}
		}
		stack = stack[:len(stack)-1]
		state[key] = visited
		p.order = append(p.order, node)
		return node
	}

	for _, s := range roots {
		if s != nil {
			visit(s)
		}
	}
	return p
}

// Keys lists the plan in execution order.
func (p *remediationPlan) Keys() []string {
	keys := make([]string, len(p.order))
	for i, n := range p.order {
		keys[i] = n.key
	}
	return keys
}

// remediator executes a plan. Each identity runs at most once; a node
// waits for its dependencies before it takes a worker slot so a bounded
// pool can never deadlock on queued dependents.
type remediator struct {
	state       *SharedState
	reporter    Reporter
	metrics     *Metrics
	logger      *common.SafeLogger
	parallelism int
	timeout     time.Duration
}

func (r *remediator) run(ctx context.Context, p *remediationPlan) []RemediationResult {
	if r.parallelism <= 1 {
		for _, n := range p.order {
			r.finish(n, r.execute(ctx, nil, n))
		}
	} else {
		sem := semaphore.NewWeighted(int64(r.parallelism))
		var wg sync.WaitGroup
		for _, n := range p.order {
			wg.Add(1)
			go func(n *planNode) {
				defer wg.Done()
				r.finish(n, r.execute(ctx, sem, n))
			}(n)
		}
		wg.Wait()
	}

	results := make([]RemediationResult, len(p.order))
	for i, n := range p.order {
		results[i] = n.result
	}
	return results
}

func (r *remediator) finish(n *planNode, result RemediationResult) {
	n.result = result
	close(n.done)
	r.metrics.observeRemediation(result)
	r.reporter.SolutionFinished(result)
	switch result.Outcome {
	case OutcomeSucceeded:
		r.logger.Info("Remediation %s succeeded in %v", n.key, result.Duration)
	default:
		r.logger.Warn("Remediation %s %s: %v", n.key, result.Outcome, result.Err)
	}
}

func (r *remediator) execute(ctx context.Context, sem *semaphore.Weighted, n *planNode) RemediationResult {
	result := RemediationResult{Key: n.key}

	if n.cycle != nil {
		result.Outcome = OutcomeFailed
		result.Err = doctorerrors.NewRemediationError(n.key,
			"dependency cycle: "+strings.Join(n.cycle, " -> "), nil)
		return result
	}

	for _, dep := range n.deps {
		<-dep.done
		if dep.result.Outcome != OutcomeSucceeded {
			result.Outcome = OutcomeBlocked
			result.Err = doctorerrors.NewRemediationError(n.key,
				fmt.Sprintf("blocked by %s (%s)", dep.key, dep.result.Outcome), dep.result.Err)
			return result
		}
	}

	if err := ctx.Err(); err != nil {
		return cancelled(result, err)
	}
	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			return cancelled(result, err)
		}
		defer sem.Release(1)
	}

	r.logger.Debug("Implementing %s", n.key)
	start := time.Now()
	err := r.implement(ctx, n)
	result.Duration = time.Since(start)

	switch {
	case err == nil:
		result.Outcome = OutcomeSucceeded
	case doctorerrors.IsCancellationError(err) && ctx.Err() != nil:
		return cancelled(result, err)
	default:
		result.Outcome = OutcomeFailed
		if !doctorerrors.IsRemediationError(err) {
			err = doctorerrors.NewRemediationError(n.key, "", err)
		}
		result.Err = err
	}
	return result
}

func (r *remediator) implement(ctx context.Context, n *planNode) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = doctorerrors.NewRemediationError(n.key, "", fmt.Errorf("panic: %v", rec))
		}
	}()

	ctx, cancel := common.WithOptionalTimeout(ctx, r.timeout)
	defer cancel()
	return n.solution.Implement(ctx, r.state, solutionProgress{key: n.key, reporter: r.reporter})
}

func cancelled(result RemediationResult, cause error) RemediationResult {
	result.Outcome = OutcomeCancelled
	result.Err = doctorerrors.NewRemediationError(result.Key, "cancelled", cause)
	return result
}
