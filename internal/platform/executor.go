package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// Command describes one external process invocation.
type Command struct {
	Path  string
	Args  []string
	Dir   string
	Env   map[string]string
	Stdin string

	// Cacheable marks probes whose output only depends on the binary itself,
	// such as "javac -version". See CachingRunner.
	Cacheable bool
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

type Result struct {
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration"`
}

// Success reports a zero exit code.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Output returns stdout followed by stderr. Several toolchains print their
// version banner on stderr.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// Runner executes external processes. Implementations must honour ctx
// cancellation. The returned Result is never nil; err is non-nil when the
// process could not start, exited non-zero, or was cancelled.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout bounds each command when positive.
	Timeout time.Duration
}

func NewRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

func (e *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()

	execCmd := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	execCmd.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		execCmd.Env = append(os.Environ(), envPairs(cmd.Env)...)
	}
	if cmd.Stdin != "" {
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitError *exec.ExitError
		switch {
		case ctx.Err() != nil:
			result.ExitCode = -1
			return result, fmt.Errorf("command %s: %w", cmd.Path, ctx.Err())
		case errors.As(err, &exitError):
			result.ExitCode = exitError.ExitCode()
		default:
			result.ExitCode = -1
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
		return result, fmt.Errorf("command failed: %s: %w", cmd, err)
	}

	return result, nil
}

// RunPath is the probe-style call: run path with args and return whatever
// came back. Failures surface as a non-zero ExitCode, never as an error.
func RunPath(ctx context.Context, r Runner, path string, args ...string) *Result {
	res, err := r.Run(ctx, Command{Path: path, Args: args})
	if res == nil {
		res = &Result{ExitCode: -1}
	}
	if err != nil && res.ExitCode == 0 {
		res.ExitCode = -1
	}
	return res
}

func envPairs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}
