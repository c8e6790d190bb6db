package checkups

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"envdoctor/internal/platform"
)

// scriptedRunner answers by executable path and records every call.
type scriptedRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	calls   []platform.Command
}

func (r *scriptedRunner) Run(_ context.Context, cmd platform.Command) (*platform.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cmd)
	out, ok := r.outputs[cmd.Path]
	if !ok {
		return &platform.Result{ExitCode: 127}, errors.New("not found")
	}
	return &platform.Result{Stdout: out}, nil
}

func (r *scriptedRunner) callsTo(suffix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if strings.HasSuffix(c.Path, suffix) {
			n++
		}
	}
	return n
}

func touch(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0755))
	return path
}

func realPath(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return resolved
}

func noEnv(string) string { return "" }

func testEnvironment(runner platform.Runner) Environment {
	return Environment{
		Runner:      runner,
		Getenv:      noEnv,
		OS:          platform.OSLinux,
		Is64Bit:     true,
		PlatformKey: "linux64",
		IsAdmin:     func() bool { return false },
	}
}
