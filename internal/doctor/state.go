package doctor

import "sync"

// Well-known SharedState keys.
const (
	KeyDotNetRoot       = "dotnet.root"
	KeyDotNetSdkVersion = "dotnet.sdk_version"
	KeyAndroidSdkRoot   = "android.sdk_root"
	KeyOpenJdkHome      = "openjdk.home"
)

// SharedState is the run-scoped key/value context handed to every checkup
// and solution. It is created fresh for each run and never persisted.
// All methods are safe for concurrent use.
type SharedState struct {
	mu     sync.RWMutex
	values map[string]interface{}
	env    map[string]string
}

func NewSharedState() *SharedState {
	return &SharedState{
		values: make(map[string]interface{}),
		env:    make(map[string]string),
	}
}

func (s *SharedState) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the value for key when it is a string.
func (s *SharedState) GetString(key string) (string, bool) {
	return Lookup[string](s, key)
}

func (s *SharedState) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *SharedState) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// SetEnvironmentVariable records a variable to export when the run ends.
// It reports whether the stored value changed; writing the same value again
// is a no-op.
func (s *SharedState) SetEnvironmentVariable(name, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.env[name]; ok && current == value {
		return false
	}
	s.env[name] = value
	return true
}

func (s *SharedState) EnvironmentVariable(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.env[name]
	return v, ok
}

// Environment copies the recorded variables.
func (s *SharedState) Environment() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.env))
	for k, v := range s.env {
		out[k] = v
	}
	return out
}

// Lookup returns the value under key if it has type T.
func Lookup[T any](s *SharedState, key string) (T, bool) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
