package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

var logLevelNames = map[LogLevel]string{
	LogDebug: "DEBUG",
	LogInfo:  "INFO",
	LogWarn:  "WARN",
	LogError: "ERROR",
}

// ParseLogLevel maps a config or environment value to a LogLevel.
// Unknown values fall back to info.
func ParseLogLevel(value string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug", "trace":
		return LogDebug
	case "warn", "warning":
		return LogWarn
	case "error":
		return LogError
	default:
		return LogInfo
	}
}

func (l LogLevel) String() string {
	if name, ok := logLevelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// SafeLogger provides STDIO-safe logging that only writes to stderr.
// Stdout is left to the report renderer.
type SafeLogger struct {
	prefix string

	mu     sync.Mutex
	level  LogLevel
	output io.Writer
}

// NewSafeLogger creates a new safe logger with the given prefix
func NewSafeLogger(prefix string) *SafeLogger {
	level := LogInfo
	if os.Getenv("ENVDOCTOR_DEBUG") == trueStr {
		level = LogDebug
	}
	return &SafeLogger{
		prefix: prefix,
		level:  level,
		output: os.Stderr,
	}
}

// SetLevel sets the minimum log level
func (l *SafeLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the minimum log level
func (l *SafeLogger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetOutput redirects the logger. Used by tests.
func (l *SafeLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

func (l *SafeLogger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006/01/02 15:04:05")
	message := fmt.Sprintf(format, args...)

	fmt.Fprintf(l.output, "%s [%s] %s: %s\n", timestamp, level, l.prefix, message)
}

// Debug logs a debug message
func (l *SafeLogger) Debug(format string, args ...interface{}) {
	l.log(LogDebug, format, args...)
}

// Info logs an info message
func (l *SafeLogger) Info(format string, args ...interface{}) {
	l.log(LogInfo, format, args...)
}

// Warn logs a warning message
func (l *SafeLogger) Warn(format string, args ...interface{}) {
	l.log(LogWarn, format, args...)
}

// Error logs an error message
func (l *SafeLogger) Error(format string, args ...interface{}) {
	l.log(LogError, format, args...)
}

// Global logger instances for convenience
var (
	CLILogger    = NewSafeLogger("CLI")
	DoctorLogger = NewSafeLogger("Doctor")
)

// SetGlobalLevel applies level to every global logger.
func SetGlobalLevel(level LogLevel) {
	CLILogger.SetLevel(level)
	DoctorLogger.SetLevel(level)
}
