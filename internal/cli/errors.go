package cli

import (
	"errors"
	"fmt"
	"strings"

	doctorerrors "envdoctor/internal/errors"
)

// ExitCodeFailure is returned for usage, configuration and manifest errors.
// Diagnosis statuses use the codes defined by the doctor package.
const ExitCodeFailure = 1

type ErrorType int

const (
	ErrorTypeConfig ErrorType = iota
	ErrorTypeManifest
	ErrorTypeNetwork
	ErrorTypePermission
	ErrorTypeRuntime
	ErrorTypeValidation
	ErrorTypeGeneral
)

type CLIError struct {
	Type        ErrorType
	Message     string
	Cause       error
	Suggestions []string
	RelatedCmds []string
}

func (e *CLIError) Error() string {
	if e == nil {
		return "Error: unknown error (nil CLIError)"
	}

	var parts []string

	switch e.Type {
	case ErrorTypeConfig:
		parts = append(parts, "Configuration Error:")
	case ErrorTypeManifest:
		parts = append(parts, "Manifest Error:")
	case ErrorTypeNetwork:
		parts = append(parts, "Network Error:")
	case ErrorTypePermission:
		parts = append(parts, "Permission Error:")
	case ErrorTypeRuntime:
		parts = append(parts, "Runtime Error:")
	case ErrorTypeValidation:
		parts = append(parts, "Validation Error:")
	default:
		parts = append(parts, "Error:")
	}

	message := e.Message
	if message == "" {
		message = "unknown error"
	}
	parts = append(parts, message)

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("\n   Cause: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		parts = append(parts, "\n\nTry these solutions:")
		for i, suggestion := range e.Suggestions {
			parts = append(parts, fmt.Sprintf("\n   %d. %s", i+1, suggestion))
		}
	}

	if len(e.RelatedCmds) > 0 {
		parts = append(parts, "\n\nRelated commands:")
		for _, cmd := range e.RelatedCmds {
			parts = append(parts, fmt.Sprintf("\n   envdoctor %s", cmd))
		}
	}

	return strings.Join(parts, " ")
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

func NewConfigError(message string, cause error) *CLIError {
	return &CLIError{
		Type:    ErrorTypeConfig,
		Message: message,
		Cause:   cause,
		Suggestions: []string{
			"Pass a manifest explicitly: envdoctor check --manifest ./envdoctor.json",
			"Set ENVDOCTOR_MANIFEST in the environment or a .env file",
			"Check the config file at ~/.envdoctor/config.yaml",
		},
		RelatedCmds: []string{
			"check --help",
		},
	}
}

func NewManifestError(source string, cause error) *CLIError {
	errType := ErrorTypeManifest
	suggestions := []string{
		fmt.Sprintf("Validate the manifest: envdoctor manifest --manifest %s", source),
		"Manifests are JSON; comments and trailing commas are allowed",
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		errType = ErrorTypeNetwork
		suggestions = append(suggestions, "Check network connectivity and proxy settings")
	}
	return &CLIError{
		Type:        errType,
		Message:     fmt.Sprintf("Cannot load manifest %s", source),
		Cause:       cause,
		Suggestions: suggestions,
		RelatedCmds: []string{"manifest", "list"},
	}
}

func NewRuntimeError(message string, cause error) *CLIError {
	errType := ErrorTypeRuntime
	if doctorerrors.IsPermissionError(cause) {
		errType = ErrorTypePermission
	}
	return &CLIError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(field string, value interface{}, expected string) *CLIError {
	return &CLIError{
		Type:    ErrorTypeValidation,
		Message: fmt.Sprintf("Invalid %s: %v (expected %s)", field, value, expected),
	}
}

// ExitError carries a non-zero status from a completed run. It is not
// printed; the report already describes it.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// exitCode maps an Execute error to a process exit code. message is what
// should be printed, or "" for none.
func exitCode(err error) (code int, message string) {
	if err == nil {
		return 0, ""
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code, ""
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return ExitCodeFailure, cliErr.Error()
	}
	return ExitCodeFailure, "Error: " + err.Error()
}
