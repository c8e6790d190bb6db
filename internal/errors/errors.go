// Package errors defines the failure kinds produced while probing and
// remediating an environment. Every kind unwraps to its cause so callers can
// keep using errors.Is / errors.As on the underlying error.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure for reporting.
type Kind string

const (
	KindNone         Kind = "none"
	KindProbe        Kind = "probe"
	KindRemediation  Kind = "remediation"
	KindVersionParse Kind = "version_parse"
	KindPermission   Kind = "permission"
	KindCancelled    Kind = "cancelled"
	KindGeneral      Kind = "general"
)

// ProbeError is raised when a checkup fails or panics while examining the
// environment.
type ProbeError struct {
	CheckupID string `json:"checkup_id"`
	Cause     error  `json:"cause,omitempty"`
}

func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("checkup %s failed: %v", e.CheckupID, e.Cause)
	}
	return fmt.Sprintf("checkup %s failed", e.CheckupID)
}

func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// RemediationError is raised when a solution fails, panics, or cannot run
// because something it depends on failed.
type RemediationError struct {
	SolutionKey string `json:"solution_key"`
	Message     string `json:"message"`
	Cause       error  `json:"cause,omitempty"`
}

func (e *RemediationError) Error() string {
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	case e.Message != "":
		return e.Message
	case e.Cause != nil:
		return fmt.Sprintf("remediation %s failed: %v", e.SolutionKey, e.Cause)
	default:
		return fmt.Sprintf("remediation %s failed", e.SolutionKey)
	}
}

func (e *RemediationError) Unwrap() error {
	return e.Cause
}

// VersionParseError reports malformed version text. Callers treat it as
// "incompatible" rather than propagating it.
type VersionParseError struct {
	Input string `json:"input"`
	Cause error  `json:"cause,omitempty"`
}

func (e *VersionParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid version %q: %v", e.Input, e.Cause)
	}
	return fmt.Sprintf("invalid version %q", e.Input)
}

func (e *VersionParseError) Unwrap() error {
	return e.Cause
}

// PermissionError reports an operation that needs elevated privileges, or a
// privilege check that could not be completed.
type PermissionError struct {
	Operation string `json:"operation"`
	Cause     error  `json:"cause,omitempty"`
}

func (e *PermissionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("permission denied for %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s requires administrator privileges", e.Operation)
}

func (e *PermissionError) Unwrap() error {
	return e.Cause
}

// Error constructors

// NewProbeError wraps cause as a failure of the given checkup
func NewProbeError(checkupID string, cause error) *ProbeError {
	return &ProbeError{CheckupID: checkupID, Cause: cause}
}

// NewRemediationError creates a remediation failure for the solution identity
func NewRemediationError(solutionKey, message string, cause error) *RemediationError {
	return &RemediationError{SolutionKey: solutionKey, Message: message, Cause: cause}
}

// NewVersionParseError creates a version parse failure for input
func NewVersionParseError(input string, cause error) *VersionParseError {
	return &VersionParseError{Input: input, Cause: cause}
}

// NewPermissionError creates a permission failure for operation
func NewPermissionError(operation string, cause error) *PermissionError {
	return &PermissionError{Operation: operation, Cause: cause}
}

// Error classification functions

// IsProbeError reports whether err is or wraps a ProbeError
func IsProbeError(err error) bool {
	var target *ProbeError
	return stderrors.As(err, &target)
}

// IsRemediationError reports whether err is or wraps a RemediationError
func IsRemediationError(err error) bool {
	var target *RemediationError
	return stderrors.As(err, &target)
}

// IsVersionParseError reports whether err is or wraps a VersionParseError
func IsVersionParseError(err error) bool {
	var target *VersionParseError
	return stderrors.As(err, &target)
}

// IsPermissionError reports whether err is or wraps a PermissionError
func IsPermissionError(err error) bool {
	var target *PermissionError
	return stderrors.As(err, &target)
}

// IsCancellationError reports whether err stems from a cancelled or expired context
func IsCancellationError(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// KindOf returns the outermost failure kind found in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	// Walk the chain so a remediation error wrapping a parse error reports
	// as a remediation failure.
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		switch e.(type) {
		case *ProbeError:
			return KindProbe
		case *RemediationError:
			return KindRemediation
		case *VersionParseError:
			return KindVersionParse
		case *PermissionError:
			return KindPermission
		}
	}

	if IsCancellationError(err) {
		return KindCancelled
	}
	return KindGeneral
}

// WrapWithContext wraps an error with operation context
func WrapWithContext(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", operation, err)
}
