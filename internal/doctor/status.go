package doctor

import (
	"fmt"
	"strings"
)

// Status is the verdict of a checkup. Values are ordered: Ok < Warning < Error.
type Status int

const (
	StatusOk Status = iota
	StatusWarning
	StatusError
)

// Process exit codes for an aggregate status. 1 is left to usage and
// configuration failures.
const (
	ExitCodeOk      = 0
	ExitCodeWarning = 2
	ExitCodeError   = 3
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "ok":
		*s = StatusOk
	case "warning":
		*s = StatusWarning
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// ExitCode maps a status to the process exit code.
func (s Status) ExitCode() int {
	switch s {
	case StatusOk:
		return ExitCodeOk
	case StatusWarning:
		return ExitCodeWarning
	default:
		return ExitCodeError
	}
}

// Worst returns the maximum status of the diagnoses, Ok for none.
func Worst(diagnoses []Diagnosis) Status {
	worst := StatusOk
	for _, d := range diagnoses {
		if d.Status > worst {
			worst = d.Status
		}
	}
	return worst
}
