package doctor

import (
	"context"
	"fmt"
	"strings"
)

// Solution is a remediation unit.
//
// Key is the solution's identity: two solutions with the same key are the
// same remediation and run at most once per doctor run. Build it from the
// implementation kind and every constructor parameter with SolutionKey.
//
// Dependencies are completed by the doctor before Implement is called;
// Implement never runs them itself.
type Solution interface {
	Key() string
	Dependencies() []Solution
	Implement(ctx context.Context, state *SharedState, progress Progress) error
}

// Progress is the side channel a solution reports status lines through.
type Progress interface {
	ReportStatus(message string)
}

// SolutionKey renders kind(p1,p2,...). Slices are joined with "|".
func SolutionKey(kind string, params ...interface{}) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		switch v := p.(type) {
		case []string:
			parts = append(parts, strings.Join(v, "|"))
		case fmt.Stringer:
			parts = append(parts, v.String())
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return kind + "(" + strings.Join(parts, ",") + ")"
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(message string)

func (f ProgressFunc) ReportStatus(message string) {
	f(message)
}

type solutionProgress struct {
	key      string
	reporter Reporter
}

func (p solutionProgress) ReportStatus(message string) {
	p.reporter.SolutionStatus(p.key, message)
}
