package doctor

import "context"

// Checkup probes one aspect of the environment.
//
// Examine may be called more than once per run (before and after
// remediation) and must be safe to repeat. A checkup that finds a usable
// resource may record it in the SharedState, for example as an environment
// variable; it must not mutate the process environment itself. A returned
// error is turned into an Error diagnosis by the doctor.
type Checkup interface {
	ID() string
	Title() string
	Examine(ctx context.Context, state *SharedState) (Diagnosis, error)
}

// DependentCheckup is implemented by checkups that need other checkups to
// have passed first. Dependencies are checkup IDs.
type DependentCheckup interface {
	Checkup
	Dependencies() []string
}

func checkupDependencies(c Checkup) []string {
	if dc, ok := c.(DependentCheckup); ok {
		return dc.Dependencies()
	}
	return nil
}
