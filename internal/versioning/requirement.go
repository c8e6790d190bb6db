package versioning

import "fmt"

// Requirement pairs a minimum version with an optional exact pin.
type Requirement struct {
	Minimum Version
	Exact   *Version
}

// NewRequirement parses a requirement. minimum is mandatory; an empty exact
// means no pin.
func NewRequirement(minimum, exact string) (Requirement, error) {
	if minimum == "" {
		return Requirement{}, fmt.Errorf("minimum version is required")
	}
	min, err := Parse(minimum)
	if err != nil {
		return Requirement{}, err
	}
	req := Requirement{Minimum: min}
	if exact != "" {
		ex, err := Parse(exact)
		if err != nil {
			return Requirement{}, err
		}
		req.Exact = &ex
	}
	return req, nil
}

// MustRequirement is NewRequirement that panics on bad input.
func MustRequirement(minimum, exact string) Requirement {
	r, err := NewRequirement(minimum, exact)
	if err != nil {
		panic(err)
	}
	return r
}

// ExactRequirement pins v, or falls back to a minimum of v when exact is false.
func ExactRequirement(v Version, exact bool) Requirement {
	if exact {
		return Requirement{Minimum: v, Exact: &v}
	}
	return Requirement{Minimum: v}
}

func (r Requirement) IsSatisfiedBy(candidate Version) bool {
	return IsCompatible(candidate, r.Minimum, r.Exact)
}

func (r Requirement) IsSatisfiedByString(candidate string) bool {
	return IsCompatibleString(candidate, r.Minimum, r.Exact)
}

func (r Requirement) String() string {
	return DisplayRequirement(r.Minimum, r.Exact)
}
