package doctor

// Diagnosis is the result of one Checkup.Examine call.
//
// An Error diagnosis without a Solution cannot be fixed by the doctor. A
// Warning may still carry a Solution as an optional improvement.
type Diagnosis struct {
	Status    Status
	Checkup   Checkup
	CheckupID string
	Title     string
	Message   string
	Details   []string
	Solution  Solution

	// Err is set when the checkup itself failed; it is a *errors.ProbeError.
	Err error
}

// Ok builds a passing diagnosis.
func Ok(c Checkup, message string) Diagnosis {
	return newDiagnosis(StatusOk, c, message, nil)
}

// Warn builds a warning diagnosis, optionally with an improvement.
func Warn(c Checkup, message string, solution Solution) Diagnosis {
	return newDiagnosis(StatusWarning, c, message, solution)
}

// Fail builds an error diagnosis. A nil solution marks it unfixable.
func Fail(c Checkup, message string, solution Solution) Diagnosis {
	return newDiagnosis(StatusError, c, message, solution)
}

func newDiagnosis(status Status, c Checkup, message string, solution Solution) Diagnosis {
	d := Diagnosis{
		Status:   status,
		Checkup:  c,
		Message:  message,
		Solution: solution,
	}
	if c != nil {
		d.CheckupID = c.ID()
		d.Title = c.Title()
	}
	return d
}

// WithDetails returns a copy of d with extra detail lines.
func (d Diagnosis) WithDetails(lines ...string) Diagnosis {
	d.Details = append(append([]string(nil), d.Details...), lines...)
	return d
}

// HasSolution reports whether the doctor can attempt a fix.
func (d Diagnosis) HasSolution() bool {
	return d.Solution != nil
}

// SolutionKey returns the identity of the attached solution, or "".
func (d Diagnosis) SolutionKey() string {
	if d.Solution == nil {
		return ""
	}
	return d.Solution.Key()
}

// Unfixable reports an Error diagnosis with nothing to run.
func (d Diagnosis) Unfixable() bool {
	return d.Status == StatusError && d.Solution == nil
}
