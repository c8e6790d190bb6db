package doctor

// Reporter receives progress events during a run. Calls may come from
// several goroutines at once.
type Reporter interface {
	CheckupStarted(c Checkup)
	CheckupFinished(d Diagnosis)
	SolutionStatus(key, message string)
	SolutionFinished(result RemediationResult)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) CheckupStarted(Checkup)             {}
func (NopReporter) CheckupFinished(Diagnosis)          {}
func (NopReporter) SolutionStatus(string, string)      {}
func (NopReporter) SolutionFinished(RemediationResult) {}
