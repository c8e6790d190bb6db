package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"envdoctor/internal/doctor"
	doctorerrors "envdoctor/internal/errors"
	"envdoctor/internal/platform"
)

type reportJSON struct {
	Status       doctor.Status     `json:"status"`
	ExitCode     int               `json:"exit_code"`
	Platform     platform.Info     `json:"platform"`
	Started      time.Time         `json:"started"`
	DurationMS   int64             `json:"duration_ms"`
	Skipped      []string          `json:"skipped,omitempty"`
	Diagnoses    []diagnosisJSON   `json:"diagnoses"`
	Remediations []remediationJSON `json:"remediations,omitempty"`
	Environment  map[string]string `json:"environment,omitempty"`
}

type diagnosisJSON struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Status    doctor.Status `json:"status"`
	Message   string        `json:"message,omitempty"`
	Details   []string      `json:"details,omitempty"`
	Solution  string        `json:"solution,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
}

type remediationJSON struct {
	Key        string         `json:"key"`
	Outcome    doctor.Outcome `json:"outcome"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

func newReportJSON(report *doctor.Report) reportJSON {
	out := reportJSON{
		Status:      report.Status,
		ExitCode:    report.ExitCode(),
		Platform:    report.Platform,
		Started:     report.Started,
		DurationMS:  report.Duration.Milliseconds(),
		Skipped:     report.Skipped,
		Diagnoses:   make([]diagnosisJSON, 0, len(report.Diagnoses)),
		Environment: report.Environment,
	}
	for _, d := range report.Diagnoses {
		dj := diagnosisJSON{
			ID:       d.CheckupID,
			Title:    d.Title,
			Status:   d.Status,
			Message:  d.Message,
			Details:  d.Details,
			Solution: d.SolutionKey(),
		}
		if d.Err != nil {
			dj.Error = d.Err.Error()
			dj.ErrorKind = string(doctorerrors.KindOf(d.Err))
		}
		out.Diagnoses = append(out.Diagnoses, dj)
	}
	for _, res := range report.Remediations {
		out.Remediations = append(out.Remediations, remediationJSON{
			Key:        res.Key,
			Outcome:    res.Outcome,
			Error:      res.Message(),
			DurationMS: res.Duration.Milliseconds(),
		})
	}
	return out
}

func writeReportJSON(w io.Writer, report *doctor.Report) error {
	data, err := json.MarshalIndent(newReportJSON(report), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
