package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"envdoctor/internal/doctor"
)

// palette holds the styles for one output stream. Colors are dropped when
// the stream is not a terminal.
type palette struct {
	ok, warning, failure, muted, bold lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		ok:      r.NewStyle().Foreground(lipgloss.Color("2")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		bold:    r.NewStyle().Bold(true),
	}
}

func (p palette) status(s doctor.Status) string {
	switch s {
	case doctor.StatusOk:
		return p.ok.Render("[ok]")
	case doctor.StatusWarning:
		return p.warning.Render("[warn]")
	default:
		return p.failure.Render("[error]")
	}
}

func (p palette) outcome(o doctor.Outcome) string {
	switch o {
	case doctor.OutcomeSucceeded:
		return p.ok.Render(string(o))
	case doctor.OutcomeBlocked, doctor.OutcomeCancelled:
		return p.warning.Render(string(o))
	default:
		return p.failure.Render(string(o))
	}
}

// renderReport prints one line per diagnosis, the remediations and a
// summary. Details of passing checkups are shown only when verbose.
func renderReport(w io.Writer, report *doctor.Report, verbose bool) {
	p := newPalette(w)

	fmt.Fprintf(w, "%s %s\n\n", p.bold.Render("envdoctor"), p.muted.Render(report.Platform.String()))

	for _, d := range report.Diagnoses {
		line := fmt.Sprintf("%s %s", p.status(d.Status), d.Title)
		if d.Message != "" {
			line += ": " + d.Message
		}
		fmt.Fprintln(w, line)
		if d.Status != doctor.StatusOk || verbose {
			for _, detail := range d.Details {
				fmt.Fprintf(w, "    %s\n", p.muted.Render(detail))
			}
		}
		if d.Err != nil && verbose {
			fmt.Fprintf(w, "    %s\n", p.muted.Render(d.Err.Error()))
		}
		if d.Unfixable() {
			fmt.Fprintf(w, "    %s\n", p.muted.Render("no automatic fix available"))
		}
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintf(w, "%s\n", p.muted.Render("skipped: "+strings.Join(report.Skipped, ", ")))
	}

	if len(report.Remediations) > 0 {
		fmt.Fprintf(w, "\n%s\n", p.bold.Render("Remediations"))
		for _, res := range report.Remediations {
			line := fmt.Sprintf("  %s %s", p.outcome(res.Outcome), res.Key)
			if msg := res.Message(); msg != "" {
				line += ": " + msg
			}
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, summaryLine(p, report))
}

func summaryLine(p palette, report *doctor.Report) string {
	unresolved := len(report.Unresolved())
	summary := fmt.Sprintf("%d checkups, %d unresolved, %s", len(report.Diagnoses), unresolved,
		report.Duration.Round(time.Millisecond))
	switch report.Status {
	case doctor.StatusOk:
		return p.ok.Render("Status: ok") + " " + p.muted.Render(summary)
	case doctor.StatusWarning:
		return p.warning.Render("Status: warning") + " " + p.muted.Render(summary)
	default:
		return p.failure.Render("Status: error") + " " + p.muted.Render(summary)
	}
}

// consoleReporter streams progress to stderr while the run is going.
type consoleReporter struct {
	mu sync.Mutex
	w  io.Writer
	p  palette
}

func newConsoleReporter(w io.Writer) *consoleReporter {
	return &consoleReporter{w: w, p: newPalette(w)}
}

func (r *consoleReporter) printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

func (r *consoleReporter) CheckupStarted(c doctor.Checkup) {
	r.printf("%s\n", r.p.muted.Render("checking "+c.Title()+"..."))
}

func (r *consoleReporter) CheckupFinished(doctor.Diagnosis) {}

func (r *consoleReporter) SolutionStatus(key, message string) {
	r.printf("%s %s\n", r.p.muted.Render(key+":"), message)
}

func (r *consoleReporter) SolutionFinished(res doctor.RemediationResult) {
	r.printf("%s %s\n", r.p.outcome(res.Outcome), res.Key)
}
