package doctor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the run counters. A nil *Metrics records nothing.
type Metrics struct {
	checkups        *prometheus.CounterVec
	remediations    *prometheus.CounterVec
	checkupDuration *prometheus.HistogramVec
	runStatus       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		checkups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "envdoctor_checkups_total",
			Help: "Checkup diagnoses by status.",
		}, []string{"status"}),
		remediations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "envdoctor_remediations_total",
			Help: "Solution executions by outcome.",
		}, []string{"outcome"}),
		checkupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "envdoctor_checkup_duration_seconds",
			Help:    "Time spent in Examine per checkup.",
			Buckets: prometheus.DefBuckets,
		}, []string{"checkup"}),
		runStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "envdoctor_run_status",
			Help: "Aggregate status of the last run (0 ok, 1 warning, 2 error).",
		}),
	}
	for _, c := range []prometheus.Collector{m.checkups, m.remediations, m.checkupDuration, m.runStatus} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeCheckup(d Diagnosis) {
	if m == nil {
		return
	}
	m.checkups.WithLabelValues(d.Status.String()).Inc()
}

func (m *Metrics) observeCheckupDuration(id string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.checkupDuration.WithLabelValues(id).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRemediation(r RemediationResult) {
	if m == nil {
		return
	}
	m.remediations.WithLabelValues(string(r.Outcome)).Inc()
}

func (m *Metrics) observeRun(s Status) {
	if m == nil {
		return
	}
	m.runStatus.Set(float64(s))
}
