package metrics

import "github.com/prometheus/client_golang/prometheus"

// RunMetrics exposes counters/histograms for reminder and phone-apply runs.
type RunMetrics struct {
	runsTotal       *prometheus.CounterVec
	candidatesTotal prometheus.Counter
	sendsTotal      *prometheus.CounterVec
	phoneFields     *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
}

func NewRunMetrics(reg prometheus.Registerer) *RunMetrics {
	m := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubdesk",
			Subsystem: "reminder",
			Name:      "runs_total",
			Help:      "Total reminder/phone runs by operation and mode",
		}, []string{"operation", "mode"}),
		candidatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clubdesk",
			Subsystem: "reminder",
			Name:      "candidates_total",
			Help:      "Total members found eligible for a reminder",
		}),
		sendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubdesk",
			Subsystem: "reminder",
			Name:      "sends_total",
			Help:      "Total outbound dispatch attempts by outcome",
		}, []string{"status"}),
		phoneFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubdesk",
			Subsystem: "phones",
			Name:      "fields_total",
			Help:      "Phone fields examined by normalization outcome",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clubdesk",
			Subsystem: "reminder",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of full runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.candidatesTotal, m.sendsTotal, m.phoneFields, m.runDuration)
	return m
}

func (m *RunMetrics) ObserveRun(operation, mode string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(operation, mode).Inc()
}

func (m *RunMetrics) ObserveCandidate() {
	if m == nil {
		return
	}
	m.candidatesTotal.Inc()
}

func (m *RunMetrics) ObserveSend(status string) {
	if m == nil {
		return
	}
	m.sendsTotal.WithLabelValues(status).Inc()
}

func (m *RunMetrics) ObservePhoneField(outcome string) {
	if m == nil {
		return
	}
	m.phoneFields.WithLabelValues(outcome).Inc()
}

func (m *RunMetrics) ObserveRunDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(operation).Observe(seconds)
}
