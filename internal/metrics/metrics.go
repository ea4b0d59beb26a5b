package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for booking submissions and content reads.
type Metrics struct {
	submissionsTotal  *prometheus.CounterVec
	submissionLatency *prometheus.HistogramVec
	formTransitions   *prometheus.CounterVec
	contentFetchTotal *prometheus.CounterVec
	contentLatency    *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Total collector submissions by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		submissionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "submission_latency_seconds",
			Help:      "Latency of collector submissions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		formTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "form_transitions_total",
			Help:      "Booking form state transitions",
		}, []string{"to"}),
		contentFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "content",
			Name:      "fetch_total",
			Help:      "Content API reads by resource and status",
		}, []string{"resource", "status"}),
		contentLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "content",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of content API reads",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.submissionLatency, m.formTransitions, m.contentFetchTotal, m.contentLatency)
	return m
}

func (m *Metrics) ObserveSubmission(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.submissionLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *Metrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.formTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) ObserveContentFetch(resource, status string, seconds float64) {
	if m == nil {
		return
	}
	m.contentFetchTotal.WithLabelValues(resource, status).Inc()
	m.contentLatency.WithLabelValues(resource).Observe(seconds)
}
