package metrics

import "github.com/prometheus/client_golang/prometheus"

// VoiceMetrics exposes counters/histograms for the dictation pipeline.
type VoiceMetrics struct {
	parsesTotal      *prometheus.CounterVec
	parseConfidence  prometheus.Histogram
	ambiguitiesTotal *prometheus.CounterVec
	sessionsTotal    *prometheus.CounterVec
	creationsTotal   *prometheus.CounterVec
}

func NewVoiceMetrics(reg prometheus.Registerer) *VoiceMetrics {
	m := &VoiceMetrics{
		parsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vozagenda",
			Subsystem: "voice",
			Name:      "parses_total",
			Help:      "Total parsed utterances",
		}, []string{"locale"}),
		parseConfidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vozagenda",
			Subsystem: "voice",
			Name:      "parse_confidence",
			Help:      "Overall confidence of parsed utterances",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		ambiguitiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vozagenda",
			Subsystem: "voice",
			Name:      "ambiguities_total",
			Help:      "Ambiguities raised, by field",
		}, []string{"field"}),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vozagenda",
			Subsystem: "voice",
			Name:      "sessions_total",
			Help:      "Dictation sessions, by final outcome",
		}, []string{"outcome"}),
		creationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vozagenda",
			Subsystem: "voice",
			Name:      "creations_total",
			Help:      "Appointment creations from dictation, by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.parsesTotal, m.parseConfidence, m.ambiguitiesTotal, m.sessionsTotal, m.creationsTotal)
	return m
}

func (m *VoiceMetrics) ObserveParse(locale string, confidence float64) {
	if m == nil {
		return
	}
	m.parsesTotal.WithLabelValues(locale).Inc()
	m.parseConfidence.Observe(confidence)
}

func (m *VoiceMetrics) ObserveAmbiguity(field string) {
	if m == nil {
		return
	}
	m.ambiguitiesTotal.WithLabelValues(field).Inc()
}

func (m *VoiceMetrics) ObserveSessionOutcome(outcome string) {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues(outcome).Inc()
}

func (m *VoiceMetrics) ObserveCreation(status string) {
	if m == nil {
		return
	}
	m.creationsTotal.WithLabelValues(status).Inc()
}
