package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks the document pipeline: which extraction strategies
// ran, how field replies were parsed and how model calls behaved.
type PipelineMetrics struct {
	service string

	extractionTotal   *prometheus.CounterVec
	fieldsParseTotal  *prometheus.CounterVec
	modelCallsTotal   *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
}

func newPipelineMetrics(service string, registry *prometheus.Registry) *PipelineMetrics {
	extractionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "extraction_total",
			Help:      "Text extraction attempts by strategy and outcome.",
		},
		[]string{"service", "strategy", "outcome"},
	)
	fieldsParseTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "fields_parse_total",
			Help:      "Field extraction replies by parse result kind.",
		},
		[]string{"service", "kind"},
	)
	modelCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Language model calls by operation and status.",
		},
		[]string{"service", "operation", "status"},
	)
	modelCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Language model call duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160, 320},
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(extractionTotal, fieldsParseTotal, modelCallsTotal, modelCallDuration)

	return &PipelineMetrics{
		service:           service,
		extractionTotal:   extractionTotal,
		fieldsParseTotal:  fieldsParseTotal,
		modelCallsTotal:   modelCallsTotal,
		modelCallDuration: modelCallDuration,
	}
}

func (m *PipelineMetrics) RecordExtractionAttempt(strategy, outcome string) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.extractionTotal.WithLabelValues(m.service, strategy, outcome).Inc()
}

func (m *PipelineMetrics) RecordFieldsParse(kind string) {
	m.fieldsParseTotal.WithLabelValues(m.service, kind).Inc()
}

func (m *PipelineMetrics) RecordModelCall(operation, status string, duration time.Duration) {
	m.modelCallsTotal.WithLabelValues(m.service, operation, status).Inc()
	m.modelCallDuration.WithLabelValues(m.service, operation).Observe(duration.Seconds())
}
