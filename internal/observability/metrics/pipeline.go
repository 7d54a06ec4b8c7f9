package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

const namespace = "organizer"

// PipelineMetrics implements ports.PipelineObserver and exposes the
// classifier transport metrics on the same registry.
type PipelineMetrics struct {
	registry *prometheus.Registry
	service  string

	eventsTotal   *prometheus.CounterVec
	filesTotal    *prometheus.CounterVec
	fileDuration  *prometheus.HistogramVec
	filesInFlight prometheus.Gauge

	classifier *classifierMetrics
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "events_total",
			Help:      "File events received by source and dispatch decision.",
		},
		[]string{"service", "source", "decision"},
	)
	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "files_total",
			Help:      "Finished pipeline runs by terminal stage and error kind.",
		},
		[]string{"service", "stage", "error_kind"},
	)
	fileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "file_duration_seconds",
			Help:      "Pipeline run duration in seconds by terminal stage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service", "stage"},
	)
	filesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "files_in_flight",
			Help:      "Number of files currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(eventsTotal, filesTotal, fileDuration, filesInFlight)

	return &PipelineMetrics{
		registry:      registry,
		service:       service,
		eventsTotal:   eventsTotal,
		filesTotal:    filesTotal,
		fileDuration:  fileDuration,
		filesInFlight: filesInFlight,
		classifier:    newClassifierMetrics(registry, service),
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) ObserveEvent(source domain.EventSource, decision string) {
	if source == "" {
		source = "unknown"
	}
	m.eventsTotal.WithLabelValues(m.service, string(source), decision).Inc()
}

func (m *PipelineMetrics) StartFile() {
	m.filesInFlight.Inc()
}

func (m *PipelineMetrics) FinishFile(outcome domain.Outcome) {
	m.filesInFlight.Dec()

	stage := string(outcome.Stage)
	m.filesTotal.WithLabelValues(m.service, stage, domain.ErrorKind(outcome.Err)).Inc()
	m.fileDuration.WithLabelValues(m.service, stage).Observe(outcome.Duration.Seconds())
}
