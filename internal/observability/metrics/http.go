package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type classifierMetrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
}

func newClassifierMetrics(registry *prometheus.Registry, service string) *classifierMetrics {
	labels := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "classifier",
			Name:        "requests_total",
			Help:        "Requests sent to the classification service by status code.",
			ConstLabels: labels,
		},
		[]string{"code", "method"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "classifier",
			Name:        "request_duration_seconds",
			Help:        "Time until response headers from the classification service.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			ConstLabels: labels,
		},
		[]string{"code", "method"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "classifier",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight requests to the classification service.",
			ConstLabels: labels,
		},
	)

	registry.MustRegister(requestTotal, requestDuration, requestInFlight)

	return &classifierMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
	}
}

// InstrumentTransport wraps next so every classification request is counted
// and timed. A nil next means http.DefaultTransport.
func (m *PipelineMetrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	c := m.classifier
	return promhttp.InstrumentRoundTripperInFlight(c.requestInFlight,
		promhttp.InstrumentRoundTripperCounter(c.requestTotal,
			promhttp.InstrumentRoundTripperDuration(c.requestDuration, next),
		),
	)
}
