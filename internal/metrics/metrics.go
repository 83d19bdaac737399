// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	TranscriptionsTotal   *prometheus.CounterVec
	TranscriptionDuration *prometheus.HistogramVec
	ExportsTotal          *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		TranscriptionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transcription",
			Name:      "requests_total",
			Help:      "Total transcription requests by outcome.",
		}, []string{"status"}),
		TranscriptionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transcription",
			Name:      "duration_seconds",
			Help:      "Time spent waiting on the transcription vendor.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"status"}),
		ExportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "total",
			Help:      "Total transcript exports by format.",
		}, []string{"format"}),
	}
}

func (m *Metrics) ObserveTranscription(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.TranscriptionsTotal.WithLabelValues(status).Inc()
	m.TranscriptionDuration.WithLabelValues(status).Observe(duration.Seconds())
}
