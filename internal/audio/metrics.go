package audio

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tapedeck",
		Subsystem: "audio_worker",
		Name:      "requests_total",
		Help:      "Requests handled by the audio worker",
	}, []string{"kind", "outcome"})

	workerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tapedeck",
		Subsystem: "audio_worker",
		Name:      "request_duration_seconds",
		Help:      "Time spent handling one request, including device I/O",
		Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"kind"})

	workerQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tapedeck",
		Subsystem: "audio_worker",
		Name:      "queue_depth",
		Help:      "Requests waiting for the audio worker",
	})

	workerRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tapedeck",
		Subsystem: "audio_worker",
		Name:      "running",
		Help:      "1 while the audio worker loop is running",
	})
)

func observeRequest(kind string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case IsHostLost(err):
		outcome = "host_lost"
	default:
		outcome = "error"
	}
	workerRequests.WithLabelValues(kind, outcome).Inc()
	workerRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
