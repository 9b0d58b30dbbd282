// package metrics counts remote requests and protocol outcomes with Prometheus.
//
// A CLI run is short lived, so nothing is served over HTTP: the registry is
// written to a node_exporter textfile when the run ends.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/twhispr/internal/services"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "twhispr"

// Recorder holds the counters for one process.
//
// It satisfies [services.RequestObserver] and the engine's outcome recorder.
type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	uploads  *prometheus.CounterVec
	attaches *prometheus.CounterVec
	deletes  *prometheus.CounterVec
	lastRun  *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests sent to the hosting service by method and status code.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Round trip time of requests to the hosting service.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"method"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload results by outcome (uploaded, existing, recovered).",
		}, []string{"outcome"}),
		attaches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlist_attach_total",
			Help:      "Playlist attach results by outcome.",
		}, []string{"outcome"}),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_deletes_total",
			Help:      "Duplicate track deletions by result.",
		}, []string{"result"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the command last finished.",
		}, []string{"command"}),
	}

	r.registry.MustRegister(r.requests, r.duration, r.uploads, r.attaches, r.deletes, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Observe(info services.RequestInfo) {
	status := "error"
	if info.Status > 0 {
		status = strconv.Itoa(info.Status)
	}
	r.requests.WithLabelValues(info.Method, status).Inc()
	r.duration.WithLabelValues(info.Method).Observe(info.Duration.Seconds())
}

func (r *Recorder) Upload(outcome string) {
	r.uploads.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Attach(outcome string) {
	r.attaches.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Delete(ok bool) {
	result := "deleted"
	if !ok {
		result = "failed"
	}
	r.deletes.WithLabelValues(result).Inc()
}

// Finish stamps the completion time of command.
func (r *Recorder) Finish(command string, at time.Time) {
	r.lastRun.WithLabelValues(command).Set(float64(at.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
