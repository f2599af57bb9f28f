// internal/metrics/metrics.go
// Package metrics records pipeline outcomes and endpoint latency in a per-run prometheus registry.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/mwiater/physbench/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "physbench"

// Task outcome labels.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Recorder owns the collectors for one process. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	tasksTotal      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	ppsScore        prometheus.Histogram
}

// NewRecorder creates a Recorder backed by a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_total",
				Help:      "Total number of pipeline tasks finished, labeled by pipeline and outcome.",
			},
			[]string{"pipeline", "status"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of chat completion requests, labeled by model and outcome.",
			},
			[]string{"model", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Chat completion round-trip latency (seconds).",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120, 180, 300},
			},
			[]string{"model"},
		),
		ppsScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pps_score",
				Help:      "Distribution of composite PPS scores assigned by the evaluator.",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
		),
	}
	r.registry.MustRegister(r.tasksTotal, r.requestsTotal, r.requestDuration, r.ppsScore)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// TaskFinished counts one task outcome for the named pipeline.
func (r *Recorder) TaskFinished(pipeline string, err error) {
	if r == nil {
		return
	}
	status := StatusSucceeded
	if err != nil {
		status = StatusFailed
	}
	r.tasksTotal.WithLabelValues(pipeline, status).Inc()
}

// ObserveRequest records one completion round trip.
func (r *Recorder) ObserveRequest(model string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	status := StatusSucceeded
	if err != nil {
		status = StatusFailed
	}
	r.requestsTotal.WithLabelValues(model, status).Inc()
	r.requestDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// ObservePPS records one composite score.
func (r *Recorder) ObservePPS(score float64) {
	if r == nil {
		return
	}
	r.ppsScore.Observe(score)
}

// Serve exposes /metrics on addr until ctx is cancelled. It returns once the listener is bound.
func (r *Recorder) Serve(ctx context.Context, addr string) (string, error) {
	if r == nil {
		return "", errors.New("metrics recorder is nil")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogEvent("[METRICS] server stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.LogEvent("[METRICS] serving prometheus metrics on http://%s/metrics", ln.Addr())
	return ln.Addr().String(), nil
}
