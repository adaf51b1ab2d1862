package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for prediction submissions.
const (
	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeTimeout    = "timeout"
	OutcomeSuperseded = "superseded"
)

// Recorder receives instrumentation events. The zero-cost Nop recorder is the
// default everywhere.
type Recorder interface {
	ObserveRequest(endpoint string, status int, d time.Duration)
	ObserveSubmission(outcome string)
	ObserveReferenceLoad(list string, err error)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveRequest(string, int, time.Duration) {}
func (Nop) ObserveSubmission(string)                  {}
func (Nop) ObserveReferenceLoad(string, error)        {}

// Prometheus records into collectors registered on a caller supplied registerer.
type Prometheus struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	refLoads    *prometheus.CounterVec
}

// NewPrometheus registers the estimator collectors on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "estimator",
				Name:      "service_requests_total",
				Help:      "Requests sent to the prediction service by endpoint and status code.",
			},
			[]string{"endpoint", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "estimator",
				Name:      "service_request_duration_seconds",
				Help:      "Latency of prediction service requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "estimator",
				Name:      "submissions_total",
				Help:      "Prediction submissions by outcome.",
			},
			[]string{"outcome"},
		),
		refLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "estimator",
				Name:      "reference_loads_total",
				Help:      "Reference list loads by list and result.",
			},
			[]string{"list", "result"},
		),
	}
	for _, c := range []prometheus.Collector{p.requests, p.latency, p.submissions, p.refLoads} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveRequest(endpoint string, status int, d time.Duration) {
	p.requests.WithLabelValues(endpoint, statusLabel(status)).Inc()
	p.latency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (p *Prometheus) ObserveSubmission(outcome string) {
	p.submissions.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ObserveReferenceLoad(list string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.refLoads.WithLabelValues(list, result).Inc()
}

func statusLabel(status int) string {
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status)
}

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
