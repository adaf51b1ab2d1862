package client

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-estimator/internal/logging"
	"github.com/goliatone/go-estimator/pkg/contract"
	"github.com/goliatone/go-estimator/pkg/metrics"
)

// HTTPDoer matches the Do signature of *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the transport. Defaults to http.DefaultClient.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithTimeout bounds every call whose context has no earlier deadline.
// Zero leaves calls bounded only by their context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithContract validates request and response bodies against ct. Violations
// are logged unless strict is set, in which case the call fails.
func WithContract(ct *contract.Contract, strict bool) Option {
	return func(c *Client) {
		c.contract = ct
		c.strict = strict
	}
}

// WithMetrics records per-endpoint status and latency.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.metrics = r
		}
	}
}

// WithTracerProvider selects the provider used for client spans. Defaults to
// the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithRequestIDFunc overrides the X-Request-ID generator.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}
