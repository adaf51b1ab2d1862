package orchestrator

import (
	"context"
	"time"

	"github.com/goliatone/go-estimator/internal/logging"
	"github.com/goliatone/go-estimator/pkg/metrics"
	"github.com/goliatone/go-estimator/pkg/model"
)

// DefaultTimeout bounds a submission when no WithTimeout option is given.
const DefaultTimeout = 30 * time.Second

// ReferenceLoader supplies the option lists.
type ReferenceLoader interface {
	LoadStatic(ctx context.Context) (model.ReferenceData, error)
	LoadAreas(ctx context.Context, city string) ([]string, error)
}

// Predictor prices a complete form.
type Predictor interface {
	Predict(ctx context.Context, input model.FormInput) (model.PredictionResult, error)
}

// ResultHook runs once each time the view enters the result state.
type ResultHook func(model.PredictionResult)

// ChangeHook runs after every state change with the new snapshot.
type ChangeHook func(Snapshot)

// Option customises the orchestrator.
type Option func(*Orchestrator)

// WithLoader injects the reference data loader.
func WithLoader(loader ReferenceLoader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithPredictor injects the prediction service.
func WithPredictor(predictor Predictor) Option {
	return func(o *Orchestrator) {
		o.predictor = predictor
	}
}

// WithCityScoping toggles the city control and per-city area lists.
func WithCityScoping(enabled bool) Option {
	return func(o *Orchestrator) {
		o.cityScoping = enabled
	}
}

// WithTimeout bounds each submission and area fetch.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records submission outcomes.
func WithMetrics(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithResultHook registers fn to run when a prediction lands.
func WithResultHook(fn ResultHook) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.resultHooks = append(o.resultHooks, fn)
		}
	}
}

// WithChangeHook registers fn to run after every state change.
func WithChangeHook(fn ChangeHook) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.changeHooks = append(o.changeHooks, fn)
		}
	}
}
