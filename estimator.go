// Package estimator wires configuration, the prediction service client, the
// reference loader, the orchestrator and the renderers into one App.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-estimator/internal/logging"
	"github.com/goliatone/go-estimator/pkg/client"
	"github.com/goliatone/go-estimator/pkg/config"
	"github.com/goliatone/go-estimator/pkg/contract"
	"github.com/goliatone/go-estimator/pkg/loader"
	"github.com/goliatone/go-estimator/pkg/metrics"
	"github.com/goliatone/go-estimator/pkg/model"
	"github.com/goliatone/go-estimator/pkg/orchestrator"
	"github.com/goliatone/go-estimator/pkg/render"
	"github.com/goliatone/go-estimator/pkg/renderers/html"
	"github.com/goliatone/go-estimator/pkg/renderers/text"
	"github.com/goliatone/go-estimator/pkg/view"
)

// RenderOptions aliases render.RenderOptions for callers of App.Render.
type RenderOptions = render.RenderOptions

// Snapshot aliases orchestrator.Snapshot.
type Snapshot = orchestrator.Snapshot

// Option customises New.
type Option func(*options)

type options struct {
	httpClient  client.HTTPDoer
	logger      logging.Logger
	registerer  prometheus.Registerer
	tracer      trace.TracerProvider
	orchestrate []orchestrator.Option
	renderers   []render.Renderer
}

// WithHTTPClient replaces the HTTP client used to reach the service.
func WithHTTPClient(doer client.HTTPDoer) Option {
	return func(o *options) {
		if doer != nil {
			o.httpClient = doer
		}
	}
}

// WithLogger bypasses the logger built from the logging config.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPrometheusRegisterer records service, submission and reference load
// metrics on reg.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTracerProvider records a client span for every service call on tp.
// The global otel provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = tp
	}
}

// WithOrchestratorOptions appends options (hooks, timeouts) to the
// orchestrator built by New.
func WithOrchestratorOptions(opts ...orchestrator.Option) Option {
	return func(o *options) {
		o.orchestrate = append(o.orchestrate, opts...)
	}
}

// WithRenderer registers an additional renderer, e.g. one selected through
// output.renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(o *options) {
		if renderer != nil {
			o.renderers = append(o.renderers, renderer)
		}
	}
}

// App is a fully wired estimator.
type App struct {
	Config       config.Config
	Logger       logging.Logger
	Client       *client.Client
	Loader       *loader.Loader
	Orchestrator *orchestrator.Orchestrator
	Renderers    *render.Registry

	mu   sync.Mutex
	last *model.PredictionResult
}

// New builds an App from cfg. It does not touch the network; call Init to
// load the reference lists.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return nil, fmt.Errorf("estimator: logger: %w", err)
		}
	}

	var recorder metrics.Recorder = metrics.Nop{}
	if o.registerer != nil {
		prom, err := metrics.NewPrometheus(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("estimator: metrics: %w", err)
		}
		recorder = prom
	}

	ct, err := contract.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("estimator: contract: %w", err)
	}

	clientOpts := []client.Option{
		client.WithTimeout(cfg.Service.Timeout),
		client.WithLogger(logger),
		client.WithContract(ct, cfg.Service.StrictContract),
		client.WithMetrics(recorder),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(o.httpClient))
	}
	if o.tracer != nil {
		clientOpts = append(clientOpts, client.WithTracerProvider(o.tracer))
	}
	svc, err := client.New(cfg.Service.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	ld := loader.New(svc,
		loader.WithCityScoping(cfg.Form.CityScoping),
		loader.WithLogger(logger),
		loader.WithMetrics(recorder),
	)

	registry, err := defaultRegistry(cfg.Output, o.renderers...)
	if err != nil {
		return nil, err
	}
	if cfg.Output.Renderer != "" {
		if err := registry.SetDefault(cfg.Output.Renderer); err != nil {
			return nil, fmt.Errorf("estimator: output renderer: %w", err)
		}
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Client:    svc,
		Loader:    ld,
		Renderers: registry,
	}
	orchOpts := append([]orchestrator.Option{
		orchestrator.WithLoader(ld),
		orchestrator.WithPredictor(svc),
		orchestrator.WithCityScoping(cfg.Form.CityScoping),
		orchestrator.WithTimeout(cfg.Service.Timeout),
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(recorder),
		orchestrator.WithResultHook(app.recordResult),
		orchestrator.WithChangeHook(func(snap orchestrator.Snapshot) {
			logger.Debug("view changed", map[string]any{
				"view":    string(snap.View.Kind()),
				"version": snap.Version,
			})
		}),
	}, o.orchestrate...)
	app.Orchestrator = orchestrator.New(orchOpts...)
	return app, nil
}

func defaultRegistry(out config.OutputConfig, extra ...render.Renderer) (*render.Registry, error) {
	htmlOpts := []html.Option{html.WithTemplatesDir(out.TemplatesDir)}
	if out.Stylesheet != "" {
		css, err := os.ReadFile(out.Stylesheet)
		if err != nil {
			return nil, fmt.Errorf("estimator: stylesheet: %w", err)
		}
		htmlOpts = append(htmlOpts, html.WithStylesheet(string(css)))
	}

	registry := render.NewRegistry()
	htmlRenderer, err := html.New(htmlOpts...)
	if err != nil {
		return nil, err
	}
	for _, r := range append([]render.Renderer{text.New(), text.NewJSON(), htmlRenderer}, extra...) {
		if err := registry.Register(r); err != nil {
			return nil, fmt.Errorf("estimator: %w", err)
		}
	}
	return registry, nil
}

// Init loads the static reference lists.
func (a *App) Init(ctx context.Context) error {
	return a.Orchestrator.Init(ctx)
}

// Render reduces the current state and renders it with the named renderer;
// an empty name selects the configured default.
func (a *App) Render(ctx context.Context, rendererName string, opts RenderOptions) ([]byte, error) {
	renderer, err := a.Renderers.Get(rendererName)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, view.Reduce(a.Orchestrator.Snapshot()), opts)
}

// Estimate fills the form from input the way a user would, submits it and
// waits for the outcome. Field problems are returned as *form.ValidationError
// or form.ErrUnknownOption before anything is sent.
func (a *App) Estimate(ctx context.Context, input model.FormInput) (model.ViewState, error) {
	return a.EstimateValues(ctx, InputValues(input, a.Config.Form.CityScoping))
}

// EstimateValues is Estimate for raw form values keyed by field. Fields are
// set in display order so the area list follows the city; absent fields stay
// empty and fail the submission as incomplete.
func (a *App) EstimateValues(ctx context.Context, values map[model.FieldName]string) (model.ViewState, error) {
	for _, name := range model.FieldNames(a.Config.Form.CityScoping) {
		value, ok := values[name]
		if !ok {
			continue
		}
		if err := a.Orchestrator.SetField(ctx, name, value); err != nil {
			return model.ViewState{}, err
		}
		if name == model.FieldCity {
			if err := a.Orchestrator.AwaitAreas(ctx); err != nil {
				return model.ViewState{}, err
			}
		}
	}

	pending, err := a.Orchestrator.Submit(ctx)
	if err != nil {
		return model.ViewState{}, err
	}
	state, err := pending.Wait(ctx)
	if errors.Is(err, orchestrator.ErrSuperseded) {
		return a.Orchestrator.Snapshot().View, err
	}
	return state, err
}

// LastResult returns the most recent estimate that reached the screen. It
// stays set after later edits clear the view.
func (a *App) LastResult() (model.PredictionResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return model.PredictionResult{}, false
	}
	return a.last.Clone(), true
}

func (a *App) recordResult(res model.PredictionResult) {
	a.mu.Lock()
	a.last = &res
	a.mu.Unlock()
	a.Logger.Info("estimate ready", map[string]any{
		"area":  res.Input.Area,
		"price": res.PriceFormatted,
	})
}

// Close waits for background work and flushes the logger.
func (a *App) Close() error {
	a.Orchestrator.Drain()
	if err := a.Logger.Sync(); err != nil && !isSyncNoise(err) {
		return err
	}
	return nil
}

// InputValues converts input into raw form values. The city is only included
// when cityScoping is set.
func InputValues(in model.FormInput, cityScoping bool) map[model.FieldName]string {
	out := map[model.FieldName]string{
		model.FieldArea:         in.Area,
		model.FieldPropertyType: string(in.PropertyType),
		model.FieldBHK:          formatInt(in.BHK),
		model.FieldSqft:         formatFloat(in.Sqft),
		model.FieldFloor:        formatInt(in.Floor),
		model.FieldAge:          formatInt(in.Age),
	}
	if cityScoping {
		out[model.FieldCity] = in.City
	}
	return out
}
