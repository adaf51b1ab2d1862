package loader

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-estimator/internal/logging"
	"github.com/goliatone/go-estimator/pkg/metrics"
	"github.com/goliatone/go-estimator/pkg/model"
)

// BannerMessage is shown while the static lists are unavailable.
const BannerMessage = "Failed to load data. Make sure backend is running."

// ErrStaticLoad wraps any failure of the initial reference load.
var ErrStaticLoad = errors.New("loader: static reference data unavailable")

// Source provides the reference lists.
type Source interface {
	Cities(ctx context.Context) ([]string, error)
	Areas(ctx context.Context, city string) ([]string, error)
	PropertyTypes(ctx context.Context) ([]string, error)
}

// Loader fetches option lists for the form controls.
type Loader struct {
	source      Source
	cityScoping bool
	logger      logging.Logger
	metrics     metrics.Recorder
}

// Option configures the Loader.
type Option func(*Loader)

// WithCityScoping loads cities up front and areas per city. When disabled a
// single unscoped area list is part of the static load.
func WithCityScoping(enabled bool) Option {
	return func(l *Loader) {
		l.cityScoping = enabled
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger logging.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics records reference load outcomes.
func WithMetrics(r metrics.Recorder) Option {
	return func(l *Loader) {
		if r != nil {
			l.metrics = r
		}
	}
}

// New constructs a Loader. City scoping is enabled by default.
func New(source Source, options ...Option) *Loader {
	l := &Loader{
		source:      source,
		cityScoping: true,
		logger:      logging.NewNop(),
		metrics:     metrics.Nop{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// CityScoping reports whether areas depend on the selected city.
func (l *Loader) CityScoping() bool {
	return l.cityScoping
}

// LoadStatic fetches the lists that never change during a session. Requests
// run concurrently and any failure fails the whole load.
func (l *Loader) LoadStatic(ctx context.Context) (model.ReferenceData, error) {
	if l.source == nil {
		return model.ReferenceData{}, fmt.Errorf("%w: no source configured", ErrStaticLoad)
	}

	var data model.ReferenceData
	g, gctx := errgroup.WithContext(ctx)

	if l.cityScoping {
		g.Go(func() error {
			cities, err := l.source.Cities(gctx)
			l.metrics.ObserveReferenceLoad("cities", err)
			if err != nil {
				return fmt.Errorf("cities: %w", err)
			}
			data.Cities = nonNil(cities)
			return nil
		})
	} else {
		g.Go(func() error {
			areas, err := l.source.Areas(gctx, "")
			l.metrics.ObserveReferenceLoad("areas", err)
			if err != nil {
				return fmt.Errorf("areas: %w", err)
			}
			data.Areas = nonNil(areas)
			return nil
		})
	}

	g.Go(func() error {
		types, err := l.source.PropertyTypes(gctx)
		l.metrics.ObserveReferenceLoad("property_types", err)
		if err != nil {
			return fmt.Errorf("property types: %w", err)
		}
		data.PropertyTypes = nonNil(types)
		return nil
	})

	if err := g.Wait(); err != nil {
		l.logger.Error("static reference load failed", map[string]any{"error": err})
		return model.ReferenceData{}, fmt.Errorf("%w: %w", ErrStaticLoad, err)
	}
	if data.Areas == nil {
		data.Areas = []string{}
	}

	l.logger.Debug("static reference data loaded", map[string]any{
		"cities":         len(data.Cities),
		"areas":          len(data.Areas),
		"property_types": len(data.PropertyTypes),
	})
	return data, nil
}

// LoadAreas fetches the areas for city.
func (l *Loader) LoadAreas(ctx context.Context, city string) ([]string, error) {
	if l.source == nil {
		return nil, errors.New("loader: no source configured")
	}
	areas, err := l.source.Areas(ctx, city)
	l.metrics.ObserveReferenceLoad("areas", err)
	if err != nil {
		return nil, fmt.Errorf("loader: areas for %q: %w", city, err)
	}
	return nonNil(areas), nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
