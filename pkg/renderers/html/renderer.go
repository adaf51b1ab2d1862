// Package html renders the estimator view model as a standalone HTML page.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-estimator/pkg/model"
	"github.com/goliatone/go-estimator/pkg/render"
	rendertemplate "github.com/goliatone/go-estimator/pkg/render/template"
	"github.com/goliatone/go-estimator/pkg/render/template/pongo"
	"github.com/goliatone/go-estimator/pkg/view"
)

const pageTemplate = "templates/page.tmpl"

type Option func(*config)

type config struct {
	templateFS   fs.FS
	stylesheet   string
	inlineStyles bool
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. The bundle
// must provide templates/page.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk laid out like the
// embedded bundle (templates/page.tmpl, templates/partials/*.tmpl).
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithInlineStyles toggles embedding the stylesheet into the page head.
// Enabled by default.
func WithInlineStyles(enabled bool) Option {
	return func(cfg *config) {
		cfg.inlineStyles = enabled
	}
}

// WithStylesheet replaces the inlined stylesheet. Blank input keeps the
// default.
func WithStylesheet(css string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(css) != "" {
			cfg.stylesheet = css
		}
	}
}

type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	stylesheet string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:   TemplatesFS(),
		stylesheet:   defaultStylesheet(),
		inlineStyles: true,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	engine, err := pongo.New(
		pongo.WithFS(cfg.templateFS),
		pongo.WithExtension(".tmpl"),
		pongo.WithFilter(fieldIDFilterName, fieldIDFilter),
	)
	if err != nil {
		return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
	}

	r := &Renderer{templates: engine}
	if cfg.inlineStyles {
		r.stylesheet = cfg.stylesheet
	}
	return r, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

type pageControl struct {
	view.Control
	Error string `json:"error,omitempty"`
}

type pageData struct {
	view.RenderModel
	Controls   []pageControl `json:"controls"`
	Notice     string        `json:"notice,omitempty"`
	Stylesheet string        `json:"stylesheet,omitempty"`
}

func (r *Renderer) Render(_ context.Context, rm view.RenderModel, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}

	clean := sanitizeModel(rm)
	data := pageData{
		RenderModel: clean,
		Controls:    make([]pageControl, 0, len(clean.Controls)),
		Notice:      plainText(opts.Notice),
		Stylesheet:  r.stylesheet,
	}
	for _, control := range clean.Controls {
		data.Controls = append(data.Controls, pageControl{
			Control: control,
			Error:   plainText(fieldError(opts.FieldErrors, control.Name)),
		})
	}

	result, err := r.templates.RenderTemplate(pageTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

const fieldIDFilterName = "field_id"

// fieldIDFilter turns a field name into a DOM id, e.g. property_type with
// parameter 2 becomes field-property-type-2.
func fieldIDFilter(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	id := "field-" + strings.ReplaceAll(in.String(), "_", "-")
	if param != nil && !param.IsNil() {
		if suffix := strings.TrimSpace(param.String()); suffix != "" {
			id += "-" + suffix
		}
	}
	return pongo2.AsValue(id), nil
}

func fieldError(errs map[model.FieldName]string, name model.FieldName) string {
	if errs == nil {
		return ""
	}
	return errs[name]
}
