package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-estimator"
	"github.com/goliatone/go-estimator/pkg/config"
	"github.com/goliatone/go-estimator/pkg/contract"
	"github.com/goliatone/go-estimator/pkg/metrics"
	"github.com/goliatone/go-estimator/pkg/model"
	"github.com/goliatone/go-estimator/pkg/render"
	"github.com/goliatone/go-estimator/pkg/renderers/tui"
)

// errPredictionFailed marks a run that rendered an error panel.
var errPredictionFailed = errors.New("prediction failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, errPredictionFailed) {
			fmt.Fprintf(os.Stderr, "estimator: %v\n", err)
		}
		os.Exit(1)
	}
}

type globalFlags struct {
	configFile    string
	baseURL       string
	renderer      string
	logLevel      string
	metricsListen string
	templatesDir  string
	stylesheet    string
	singleCity    bool
}

func (g *globalFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.configFile, "config", "", "config file (defaults to estimator.yaml in . or ./configs)")
	fs.StringVar(&g.baseURL, "base-url", "", "prediction service base URL")
	fs.StringVar(&g.renderer, "renderer", "", "output renderer: text, html or json")
	fs.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&g.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address")
	fs.StringVar(&g.templatesDir, "templates-dir", "", "directory with templates/page.tmpl replacing the HTML templates")
	fs.StringVar(&g.stylesheet, "stylesheet", "", "CSS file inlined into HTML output")
	fs.BoolVar(&g.singleCity, "single-city", false, "disable city scoping")
}

func (g *globalFlags) configOptions() []config.Option {
	opts := []config.Option{config.WithFile(g.configFile)}
	overrides := map[string]string{
		"service.base_url":     g.baseURL,
		"output.renderer":      g.renderer,
		"logging.level":        g.logLevel,
		"metrics.listen":       g.metricsListen,
		"output.templates_dir": g.templatesDir,
		"output.stylesheet":    g.stylesheet,
	}
	for key, value := range overrides {
		if value != "" {
			opts = append(opts, config.WithOverride(key, value))
		}
	}
	if g.singleCity {
		opts = append(opts, config.WithOverride("form.city_scoping", false))
	}
	return opts
}

func usage(fs *flag.FlagSet, out io.Writer) func() {
	return func() {
		fmt.Fprintf(out, "Usage:\n  estimator [flags]                      interactive estimate\n  estimator predict -input file.yaml [-set field=value]... [flags]\n  estimator contract                     print the service OpenAPI document\n\nFlags:\n")
		fs.SetOutput(out)
		fs.PrintDefaults()
	}
}

// fieldSet collects repeated -set field=value flags.
type fieldSet map[model.FieldName]string

func (f fieldSet) String() string {
	pairs := make([]string, 0, len(f))
	for name, value := range f {
		pairs = append(pairs, string(name)+"="+value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (f fieldSet) Set(raw string) error {
	key, value, ok := strings.Cut(raw, "=")
	if !ok {
		return fmt.Errorf("want field=value, got %q", raw)
	}
	name, ok := model.ParseFieldName(key)
	if !ok {
		return fmt.Errorf("unknown field %q", key)
	}
	f[name] = strings.TrimSpace(value)
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	command := "interactive"
	if len(args) > 0 {
		switch args[0] {
		case "predict", "interactive", "contract":
			command, args = args[0], args[1:]
		}
	}
	if command == "contract" {
		_, err := stdout.Write(contract.Document())
		return err
	}

	var g globalFlags
	fs := flag.NewFlagSet("estimator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs, stderr)
	g.register(fs)
	inputFile := fs.String("input", "", "YAML or JSON file with the property details (predict)")
	outputFile := fs.String("output", "", "output file (stdout if empty) (predict)")
	sets := fieldSet{}
	fs.Var(sets, "set", "field=value, overrides the input file; repeatable (predict)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(g.configOptions()...)
	if err != nil {
		return err
	}

	var appOpts []estimator.Option
	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		appOpts = append(appOpts, estimator.WithPrometheusRegisterer(reg))

		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.Metrics.Listen, reg); err != nil {
				fmt.Fprintf(stderr, "estimator: metrics listener: %v\n", err)
			}
		}()
	}

	app, err := estimator.New(ctx, *cfg, appOpts...)
	if err != nil {
		return err
	}
	defer closeInto(&err, app)

	switch command {
	case "predict":
		return predict(ctx, app, *inputFile, sets, *outputFile, stdout)
	default:
		return interactive(ctx, app, stdout)
	}
}

// closeInto closes c and reports its error through errp unless an earlier
// error is already set.
func closeInto(errp *error, c io.Closer) {
	if closeErr := c.Close(); closeErr != nil && *errp == nil {
		*errp = fmt.Errorf("close: %w", closeErr)
	}
}

func interactive(ctx context.Context, app *estimator.App, stdout io.Writer) error {
	if err := app.Init(ctx); err != nil {
		app.Logger.Debug("continuing without reference data", map[string]any{"error": err})
	}
	session, err := tui.NewSession(app.Orchestrator, tui.WithLogger(app.Logger))
	if err != nil {
		return err
	}
	err = session.Run(ctx)
	if errors.Is(err, tui.ErrAborted) {
		err = nil
	}
	if err == nil {
		if res, ok := app.LastResult(); ok {
			fmt.Fprintf(stdout, "Last estimate: %s (%s)\n", res.PriceFormatted, res.PricePerSqftFormatted)
		}
	}
	return err
}

func predict(ctx context.Context, app *estimator.App, inputFile string, sets fieldSet, outputFile string, stdout io.Writer) error {
	if inputFile == "" && len(sets) == 0 {
		return errors.New("predict: -input or -set is required")
	}
	values := map[model.FieldName]string{}
	if inputFile != "" {
		input, err := readInput(inputFile)
		if err != nil {
			return err
		}
		values = estimator.InputValues(input, app.Config.Form.CityScoping)
	}
	for name, value := range sets {
		values[name] = value
	}

	if err := app.Init(ctx); err != nil {
		return renderTo(ctx, app, render.RenderOptions{}, outputFile, stdout, err)
	}

	state, err := app.EstimateValues(ctx, values)
	fieldErrs := render.FieldErrors(err)
	switch {
	case fieldErrs != nil:
		err = errPredictionFailed
	case err != nil:
		return err
	case state.Kind() == model.ViewError:
		err = errPredictionFailed
	}
	return renderTo(ctx, app, render.RenderOptions{FieldErrors: fieldErrs}, outputFile, stdout, err)
}

// renderTo writes the current frame and then returns cause.
func renderTo(ctx context.Context, app *estimator.App, opts render.RenderOptions, outputFile string, stdout io.Writer, cause error) error {
	out, err := app.Render(ctx, "", opts)
	if err != nil {
		return err
	}
	if outputFile == "" {
		if _, err := stdout.Write(out); err != nil {
			return err
		}
	} else if err := os.WriteFile(outputFile, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return cause
}

func readInput(path string) (model.FormInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormInput{}, fmt.Errorf("read input: %w", err)
	}
	var in model.FormInput
	if err := yaml.Unmarshal(data, &in); err != nil {
		return model.FormInput{}, fmt.Errorf("parse input %s: %w", path, err)
	}
	return in, nil
}
