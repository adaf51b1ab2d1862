package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. ESTIMATOR_SERVICE_BASE_URL.
const EnvPrefix = "ESTIMATOR"

// Defaults applied before any file or environment source.
const (
	DefaultBaseURL  = "http://localhost:5001"
	DefaultTimeout  = 30 * time.Second
	DefaultRenderer = "text"
)

// Config is the full runtime configuration.
type Config struct {
	Service ServiceConfig `mapstructure:"service"`
	Form    FormConfig    `mapstructure:"form"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Output  OutputConfig  `mapstructure:"output"`
}

type ServiceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	StrictContract bool          `mapstructure:"strict_contract"`
}

type FormConfig struct {
	CityScoping bool `mapstructure:"city_scoping"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig enables the Prometheus listener when Listen is non-empty.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// OutputConfig selects the default renderer. TemplatesDir and Stylesheet
// replace the embedded HTML templates and the inlined stylesheet file.
type OutputConfig struct {
	Renderer     string `mapstructure:"renderer"`
	TemplatesDir string `mapstructure:"templates_dir"`
	Stylesheet   string `mapstructure:"stylesheet"`
}

// Option tweaks how Load discovers sources.
type Option func(*loader)

type loader struct {
	file      string
	paths     []string
	envFiles  []string
	overrides map[string]any
}

// WithFile reads an explicit config file instead of searching for estimator.yaml.
func WithFile(path string) Option {
	return func(l *loader) {
		if path != "" {
			l.file = path
		}
	}
}

// WithSearchPaths replaces the directories searched for estimator.yaml.
func WithSearchPaths(paths ...string) Option {
	return func(l *loader) {
		if len(paths) > 0 {
			l.paths = paths
		}
	}
}

// WithEnvFiles replaces the dotenv files loaded before reading the environment.
// Missing files are ignored.
func WithEnvFiles(files ...string) Option {
	return func(l *loader) {
		l.envFiles = files
	}
}

// WithOverride sets a key with the highest precedence, typically from a CLI flag.
func WithOverride(key string, value any) Option {
	return func(l *loader) {
		if l.overrides == nil {
			l.overrides = make(map[string]any)
		}
		l.overrides[key] = value
	}
}

// Load resolves configuration from defaults, estimator.yaml, .env, the
// environment and overrides, in increasing precedence.
func Load(options ...Option) (*Config, error) {
	l := &loader{
		paths:    []string{".", "./configs"},
		envFiles: []string{".env"},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}

	for _, file := range l.envFiles {
		// godotenv never overwrites variables already present in the process.
		_ = godotenv.Load(file)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if l.file != "" {
		v.SetConfigFile(l.file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", l.file, err)
		}
	} else {
		v.SetConfigName("estimator")
		v.SetConfigType("yaml")
		for _, p := range l.paths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	for key, value := range l.overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.base_url", DefaultBaseURL)
	v.SetDefault("service.timeout", DefaultTimeout)
	v.SetDefault("service.strict_contract", false)
	v.SetDefault("form.city_scoping", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("metrics.listen", "")
	v.SetDefault("output.renderer", DefaultRenderer)
	v.SetDefault("output.templates_dir", "")
	v.SetDefault("output.stylesheet", "")
}

// Validate checks the values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil config")
	}
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: service.base_url %q is not an absolute URL", c.Service.BaseURL)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("config: service.timeout must be positive, got %s", c.Service.Timeout)
	}
	return nil
}
