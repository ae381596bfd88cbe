package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every orgtree environment variable.
const EnvPrefix = "ORGTREE"

// Config holds all orgtree configuration.
type Config struct {
	Connector ConnectorConfig
	Resolve   ResolveConfig
	Output    OutputConfig
	Cache     CacheConfig
	Metrics   MetricsConfig
	LogLevel  string
}

// ConnectorConfig holds connector-specific settings.
type ConnectorConfig struct {
	Provider    string
	Endpoint    string
	Username    string
	Password    string
	SupplyCodes []string
	DatadogOnly bool
	InputFile   string
	Timeout     time.Duration
}

// ResolveConfig holds resolution settings.
type ResolveConfig struct {
	Prefetch          bool
	LookupConcurrency int
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	File       string // empty disables the file artifact
	Stdout     bool
	WebhookURL string
}

// CacheConfig holds lookup cache settings.
type CacheConfig struct {
	RedisURL string // empty keeps the cache in memory
	TTL      time.Duration
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	PushgatewayURL string
}

// env is the flat view of the environment decoded by envconfig.
// Credentials keep their historical unprefixed names; ORGTREE_-prefixed
// variants win when both are set.
type env struct {
	Provider          string        `default:"cloudz"`
	Endpoint          string
	Username          string        `envconfig:"MCMP_USERNAME"`
	Password          string        `envconfig:"MCMP_PASSWORD"`
	SupplyCodes       []string      `split_words:"true" default:"04,05,07,11"`
	DatadogOnly       bool          `split_words:"true"`
	InputFile         string        `split_words:"true"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	OutputFile        string        `split_words:"true" default:"customer_tree.json"`
	OutputStdout      bool          `split_words:"true"`
	WebhookURL        string        `envconfig:"WEBHOOK_URL"`
	LogLevel          string        `split_words:"true" default:"info"`
	Prefetch          bool          `default:"true"`
	LookupConcurrency int           `split_words:"true" default:"4"`
	RedisURL          string        `envconfig:"REDIS_URL"`
	CacheTTL          time.Duration `split_words:"true" default:"24h"`
	PushgatewayURL    string        `envconfig:"PUSHGATEWAY_URL"`
}

// Load reads configuration from the environment after loading the given
// dotenv files (".env" when none are given). Missing dotenv files are ignored;
// variables already set in the environment are never overridden.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var e env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return Config{
		Connector: ConnectorConfig{
			Provider:    e.Provider,
			Endpoint:    e.Endpoint,
			Username:    e.Username,
			Password:    e.Password,
			SupplyCodes: trimAll(e.SupplyCodes),
			DatadogOnly: e.DatadogOnly,
			InputFile:   e.InputFile,
			Timeout:     e.HTTPTimeout,
		},
		Resolve: ResolveConfig{
			Prefetch:          e.Prefetch,
			LookupConcurrency: e.LookupConcurrency,
		},
		Output: OutputConfig{
			File:       e.OutputFile,
			Stdout:     e.OutputStdout,
			WebhookURL: e.WebhookURL,
		},
		Cache: CacheConfig{
			RedisURL: e.RedisURL,
			TTL:      e.CacheTTL,
		},
		Metrics: MetricsConfig{
			PushgatewayURL: e.PushgatewayURL,
		},
		LogLevel: e.LogLevel,
	}, nil
}

// Validate checks the configuration for errors. Returns all problems joined.
func (c Config) Validate() error {
	var errs []error

	switch c.Connector.Provider {
	case "cloudz":
		if c.Connector.Username == "" || c.Connector.Password == "" {
			errs = append(errs, errors.New("MCMP_USERNAME and MCMP_PASSWORD must be set"))
		}
	case "file":
		if c.Connector.InputFile == "" {
			errs = append(errs, errors.New("ORGTREE_INPUT_FILE is required for the file provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Connector.Provider))
	}

	if c.Resolve.LookupConcurrency < 1 {
		errs = append(errs, fmt.Errorf("lookup concurrency must be at least 1, got %d", c.Resolve.LookupConcurrency))
	}
	if c.Connector.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP timeout must be positive, got %v", c.Connector.Timeout))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache TTL must not be negative, got %v", c.Cache.TTL))
	}
	if c.Output.File == "" && !c.Output.Stdout && c.Output.WebhookURL == "" {
		errs = append(errs, errors.New("no output configured"))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

func trimAll(ss []string) []string {
	out := ss[:0:0]
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
