// Package config loads the server's configuration from environment
// variables into a single Config struct, the same `env:"X"` struct-tag
// convention the rest of the ambient stack uses for its own per-service
// Config types, with an optional .env file loaded first for local dev.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the top-level configuration for the config server process.
type Config struct {
	EnvName       string `env:"ENV_NAME"       default:"development"`
	LogLevel      string `env:"LOG_LEVEL"       default:"info"`
	ServerAddress string `env:"SERVER_ADDRESS"  default:":8888"`

	GitURI          string   `env:"GIT_URI"`
	GitLocalPath    string   `env:"GIT_LOCAL_PATH"   default:"/var/lib/vortex-config/repo"`
	GitDefaultLabel string   `env:"GIT_DEFAULT_LABEL" default:"main"`
	GitSearchPaths  []string `env:"GIT_SEARCH_PATHS"`
	GitUsername     string   `env:"GIT_USERNAME"`
	GitPassword     string   `env:"GIT_PASSWORD"`
	GitForcePull    bool     `env:"GIT_FORCE_PULL" default:"false"`
	GitCloneTimeout Duration `env:"GIT_CLONE_TIMEOUT" default:"120s"`
	GitFetchTimeout Duration `env:"GIT_FETCH_TIMEOUT" default:"30s"`

	CacheSize int      `env:"CACHE_SIZE" default:"4096"`
	CacheTTL  Duration `env:"CACHE_TTL"  default:"5m"`

	RefreshEnabled           bool     `env:"REFRESH_ENABLED"            default:"false"`
	RefreshInterval          Duration `env:"REFRESH_INTERVAL"           default:"1m"`
	RefreshMaxFailures       int      `env:"REFRESH_MAX_FAILURES"       default:"3"`
	RefreshBackoffMultiplier float64  `env:"REFRESH_BACKOFF_MULTIPLIER" default:"2.0"`
	RefreshMaxBackoff        Duration `env:"REFRESH_MAX_BACKOFF"        default:"5m"`
	RefreshLabels            []string `env:"REFRESH_LABELS"`

	RedisURL string `env:"REDIS_URL"`

	PostgresDSN string `env:"POSTGRES_DSN"`

	RabbitMQURL      string `env:"RABBITMQ_URL"`
	RabbitMQExchange string `env:"RABBITMQ_EXCHANGE" default:"vortex-config.refresh"`
}

// Duration wraps time.Duration so it can be populated from an env var
// string like "30s" via the same reflection-based loader used for every
// other field kind.
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Load reads envFile (if it exists; a missing .env is not an error) and
// then populates a Config from the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := populate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// populate walks cfg's fields by reflection, setting each from its `env`
// tag's environment variable or its `default` tag when the variable is
// unset. This is the one piece of the ambient stack built on the
// standard library's reflect package rather than a third-party binder:
// no dependency in the corpus exposes the generalized,
// env-tag-to-struct-field loader the rest of the stack's libraries
// assume already exists as an internal helper.
func populate(cfg any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		envKey := field.Tag.Get("env")
		if envKey == "" {
			continue
		}

		raw, ok := os.LookupEnv(envKey)
		if !ok {
			raw = field.Tag.Get("default")
			if raw == "" {
				continue
			}
		}

		if err := setField(v.Field(i), raw); err != nil {
			return fmt.Errorf("config: field %s (env %s): %w", field.Name, envKey, err)
		}
	}

	return nil
}

func setField(f reflect.Value, raw string) error {
	switch f.Interface().(type) {
	case Duration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}

		f.Set(reflect.ValueOf(Duration(d)))

		return nil
	case []string:
		if raw == "" {
			return nil
		}

		parts := strings.Split(raw, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}

		f.Set(reflect.ValueOf(parts))

		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}

		f.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}

		f.SetInt(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}

		f.SetFloat(n)
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind())
	}

	return nil
}
