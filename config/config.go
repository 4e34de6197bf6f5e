// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMissing is returned when a required setting is absent.
	ErrMissing = errors.New("config: missing required setting")

	// ErrInvalid is returned when a setting cannot be parsed or is out of range.
	ErrInvalid = errors.New("config: invalid setting")
)

var validate = validator.New()

// maxTTLSeconds is the largest TTL a time.Duration can hold.
const maxTTLSeconds = math.MaxInt64 / int64(time.Second)

// Config holds the settings shared by every entrypoint.
type Config struct {
	TableName  string `env:"TABLE_NAME" validate:"required"`
	PrimaryKey string `env:"PRIMARY_KEY" validate:"required"`

	CacheName  string        `env:"CACHE_NAME" validate:"required"`
	DefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL" validate:"gt=0"`

	Driver    string `env:"CACHE_DRIVER" validate:"oneof=redis nats memory ristretto"`
	Endpoint  string `env:"CACHE_ENDPOINT"`
	AuthToken string `env:"CACHE_AUTH_TOKEN"`
	Bucket    string `env:"CACHE_BUCKET"`

	LookupTimeout   time.Duration `env:"CACHE_LOOKUP_TIMEOUT" validate:"gt=0"`
	BreakerFailures uint32        `env:"CACHE_BREAKER_FAILURES" validate:"gt=0"`
	BreakerCooldown time.Duration `env:"CACHE_BREAKER_COOLDOWN" validate:"gt=0"`
}

// Default returns the configuration used when no overrides are set. TableName,
// PrimaryKey and the cache credentials have no defaults.
func Default() Config {
	return Config{
		CacheName:       "default",
		DefaultTTL:      86400 * time.Second,
		Driver:          "redis",
		LookupTimeout:   50 * time.Millisecond,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// FromEnv loads configuration from the process environment.
func FromEnv() (*Config, error) {
	return Load(os.Getenv)
}

// Load reads configuration through getenv and validates it. Unset variables
// keep their defaults.
func Load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	setString(getenv, "TABLE_NAME", &cfg.TableName)
	setString(getenv, "PRIMARY_KEY", &cfg.PrimaryKey)
	setString(getenv, "CACHE_NAME", &cfg.CacheName)
	setString(getenv, "CACHE_DRIVER", &cfg.Driver)
	setString(getenv, "CACHE_ENDPOINT", &cfg.Endpoint)
	setString(getenv, "CACHE_AUTH_TOKEN", &cfg.AuthToken)
	setString(getenv, "CACHE_BUCKET", &cfg.Bucket)

	var errs []error
	if v := strings.TrimSpace(getenv("CACHE_DEFAULT_TTL")); v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%w: CACHE_DEFAULT_TTL=%q is not a number of seconds", ErrInvalid, v))
		case secs > maxTTLSeconds || secs < -maxTTLSeconds:
			errs = append(errs, fmt.Errorf("%w: CACHE_DEFAULT_TTL=%q is out of range", ErrInvalid, v))
		default:
			cfg.DefaultTTL = time.Duration(secs) * time.Second
		}
	}
	if err := setDuration(getenv, "CACHE_LOOKUP_TIMEOUT", &cfg.LookupTimeout); err != nil {
		errs = append(errs, err)
	}
	if err := setDuration(getenv, "CACHE_BREAKER_COOLDOWN", &cfg.BreakerCooldown); err != nil {
		errs = append(errs, err)
	}
	if v := strings.TrimSpace(getenv("CACHE_BREAKER_FAILURES")); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: CACHE_BREAKER_FAILURES=%q", ErrInvalid, v))
		}
		cfg.BreakerFailures = uint32(n)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and the driver-dependent settings.
func (c *Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fieldError(fe))
		}
	}

	if c.RemoteCache() {
		if c.Endpoint == "" {
			errs = append(errs, fmt.Errorf("%w: CACHE_ENDPOINT (driver %s)", ErrMissing, c.Driver))
		}
		if c.AuthToken == "" {
			errs = append(errs, fmt.Errorf("%w: CACHE_AUTH_TOKEN (driver %s)", ErrMissing, c.Driver))
		}
	}
	return errors.Join(errs...)
}

// RemoteCache reports whether the driver talks to a cache over the network.
func (c *Config) RemoteCache() bool {
	return c.Driver == "redis" || c.Driver == "nats"
}

func fieldError(fe validator.FieldError) error {
	name := fe.StructField()
	if f, ok := reflect.TypeOf(Config{}).FieldByName(name); ok {
		name = f.Tag.Get("env")
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s", ErrMissing, name)
	case "oneof":
		return fmt.Errorf("%w: %s=%v must be one of: %s", ErrInvalid, name, fe.Value(), fe.Param())
	default:
		return fmt.Errorf("%w: %s=%v failed %s", ErrInvalid, name, fe.Value(), fe.Tag())
	}
}

func setString(getenv func(string) string, name string, dst *string) {
	if v := strings.TrimSpace(getenv(name)); v != "" {
		*dst = v
	}
}

func setDuration(getenv func(string) string, name string, dst *time.Duration) error {
	v := strings.TrimSpace(getenv(name))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a duration", ErrInvalid, name, v)
	}
	*dst = d
	return nil
}
