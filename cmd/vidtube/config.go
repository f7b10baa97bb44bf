package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/vidtube/internal/logger"
)

const (
	defaultListenAddr       = "localhost:8000"
	defaultLoggingLevel     = logger.LevelInfo
	defaultEnvironment      = logger.EnvProd
	defaultAccessTTL        = 15 * time.Minute
	defaultRefreshTTL       = 10 * 24 * time.Hour
	defaultLoginMaxAttempts = 5
	defaultLoginCooldown    = 15 * time.Minute
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secrets to sign access and refresh tokens, must differ
	AccessSecret  string
	RefreshSecret string

	// Token lifetimes
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Environment (dev, prod)
	Environment string

	// Redis to throttle logins, throttling is off if empty
	RedisURL string

	// NATS to publish audit events, publishing is off if empty
	NATSURL string

	// Send auth cookies over https only
	CookieSecure bool

	// Failed logins allowed per identifier within cooldown window
	LoginMaxAttempts int
	LoginCooldown    time.Duration
}

func NewConfig() *Config {
	return &Config{
		LogLevel:         defaultLoggingLevel,
		ListenAddr:       defaultListenAddr,
		Environment:      defaultEnvironment,
		AccessTTL:        defaultAccessTTL,
		RefreshTTL:       defaultRefreshTTL,
		CookieSecure:     true,
		LoginMaxAttempts: defaultLoginMaxAttempts,
		LoginCooldown:    defaultLoginCooldown,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			*o = b
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"ACCESS_TOKEN_SECRET":  setString(&c.AccessSecret),
		"ACCESS_TOKEN_EXPIRY":  setDuration(&c.AccessTTL),
		"REFRESH_TOKEN_SECRET": setString(&c.RefreshSecret),
		"REFRESH_TOKEN_EXPIRY": setDuration(&c.RefreshTTL),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
		"REDIS_URL":            setString(&c.RedisURL),
		"NATS_URL":             setString(&c.NATSURL),
		"COOKIE_SECURE":        setBool(&c.CookieSecure),
		"LOGIN_MAX_ATTEMPTS":   setInt(&c.LoginMaxAttempts),
		"LOGIN_COOLDOWN":       setDuration(&c.LoginCooldown),
	}

	var errs []error
	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("vidtube", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Secret to sign access tokens")
	fs.DurationVar(&c.AccessTTL, "access-ttl", c.AccessTTL, "Access token lifetime")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Secret to sign refresh tokens")
	fs.DurationVar(&c.RefreshTTL, "refresh-ttl", c.RefreshTTL, "Refresh token lifetime")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.RedisURL, "redis", c.RedisURL, "Redis URL for login throttling, e.g. redis://localhost:6379/0")
	fs.StringVar(&c.NATSURL, "nats", c.NATSURL, "NATS URL for audit events, e.g. nats://localhost:4222")
	fs.BoolVar(&c.CookieSecure, "cookie-secure", c.CookieSecure, "Send auth cookies over https only")
	fs.IntVar(&c.LoginMaxAttempts, "login-max-attempts", c.LoginMaxAttempts, "Failed logins allowed within cooldown")
	fs.DurationVar(&c.LoginCooldown, "login-cooldown", c.LoginCooldown, "Failed logins counting window")

	return fs.Parse(args)
}

// Validate checks options that have no sensible default
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	if c.AccessSecret == "" {
		errs = append(errs, errors.New("access token secret is required"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("refresh token secret is required"))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}

	return errors.Join(errs...)
}

// parseDuration accepts time.ParseDuration format plus whole days, e.g. "10d"
func parseDuration(value string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid days duration %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}
