// Package config loads runtime settings from the environment.
//
// A .env file in the working directory is read first (if present) so local
// development does not need exported variables. Real environment variables
// always win over .env entries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port int

	LogLevel  string
	LogFormat string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	MongoMaxPool  uint64
	SQLitePath    string

	JWTSecret string
	TokenTTL  time.Duration

	CORSAllowedOrigins []string

	MaxUploadBytes int64
	MaxFileBytes   int64

	JobBoardBaseURL string
	JobBoardAppID   string
	JobBoardAppKey  string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// GitHubEnabled reports whether GitHub login can be offered.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var errs []error
	env := envReader{errs: &errs}

	cfg := &Config{
		Port: env.int("PORT", 8080),

		LogLevel:  env.str("LOG_LEVEL", "info"),
		LogFormat: env.str("LOG_FORMAT", "console"),

		StoreDriver:   strings.ToLower(env.str("STORE_DRIVER", DriverSQLite)),
		MongoURI:      env.str("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: env.str("MONGO_DATABASE", "devmarket"),
		MongoMaxPool:  uint64(env.int("MONGO_MAX_POOL", 100)),
		SQLitePath:    env.str("SQLITE_PATH", "data/devmarket.db"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  env.duration("TOKEN_TTL", 24*time.Hour),

		CORSAllowedOrigins: env.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		MaxUploadBytes: int64(env.int("MAX_UPLOAD_BYTES", 50<<20)),
		MaxFileBytes:   int64(env.int("MAX_FILE_BYTES", 10<<20)),

		JobBoardBaseURL: strings.TrimRight(env.str("JOBBOARD_BASE_URL", "https://api.adzuna.com/v1/api/jobs"), "/"),
		JobBoardAppID:   os.Getenv("JOBBOARD_APP_ID"),
		JobBoardAppKey:  os.Getenv("JOBBOARD_APP_KEY"),

		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/api/auth/github/callback", cfg.Port)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks combinations Load cannot check field by field.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DATABASE are required for the mongo driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of mongo, sqlite", c.StoreDriver))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be set and at least 16 characters"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.MaxFileBytes <= 0 || c.MaxUploadBytes < c.MaxFileBytes {
		errs = append(errs, errors.New("MAX_FILE_BYTES must be positive and no larger than MAX_UPLOAD_BYTES"))
	}
	if (c.GitHubClientID == "") != (c.GitHubClientSecret == "") {
		errs = append(errs, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together"))
	}

	return errors.Join(errs...)
}

// envReader collects parse failures instead of stopping at the first one,
// so a misconfigured deployment reports every bad variable at once.
type envReader struct {
	errs *[]error
}

func (e envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e envReader) int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (e envReader) list(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
