package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Client holds the configuration of the tracker client.
type Client struct {
	// BaseURL is the backend root, e.g. http://localhost:8080/api.
	BaseURL string
	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration
	// RequestTimeout bounds a whole request; zero disables it.
	RequestTimeout time.Duration
	// CAFile is an optional PEM bundle trusted for TLS.
	CAFile string
	// LogLevel is the zap level name.
	LogLevel string
	// ImageCacheTTL is how long downloaded images stay cached.
	ImageCacheTTL time.Duration
}

// DefaultClient returns the built-in client defaults.
func DefaultClient() Client {
	return Client{
		BaseURL:        "http://localhost:8080/api",
		ConnectTimeout: 10 * time.Second,
		LogLevel:       "warn",
		ImageCacheTTL:  10 * time.Minute,
	}
}

// LoadClient returns the defaults overridden by the environment. Variables
// from envFiles (".env" when none are given) are loaded first without
// replacing variables already set; missing files are ignored.
func LoadClient(envFiles ...string) (Client, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Client{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := DefaultClient()
	var errs []error
	if v := os.Getenv("BUGBOARD_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("BUGBOARD_CA_FILE"); v != "" {
		cfg.CAFile = v
	}
	if v := os.Getenv("BUGBOARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	durationEnv("BUGBOARD_CONNECT_TIMEOUT", &cfg.ConnectTimeout, &errs)
	durationEnv("BUGBOARD_REQUEST_TIMEOUT", &cfg.RequestTimeout, &errs)
	durationEnv("BUGBOARD_IMAGE_CACHE_TTL", &cfg.ImageCacheTTL, &errs)

	if len(errs) > 0 {
		return Client{}, errors.Join(errs...)
	}
	return cfg, nil
}

func durationEnv(key string, dst *time.Duration, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return
	}
	*dst = d
}
