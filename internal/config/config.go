// Package config provides functionality for managing configuration options
// for the reference server and the client using command-line flags,
// environment variables and optional files.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

// Options holds the configuration values for the reference server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the Postgres connection string. Empty selects the
	// in-memory store.
	DatabaseDSN string `json:"database_dsn"`

	// JWTSecret signs bearer tokens.
	JWTSecret string `json:"jwt_secret"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `json:"-"`

	// ImageDir is where uploaded images are stored.
	ImageDir string `json:"image_dir"`

	// AdminEmail and AdminPassword seed the first administrator.
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Parse parses args (without the program name) and the environment into
// Options. Precedence, lowest first: defaults, flags, the JSON config file,
// environment variables.
func Parse(args []string) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.JWTSecret, "jwt-secret", "change-me", "secret used to sign tokens")
	fs.DurationVar(&options.TokenTTL, "token-ttl", 12*time.Hour, "lifetime of issued tokens")
	fs.StringVar(&options.ImageDir, "images", "images", "directory for uploaded images")
	fs.StringVar(&options.AdminEmail, "admin-email", "admin@bugboard.local", "e-mail of the seeded administrator")
	fs.StringVar(&options.AdminPassword, "admin-password", "admin", "password of the seeded administrator")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		options.JWTSecret = secret
	}

	return options, nil
}
