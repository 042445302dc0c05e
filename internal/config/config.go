// Package config builds the process configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once at startup and passed to every component.
type Config struct {
	Addr    string
	DBPath  string
	DocsDir string

	SecretKey      string
	Algorithm      string
	AccessTokenTTL time.Duration

	LogLevel  slog.Level
	LogFormat string

	// LoginRate is the sustained number of login attempts per second allowed
	// for one client IP; LoginBurst is the bucket size.
	LoginRate  float64
	LoginBurst int

	ShutdownTimeout time.Duration
}

var errMissingSecret = errors.New("secret key is required (set TASKBOARD_SECRET_KEY or -secret)")

// LoadDotEnv reads variables from the given files, or .env when none are
// named. Missing files are ignored and existing variables are never
// overridden.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load parses args (without the program name) into a Config. Flag defaults
// come from TASKBOARD_* environment variables.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("taskboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		cfg      Config
		logLevel string
	)
	fs.StringVar(&cfg.Addr, "addr", EnvOrDefault("TASKBOARD_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", EnvOrDefault("TASKBOARD_DB_PATH", "data/taskboard.db"), "Path to sqlite database file")
	fs.StringVar(&cfg.DocsDir, "docs", EnvOrDefault("TASKBOARD_DOCS_DIR", ""), "Directory with API documentation served under /docs")
	fs.StringVar(&cfg.SecretKey, "secret", EnvOrDefault("TASKBOARD_SECRET_KEY", ""), "HMAC key used to sign access tokens")
	fs.StringVar(&cfg.Algorithm, "algorithm", EnvOrDefault("TASKBOARD_ALGORITHM", "HS256"), "Token signing algorithm (HS256, HS384, HS512)")
	fs.DurationVar(&cfg.AccessTokenTTL, "token-ttl", envDuration("TASKBOARD_ACCESS_TOKEN_TTL", 30*time.Minute), "Access token lifetime")
	fs.StringVar(&logLevel, "log-level", EnvOrDefault("TASKBOARD_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", EnvOrDefault("TASKBOARD_LOG_FORMAT", "text"), "Log format (text, json)")
	fs.Float64Var(&cfg.LoginRate, "login-rate", envFloat("TASKBOARD_LOGIN_RATE", 1), "Login attempts per second per client")
	fs.IntVar(&cfg.LoginBurst, "login-burst", envInt("TASKBOARD_LOGIN_BURST", 5), "Login burst per client")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", envDuration("TASKBOARD_SHUTDOWN_TIMEOUT", 5*time.Second), "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	if cfg.SecretKey == "" {
		return Config{}, errMissingSecret
	}

	cfg.Algorithm = strings.ToUpper(cfg.Algorithm)
	switch cfg.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return Config{}, fmt.Errorf("unsupported algorithm %q", cfg.Algorithm)
	}

	if cfg.AccessTokenTTL <= 0 {
		return Config{}, fmt.Errorf("token ttl must be positive, got %s", cfg.AccessTokenTTL)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return Config{}, fmt.Errorf("log level: %w", err)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	if cfg.LoginRate <= 0 || cfg.LoginBurst <= 0 {
		return Config{}, errors.New("login rate and burst must be positive")
	}

	return cfg, nil
}
