package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/ondrasimku/coursework-files/internal/domain"
)

type Config struct {
	HTTPAddr      string   `env:"UPLOAD_HTTP_ADDR" envDefault:":8080"`
	StorageDir    string   `env:"UPLOAD_STORAGE_DIR" envDefault:"uploads"`
	PublicBaseURL string   `env:"UPLOAD_PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	MaxFileSize   int64    `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"10485760"`
	TokenLength   int      `env:"UPLOAD_TOKEN_LENGTH" envDefault:"8"`
	Subfolders    []string `env:"UPLOAD_SUBFOLDERS" envSeparator:","`
	Log           LogConfig
	Auth          AuthConfig
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type AuthConfig struct {
	Enabled      bool   `env:"AUTH_ENABLED" envDefault:"true"`
	JWKSUrl      string `env:"AUTH_JWKS_URL" envDefault:"http://user-service:3000/.well-known/jwks.json"`
	Issuer       string `env:"AUTH_ISSUER" envDefault:"http://user-service:3000"`
	Audience     string `env:"AUTH_AUDIENCE" envDefault:"coursework"`
	JWKSCacheTTL int    `env:"AUTH_JWKS_CACHE_TTL" envDefault:"900"` // seconds
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Parse()
}

// Parse builds the config from the process environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_FILE_SIZE: must be positive, got %d", cfg.MaxFileSize)
	}
	if len(cfg.Subfolders) == 0 {
		cfg.Subfolders = domain.DefaultSubfolders()
	}
	if cfg.Auth.Enabled && cfg.Auth.JWKSUrl == "" {
		return nil, errors.New("AUTH_JWKS_URL is required when auth is enabled")
	}

	return &cfg, nil
}
