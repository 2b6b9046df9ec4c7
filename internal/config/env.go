// Package config defines environment configuration structs and loaders.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/tensorplex-labs/denoiser/internal/denoise"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type AppConfig struct {
	DenoiseEnvConfig
	ServerEnvConfig
	ClientEnvConfig
	RedisEnvConfig
	Environment string `env:"ENVIRONMENT, default=dev"`
}

// DenoiseEnvConfig controls the batch pipeline.
type DenoiseEnvConfig struct {
	InputDir         string  `env:"DENOISE_INPUT_DIR, default=input"`
	OutputDir        string  `env:"DENOISE_OUTPUT_DIR, default=output"`
	Iterations       int     `env:"DENOISE_ITERATIONS, default=100"`
	Magic            float64 `env:"DENOISE_MAGIC, default=0"`
	Workers          int     `env:"DENOISE_WORKERS, default=1"`
	SaveHistory      bool    `env:"DENOISE_SAVE_HISTORY, default=false"`
	ProbHistory      bool    `env:"DENOISE_PROB_HISTORY, default=false"`
	DegeneratePolicy string  `env:"DENOISE_DEGENERATE_POLICY, default=fail"`
	Significance     float64 `env:"DENOISE_SIGNIFICANCE, default=1.96"`
}

// ServerEnvConfig configures the server.
type ServerEnvConfig struct {
	Host          string `env:"SERVER_HOST, default=0.0.0.0"`
	Port          int    `env:"SERVER_PORT, default=8888"`
	BodySizeLimit int    `env:"SERVER_BODY_LIMIT, default=4194304"`
	APIToken      string `env:"SERVER_API_TOKEN"`
	MaxMatrixSize int    `env:"MAX_MATRIX_SIZE, default=2000"`
	MaxIterations int    `env:"MAX_ITERATIONS, default=10000"`
}

// ClientEnvConfig configures the client.
type ClientEnvConfig struct {
	ClientTimeout   time.Duration `env:"CLIENT_TIMEOUT, default=30s"`
	ClientRetryMax  int           `env:"CLIENT_RETRY_MAX, default=3"`
	ClientRetryWait time.Duration `env:"CLIENT_RETRY_WAIT, default=500ms"`
}

// RedisEnvConfig configures Redis connection.
type RedisEnvConfig struct {
	RedisHost     string        `env:"REDIS_HOST, default=127.0.0.1"`
	RedisPort     int           `env:"REDIS_PORT, default=6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB, default=0"`
	RedisCacheTTL time.Duration `env:"REDIS_CACHE_TTL, default=1h"`
	RedisEnabled  bool          `env:"REDIS_ENABLED, default=false"`
}

// LoadConfig reads the process environment into an AppConfig.
func LoadConfig(ctx context.Context) (*AppConfig, error) {
	return LoadConfigFrom(ctx, envconfig.OsLookuper())
}

// LoadConfigFrom is LoadConfig with an explicit source of values.
func LoadConfigFrom(ctx context.Context, lookuper envconfig.Lookuper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("%w: DENOISE_ITERATIONS must be >= 0, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: DENOISE_WORKERS must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if _, err := denoise.ParseDegeneratePolicy(c.DegeneratePolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MaxMatrixSize < 1 {
		return fmt.Errorf("%w: MAX_MATRIX_SIZE must be >= 1, got %d", ErrInvalidConfig, c.MaxMatrixSize)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: MAX_ITERATIONS must be >= 1, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.Iterations > c.MaxIterations {
		return fmt.Errorf("%w: DENOISE_ITERATIONS %d exceeds MAX_ITERATIONS %d", ErrInvalidConfig, c.Iterations, c.MaxIterations)
	}
	if c.ClientRetryMax < 0 {
		return fmt.Errorf("%w: CLIENT_RETRY_MAX must be >= 0, got %d", ErrInvalidConfig, c.ClientRetryMax)
	}
	return nil
}

// Policy returns the parsed degenerate-node policy. Validate must have passed.
func (c *DenoiseEnvConfig) Policy() denoise.DegeneratePolicy {
	p, err := denoise.ParseDegeneratePolicy(c.DegeneratePolicy)
	if err != nil {
		return denoise.DegenerateFail
	}
	return p
}

// RedisAddress is host:port for the cache connection.
func (c *RedisEnvConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
