package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/denoiser/internal/cache"
	"github.com/tensorplex-labs/denoiser/internal/config"
	"github.com/tensorplex-labs/denoiser/internal/service"
	"github.com/tensorplex-labs/denoiser/internal/utils/logger"
	"github.com/tensorplex-labs/denoiser/pkg/denoiseapi"
)

const memoryCacheEntries = 256

func main() {
	logger.Init()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	store := newStore(cfg)
	defer store.Close()

	server := denoiseapi.NewServer(&denoiseapi.ServerConfig{
		Host:      cfg.Host,
		Port:      cfg.Port,
		BodyLimit: cfg.BodySizeLimit,
		APIToken:  cfg.APIToken,
	})
	denoiseapi.ServeRoute(server, service.New(service.OptionsFromConfig(cfg), store).Handler())

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down denoise server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	if err := server.Start(); err != nil {
		log.Error().Err(err).Msg("Server failed to start")
	}
}

func newStore(cfg *config.AppConfig) cache.Store {
	if !cfg.RedisEnabled {
		log.Info().Int("entries", memoryCacheEntries).Msg("Redis disabled, using in-memory result cache")
		return cache.NewMemory(memoryCacheEntries)
	}

	r, err := cache.NewRedis(&cfg.RedisEnvConfig)
	if err != nil {
		log.Warn().Err(err).Str("address", cfg.RedisAddress()).Msg("Redis unavailable, using in-memory result cache")
		return cache.NewMemory(memoryCacheEntries)
	}
	log.Info().Str("address", cfg.RedisAddress()).Dur("ttl", cfg.RedisCacheTTL).Msg("Redis result cache connected")
	return r
}
