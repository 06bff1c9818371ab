package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aaronds650/MovieMeV2/internal/ai"
	"github.com/aaronds650/MovieMeV2/internal/api"
	"github.com/aaronds650/MovieMeV2/internal/config"
	"github.com/aaronds650/MovieMeV2/internal/database"
	"github.com/aaronds650/MovieMeV2/internal/logging"
	"github.com/aaronds650/MovieMeV2/internal/ratelimit"
	"github.com/aaronds650/MovieMeV2/internal/recommendation"
	"github.com/aaronds650/MovieMeV2/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.NewDB(database.Config{
		Type:       cfg.Database.Type,
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Name:       cfg.Database.Name,
		SQLitePath: cfg.Database.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.Migrations {
		if _, err := database.NewMigrator(db.Conn(), db.Type()).Run(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	client := ai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	if !client.HasCredential() {
		logging.Warn().Msg("OPENAI_API_KEY not set; completion requests will fail with a configuration error")
	}
	gateway := ai.NewGateway(client, ai.Config{
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
	})

	var catalog recommendation.Catalog
	if cfg.TMDb.APIKey != "" {
		catalog = search.NewTMDbClient(search.TMDbConfig{
			APIKey:            cfg.TMDb.APIKey,
			BaseURL:           cfg.TMDb.BaseURL,
			Timeout:           cfg.TMDb.Timeout,
			RequestsPerSecond: cfg.TMDb.RequestsPerSecond,
			Burst:             cfg.TMDb.Burst,
		})
	} else {
		logging.Warn().Msg("TMDB_API_KEY not set; posters will use the placeholder")
	}

	watched := database.NewWatchedRepository(db)
	sessions := recommendation.NewService(gateway, limiter, catalog, watched, recommendation.Config{
		BatchSize:  cfg.Recommend.BatchSize,
		MaxRetries: cfg.Recommend.MaxRetries,
		SessionCap: cfg.Recommend.SessionCap,
		SessionTTL: cfg.Recommend.SessionTTL,
	})

	handlers := &api.Handlers{
		Completer:        gateway,
		Limiter:          limiter,
		Sessions:         sessions,
		Watched:          watched,
		Usage:            database.NewUsageRepository(db),
		DB:               db,
		OpenAIKeyPresent: client.HasCredential(),
		TMDbKeyPresent:   cfg.TMDb.APIKey != "",
	}

	router := api.NewRouter(handlers, api.RouterConfig{
		CORSOrigins:      cfg.Server.CORSOrigins,
		TrustForwardedIP: cfg.RateLimit.TrustForwardedIP,
		UsageLimit:       cfg.RateLimit.UsageLimit,
		UsageWindow:      cfg.RateLimit.Window,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("addr", srv.Addr).
			Str("db_type", db.Type()).
			Str("rate_limit_backend", cfg.RateLimit.Backend).
			Str("model", cfg.OpenAI.Model).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLimiter builds the recommend limiter for the configured backend.
func newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func(), error) {
	limitCfg := ratelimit.Config{
		Name:   "recommend",
		Window: cfg.RateLimit.Window,
		Max:    cfg.RateLimit.RecommendLimit,
	}

	if cfg.RateLimit.Backend != "redis" {
		return ratelimit.NewSlidingLog(limitCfg), func() {}, nil
	}

	client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	return ratelimit.NewRedisSlidingLog(client, cfg.Redis.Prefix, limitCfg), closeFn, nil
}
