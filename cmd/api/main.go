package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"listify/internal/genai"
	"listify/internal/http/handlers"
	"listify/internal/http/httpapi"
	"listify/internal/imaging"
	"listify/internal/infra"
	"listify/internal/infra/credentials"
	"listify/internal/infra/geoip"
	"listify/internal/middleware"
	"listify/internal/parser"
	"listify/internal/pipeline"
	"listify/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Credential store: Postgres when configured, process memory otherwise.
	var creds credentials.Store
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		creds = credentials.NewSQLStore(infra.NewSQLRunner(dbpool, logger))
		logger.Info().Msg("credential store: postgres")
	} else {
		creds = credentials.NewMemoryStore(cfg.GeminiAPIKey)
		logger.Info().Msg("credential store: in-memory")
	}

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize asset storage")
	}

	client, err := genai.NewClient(genai.Options{
		Credentials:   creds,
		BaseURL:       cfg.GeminiBaseURL,
		ContentModels: cfg.ContentModels,
		ImageModel:    cfg.ImageModel,
		Logger:        &logger,
		CallTimeout:   cfg.CallTimeout,
		ValidateContent: func(raw string) error {
			_, err := parser.Parse(raw)
			return err
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generation client")
	}

	coordinator := pipeline.NewCoordinator(client, store, &logger)
	fetcher := imaging.NewFetcher(nil)
	runner := pipeline.NewRunner(client, coordinator, fetcher, cfg.MaxImageDim, &logger)

	// GeoIP is optional; without it locale detection uses headers alone.
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(runner, store, creds, &logger)
	router := httpapi.NewRouter(cfg, app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
