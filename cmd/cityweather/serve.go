package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/i474232898/cityweather/internal/api/http"
	"github.com/i474232898/cityweather/internal/cities"
	"github.com/i474232898/cityweather/internal/config"
	"github.com/i474232898/cityweather/internal/scheduler"
	"github.com/i474232898/cityweather/internal/store"
	"github.com/i474232898/cityweather/internal/weather"
	"github.com/i474232898/cityweather/internal/weather/providers"
)

const serviceName = "cityweather"

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the city list and weather lookups as JSON over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.AppConfig) error {
	log := config.NewLogger(cfg.LogLevel, os.Stderr)

	// In-memory cache shared by the page and weather lookups.
	memStore := store.NewMemoryStore(cfg.CacheTTL)

	cityFetcher := cities.NewOpenDataSoftFetcher(
		newUpstreamClient(cfg, "cities", log), cfg.CitiesBaseURL, cfg.List.IncludeTimezone)
	pages := cities.NewCachedFetcher(cityFetcher, memStore, log)

	weatherFetcher := providers.NewOpenWeatherProvider(
		newUpstreamClient(cfg, "openweather", log), cfg.WeatherBaseURL, cfg.OpenWeatherAPIKey)
	if cfg.OpenWeatherAPIKey == "" {
		log.Warn().Msg("OPENWEATHER_API_KEY is not set; weather lookups will fail")
	}
	service := weather.NewService(weatherFetcher, memStore, log)

	// Scheduler that keeps the first page and the configured cities warm.
	sched := scheduler.New(pages, cfg.List.PageSize, service, cfg.WarmCities, cfg.WarmInterval, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + cfg.FetchDelay + 5*time.Second,
		ErrorHandler:          httpapi.NewErrorHandler(log),
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	httpapi.RegisterOps(app, serviceName, memStore)
	httpapi.RegisterRoutes(app, pages, cfg.List.PageSize, service)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("variant", cfg.Variant).Msg("http server listening")
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		log.Info().Msg("shutting down http server")
		return app.ShutdownWithContext(shutdownCtx)
	})

	return g.Wait()
}
