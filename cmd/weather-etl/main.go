package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/phuslu/log"

	httpapi "github.com/i474232898/weather-etl/internal/api/http"
	"github.com/i474232898/weather-etl/internal/common"
	"github.com/i474232898/weather-etl/internal/config"
	"github.com/i474232898/weather-etl/internal/scheduler"
	"github.com/i474232898/weather-etl/internal/store"
	"github.com/i474232898/weather-etl/internal/warehouse"
	"github.com/i474232898/weather-etl/internal/weather"
	"github.com/i474232898/weather-etl/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	common.InitLogger(cfg.LogLevel)

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	geocoder := providers.NewOpenWeatherGeocoder(httpClient, cfg.OpenWeatherAPIKey, cfg.GeocoderURL)
	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.WeatherURL, cfg.Units)

	connect := func(ctx context.Context) (weather.Sink, error) {
		db, err := warehouse.Open(ctx, cfg.Warehouse)
		if err != nil {
			return nil, err
		}
		return warehouse.NewLoader(db, cfg.Warehouse.Table), nil
	}

	pipeline := weather.NewPipeline(cfg.Cities, geocoder, provider, connect)

	if cfg.Schedule == "" {
		runOnce(pipeline)
		return
	}
	serve(cfg, pipeline)
}

func runOnce(pipeline *weather.Pipeline) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("run_id", report.RunID).Msg("etl run failed")
	}
	log.Info().
		Str("run_id", report.RunID).
		Int("rows", report.Loaded).
		Int("errors", len(report.Errors)).
		Msg("Done!")
}

func serve(cfg *config.AppConfig, pipeline *weather.Pipeline) {
	// In-memory run history with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	sched := scheduler.New(cfg.Schedule, 0, pipeline, memStore)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-etl",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-etl",
		})
	})

	httpapi.RegisterRoutes(app, memStore)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
