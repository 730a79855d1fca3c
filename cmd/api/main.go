package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/routepulse/routepulse/internal/adapters/excel"
	"github.com/routepulse/routepulse/internal/adapters/geocode"
	"github.com/routepulse/routepulse/internal/adapters/http"
	natsadapter "github.com/routepulse/routepulse/internal/adapters/nats"
	"github.com/routepulse/routepulse/internal/adapters/valkey"
	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/core/ports"
	"github.com/routepulse/routepulse/internal/core/usecases"
	"github.com/routepulse/routepulse/internal/pkg/config"
	"github.com/routepulse/routepulse/internal/pkg/logging"
	"github.com/routepulse/routepulse/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("routepulse-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Geocoding (optional; workbook rows with plain coordinates still work
	// without it)
	var geocoder ports.Geocoder
	if cfg.Geocoding.APIKey != "" {
		var cacheSvc ports.CacheService
		if cache != nil {
			cacheSvc = cache
		}
		geocoder = geocode.New(
			cfg.Geocoding.Endpoint,
			cfg.Geocoding.APIKey,
			cfg.Geocoding.Timeout(),
			cfg.Geocoding.CacheTTLSeconds,
			cacheSvc,
		)
	} else {
		slog.Warn("geocoding disabled: no API key configured")
	}

	// Use cases
	simulator := usecases.NewSimulationService()
	analyzer := usecases.NewAnalysisService()

	maxSpeed, minMovement, stationaryGap := cfg.Thresholds()
	thresholds := domain.Thresholds{
		MaxPlausibleSpeedMps: maxSpeed,
		MinMovementMeters:    minMovement,
		StationaryGap:        stationaryGap,
	}

	deps := &http.Dependencies{
		Simulator:  simulator,
		Analyzer:   analyzer,
		Geocoder:   geocoder,
		Workbooks:  excel.NewProcessor(geocoder),
		Cache:      cache,
		Thresholds: thresholds,
	}
	if publisher != nil {
		deps.Events = publisher
		deps.NATS = publisher.Conn()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    16 * 1024 * 1024, // workbook uploads arrive base64-encoded
		AppName:      "RoutePulse API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
