// Package main is the entry point for the jobwatch monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"jobwatch/internal/client"
	"jobwatch/internal/config"
	"jobwatch/internal/controller"
	"jobwatch/internal/controller/handlers"
	"jobwatch/internal/controller/middleware"
	"jobwatch/internal/logger"
	"jobwatch/internal/monitor"
	"jobwatch/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: jobwatch.yaml in current directory)")
	flag.Parse()

	// Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid time zone: %v", err)
	}

	logg := logger.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "jobwatch-monitor", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logg.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// Metrics; must be installed before the client and monitor create instruments
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			logg.Error("failed to shutdown metrics", "error", err)
		}
	}()

	scheduler := client.New(cfg.SchedulerURL, cfg.RequestTimeout)
	mon := monitor.New(scheduler, cfg.DefaultPageSize, logg)

	// Initial load; views answer "loading" until it settles
	go func() {
		states := mon.Refresh(ctx)
		logg.Info("initial refresh complete", "states", states)
	}()

	h := handlers.New(mon, scheduler, handlers.Options{
		MaxPageSize: cfg.MaxPageSize,
		Location:    loc,
	}, logg)
	limiter := middleware.NewRateLimiter(middleware.WithLimit(cfg.RateLimit, cfg.RateLimitBurst))

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, h, limiter, metricsHandler, logg)

	logg.Info("jobwatch monitor starting", "addr", addr, "scheduler", cfg.SchedulerURL)
	if err := srv.Run(ctx); err != nil {
		logg.Error("server stopped", "error", err)
		os.Exit(1)
	}

	logg.Info("server exited properly")
}
