package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/config"
	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	appHTTP "github.com/cmlabs-hris/attendance-core-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/sensor"
	"github.com/cmlabs-hris/attendance-core-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-core-go/internal/repository/redis"
	attendanceService "github.com/cmlabs-hris/attendance-core-go/internal/service/attendance"
	locationService "github.com/cmlabs-hris/attendance-core-go/internal/service/location"
	timingService "github.com/cmlabs-hris/attendance-core-go/internal/service/timing"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-core"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := metrics.Setup(ctx, metrics.ProviderConfig{
		ServiceName:    "attendance-core",
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ExportInterval: cfg.Telemetry.ExportInterval,
	})
	if err != nil {
		return fmt.Errorf("setup metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Warn("Failed to flush metrics", "error", err)
		}
	}()
	if cfg.Telemetry.OTLPEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, metrics are not exported")
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	policyRepo := postgresql.NewOfficeTimingRepository(db)
	policyCache := timingService.NewPolicyCache()
	scheduler := cron.NewScheduler()

	var publisher timing.GenerationPublisher
	if cfg.Redis.Addr != "" {
		rdb, err := database.NewRedis(ctx, database.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()

		publisher = redis.NewGenerationPublisher(rdb)
		generationSync := timingService.NewGenerationSync(publisher, policyCache)
		cron.NewPolicyJobs(generationSync, cfg.Policy.GenerationSyncInterval).RegisterJobs(scheduler)
	} else {
		slog.Warn("REDIS_ADDR not set, office timing changes are not shared between instances")
	}

	policyService := timingService.NewPolicyService(policyRepo, policyCache, publisher)
	evaluationService := attendanceService.NewAttendanceService(policyService)

	hub := sensor.NewHub(cfg.Sampler.SubscriberBuffer)
	cron.NewSensorJobs(hub, cfg.Sampler.FastMaxCachedAge, cfg.Sampler.FastMaxCachedAge).RegisterJobs(scheduler)
	samplerConfig := locationService.Config{
		FastTimeout:          cfg.Sampler.FastTimeout,
		FastMaxCachedAge:     cfg.Sampler.FastMaxCachedAge,
		TargetAccuracyMeters: cfg.Sampler.TargetAccuracyMeters,
		MaxWait:              cfg.Sampler.MaxWait,
		MaxAllowedWait:       cfg.Sampler.MaxAllowedWait,
	}
	locService := locationService.NewLocationService(hub, hub, samplerConfig)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			LocateTimeout:  cfg.Sampler.MaxAllowedWait + 10*time.Second,
		},
		appHTTP.NewTimingHandler(policyService),
		appHTTP.NewAttendanceHandler(evaluationService),
		appHTTP.NewLocationHandler(locService),
	)

	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
