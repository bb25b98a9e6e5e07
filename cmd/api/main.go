// Package main is the entry point for the Matcha discovery API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/matcha-app/matcha/internal/api"
	"github.com/matcha-app/matcha/internal/cache"
	"github.com/matcha-app/matcha/internal/config"
	"github.com/matcha-app/matcha/internal/db"
	"github.com/matcha-app/matcha/internal/discovery"
	"github.com/matcha-app/matcha/internal/fame"
	"github.com/matcha-app/matcha/internal/health"
	"github.com/matcha-app/matcha/internal/jobs"
	"github.com/matcha-app/matcha/internal/middleware"
	"github.com/matcha-app/matcha/internal/profile"
	"github.com/matcha-app/matcha/internal/ranking"
	"github.com/matcha-app/matcha/internal/relation"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if *help {
		fmt.Println("Matcha Discovery API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	fameCache := cache.New(redisClient, cache.DefaultTTL, logger)
	if err := fameCache.Ping(ctx); err != nil {
		// Redis is advisory; the cache degrades to storage reads
		logger.Warn("redis unreachable at startup", "error", err)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(registry); err != nil {
		logger.Error("failed to register job metrics", "error", err)
		os.Exit(1)
	}
	fameMetrics := fame.NewMetrics()
	if err := fameMetrics.Register(registry); err != nil {
		logger.Error("failed to register fame metrics", "error", err)
		os.Exit(1)
	}

	// Repositories
	profiles := profile.NewPostgresRepository(pool)
	relations := relation.NewPostgresRepository(pool)
	candidates := discovery.NewPostgresCandidateRepository(pool)

	// Ranking weights, optionally calibrated from file
	weights, err := ranking.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		// LoadCalibration already fell back to defaults
		logger.Warn("using default ranking weights", "path", cfg.CalibrationPath, "error", err)
	}

	ranker := discovery.NewRanker(discovery.RankerConfig{
		Profiles:   profiles,
		Candidates: candidates,
		Weights:    weights,
		Logger:     logger,
	})

	// Fame recompute pipeline: hourly and daily sweeps share one
	// recomputer; overlap is harmless because recompute is idempotent.
	recomputer := fame.NewRecomputer(fame.RecomputerConfig{
		Logger:      logger,
		Metrics:     fameMetrics,
		Concurrency: cfg.RecomputeConcurrency,
		Cache:       fameCache,
	}, fame.NewPostgresSignalSource(pool), fame.NewPostgresRatingStore(pool))

	hourlyJob := fame.NewRecomputeJob(fame.RecomputeJobConfig{
		Name:       jobs.JobTypeFameRecomputeHourly,
		Interval:   cfg.RecomputeInterval,
		Logger:     logger,
		JobMetrics: jobMetrics,
	}, recomputer)
	dailyJob := fame.NewRecomputeJob(fame.RecomputeJobConfig{
		Name:       jobs.JobTypeFameRecomputeDaily,
		Interval:   cfg.DailyRecomputeInterval,
		Logger:     logger,
		JobMetrics: jobMetrics,
	}, recomputer)

	if err := hourlyJob.Start(ctx); err != nil {
		logger.Error("failed to start hourly recompute job", "error", err)
		os.Exit(1)
	}
	defer hourlyJob.Stop()
	if err := dailyJob.Start(ctx); err != nil {
		logger.Error("failed to start daily recompute job", "error", err)
		os.Exit(1)
	}
	defer dailyJob.Stop()

	// Handlers
	discoveryHandlers := api.NewDiscoveryHandlers(ranker)
	relationHandlers := api.NewRelationHandlers(relations, profiles, fame.NewPostgresRatingStore(pool), fameCache)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:    health.NewDBChecker(pool),
		RedisChecker: health.NewRedisChecker(redisClient),
	})

	// Search carries its own tighter rate limit
	rateLimitStore := middleware.NewRedisRateLimitStore(redisClient)
	rateLimitStore.SetMetrics(httpMetrics)

	handler := newRouter(routerConfig{
		Logger:             logger,
		Registry:           registry,
		HTTPMetrics:        httpMetrics,
		Discovery:          discoveryHandlers,
		Relations:          relationHandlers,
		Health:             healthHandlers,
		SearchLimitStore:   rateLimitStore,
		SearchLimit:        middleware.DefaultSearchLimit(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// pprof endpoints, development only
	if !cfg.IsProduction() {
		handler = middleware.Profiling(middleware.ProfilingConfig{
			Enabled:     true,
			Environment: cfg.Env,
		})(handler)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	hourlyJob.Stop()
	dailyJob.Stop()

	logger.Info("server stopped")
}
