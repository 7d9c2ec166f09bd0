// @title Creation Studio API
// @version 1.0
// @description AI 内容工具后端
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/creation-studio/config"
	"github.com/d60-Lab/creation-studio/internal/api/handler"
	"github.com/d60-Lab/creation-studio/internal/api/middleware"
	"github.com/d60-Lab/creation-studio/internal/api/router"
	"github.com/d60-Lab/creation-studio/internal/auth"
	"github.com/d60-Lab/creation-studio/internal/provider"
	"github.com/d60-Lab/creation-studio/internal/repository"
	"github.com/d60-Lab/creation-studio/internal/service"
	"github.com/d60-Lab/creation-studio/pkg/cache"
	"github.com/d60-Lab/creation-studio/pkg/database"
	"github.com/d60-Lab/creation-studio/pkg/logger"
	"github.com/d60-Lab/creation-studio/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.Init(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			SampleRate:       cfg.Sentry.SampleRate,
			AttachStacktrace: true,
		}); err != nil {
			lg.Fatal("init sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		lg.Fatal("init tracing", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		lg.Fatal("init database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		lg.Fatal("database handle", zap.Error(err))
	}

	var ledger repository.UsageLedger
	switch cfg.Usage.Backend {
	case "redis":
		rdb, err := cache.InitRedis(ctx, cfg.Redis)
		if err != nil {
			lg.Fatal("init redis", zap.Error(err))
		}
		defer rdb.Close()
		ledger = repository.NewRedisUsageLedger(rdb, cfg.Usage.KeyPrefix)
	default:
		ledger = repository.NewDBUsageLedger(db)
	}

	var verifier *auth.Verifier
	if !cfg.Auth.Disabled {
		verifier, err = auth.NewVerifier(cfg.Auth)
		if err != nil {
			lg.Fatal("init auth", zap.Error(err))
		}
		defer verifier.Close()
	} else {
		lg.Warn("authentication disabled, requests run as the local identity")
	}

	host, err := provider.NewCloudinaryHost(cfg.Providers.Cloudinary)
	if err != nil {
		lg.Fatal("init image host", zap.Error(err))
	}
	providers := service.Providers{
		Text:   provider.NewOpenAITextGenerator(cfg.Providers.TextGen),
		Images: provider.NewClipDropImageGenerator(cfg.Providers.ClipDrop, &http.Client{}),
		Host:   host,
		PDF:    provider.NewPDFTextExtractor(),
	}

	creations := service.NewCreationService(
		repository.NewCreationRepository(db),
		cfg.Timeouts.Storage,
		service.FeedRetry{MaxAttempts: cfg.Feed.MaxAttempts, InitialBackoff: cfg.Feed.InitialBackoff},
	)
	generation := service.NewGenerationService(creations, ledger, providers, cfg.Timeouts, cfg.Usage.FreeLimit)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	limiter.StartCleanup(10*time.Minute, ctx.Done())

	engine := router.Setup(router.Deps{
		Config:      cfg,
		Handler:     handler.New(creations, generation, sqlDB),
		Verifier:    verifier,
		Gate:        service.NewUsageGate(ledger, cfg.Timeouts.Ledger),
		RateLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("server listening", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Error("tracing shutdown", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		lg.Error("database close", zap.Error(err))
	}
}
