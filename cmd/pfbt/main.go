package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"pfbt/internal/cache"
	"pfbt/internal/cli"
	"pfbt/internal/core"
	apphttp "pfbt/internal/http"
	"pfbt/internal/identity"
	applog "pfbt/internal/log"
	"pfbt/internal/middleware/security"
	"pfbt/internal/services"
)

func main() {
	cli.LoadEnvFile()

	// Bootstrap at info until the configured level is known.
	logger := cli.SetupLogger(applog.DefaultConfig().Level, applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger.Logger)
	logger = cli.SetupLogger(cfg.SlogLevel(), applog.ComponentApp)

	be := cli.InitBackend(context.Background(), logger.Logger, cfg)
	logger.Info("Initialized backend", "backend", cfg.DataBackend, "amqp", be.Publisher != nil)

	notifier := services.ContextNotifier{Logger: logger.Logger}
	txs := services.NewTransactionService(be.Store, notifier, be.Publisher)

	categoryCache := cache.NewCategoryGateway(be.Store, cache.DefaultCategoryCacheSize, cache.DefaultCategoryCacheTTL)
	caches := cache.NewManager()
	caches.Register(categoryCache.Cache())
	caches.StartCleanup(time.Minute)
	cats := services.NewCategoryRegistry(categoryCache, notifier, be.Publisher)

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Error("Invalid trusted proxy", applog.FieldError, err)
			os.Exit(1)
		}
	}

	var provider identity.Chain
	if cfg.AuthUserHeader != "" {
		provider = append(provider, identity.HeaderProvider{
			UserHeader:  cfg.AuthUserHeader,
			EmailHeader: cfg.AuthEmailHeader,
			NameHeader:  cfg.AuthNameHeader,
			TrustedPeer: detector.IsTrustedPeer,
		})
	}
	if cfg.DevUserID != "" {
		logger.Warn("Falling back to a static development user", applog.FieldUserID, cfg.DevUserID)
		provider = append(provider, identity.StaticProvider{Actor: core.Actor{UserID: cfg.DevUserID}})
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:       txs,
		Categories:         cats,
		Activity:           be.Store,
		Pinger:             be.Store,
		Identity:           provider,
		Logger:             logger,
		Detector:           detector,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger.Logger, cfg.ShutdownTimeout, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
		if err := be.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	})

	logger.Info("Starting pfbt server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		_ = be.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
