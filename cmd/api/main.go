package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/timetracker/internal/api"
	"example.com/timetracker/internal/auth"
	"example.com/timetracker/internal/cache"
	"example.com/timetracker/internal/config"
	"example.com/timetracker/internal/ledger"
	"example.com/timetracker/internal/remote"
	httptransport "example.com/timetracker/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	var remoteStore ledger.RemoteStore
	if cfg.RemoteBaseURL == "" {
		logger.Warn("REMOTE_BASE_URL not set, using the in-process remote store")
		remoteStore = remote.NewInMemoryStore()
	} else {
		remoteStore = remote.NewClient(cfg.RemoteBaseURL,
			remote.WithLogger(logger),
			remote.WithHTTPClient(&http.Client{Timeout: cfg.RemoteTimeout}))
	}

	// The cache is advisory; a broken local database means remote-only, not a
	// failed boot.
	var cacheStore ledger.CacheStore
	if store, err := cache.Open(cfg.CachePath, cache.WithLogger(logger)); err != nil {
		logger.Warn("local cache unavailable, running remote-only",
			zap.String("path", cfg.CachePath), zap.Error(err))
	} else {
		defer store.Close()
		cacheStore = store
	}

	sessions := ledger.NewSessionManager(func() *ledger.Ledger {
		return ledger.New(remoteStore, cacheStore, ledger.WithLogger(logger))
	})

	handler := api.NewHandler(sessions)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	requestLog := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(
		auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		func(r *http.Request) bool {
			return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
		})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(requestLog(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("tracker api listening", zap.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
