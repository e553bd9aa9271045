package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facedex/internal/config"
	"github.com/kailas-cloud/facedex/internal/corpus"
	logpkg "github.com/kailas-cloud/facedex/internal/logger"
	"github.com/kailas-cloud/facedex/internal/metrics"
	analyticsrepo "github.com/kailas-cloud/facedex/internal/repository/analytics"
	leaderboardrepo "github.com/kailas-cloud/facedex/internal/repository/leaderboard"
	chiTransport "github.com/kailas-cloud/facedex/internal/transport/chi"
	openaiEnc "github.com/kailas-cloud/facedex/internal/transport/openai"
	analyticsuc "github.com/kailas-cloud/facedex/internal/usecase/analytics"
	healthuc "github.com/kailas-cloud/facedex/internal/usecase/health"
	leaderboarduc "github.com/kailas-cloud/facedex/internal/usecase/leaderboard"
	searchuc "github.com/kailas-cloud/facedex/internal/usecase/search"
	"github.com/kailas-cloud/facedex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting facedex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("corpus_path", cfg.Corpus.Path),
	)

	// Load the embedding corpus. A corrupt corpus refuses to serve.
	store, err := corpus.LoadFile(cfg.Corpus.Path, cfg.Corpus.Dimensions)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}
	if store.Skipped() > 0 {
		logger.Warn("Excluded records with malformed embeddings", zap.Int("skipped", store.Skipped()))
	}
	filterIndex := corpus.NewFilterIndex(store)
	logger.Info("Corpus loaded",
		zap.Int("entities", store.Len()),
		zap.Int("dimensions", store.Dim()),
	)

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	encoder := openaiEnc.NewEncoder(&openaiEnc.Config{
		APIKey:     cfg.Encoder.APIKey,
		BaseURL:    cfg.Encoder.BaseURL,
		Model:      cfg.Encoder.Model,
		Dimensions: cfg.Encoder.Dimensions,
		Provider:   cfg.Encoder.Provider,
		Logger:     logger,
	})

	cache, err := searchuc.NewCache(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSec)*time.Second)
	if err != nil {
		logger.Fatal("Failed to create result cache", zap.Error(err))
	}

	normalizer, err := searchuc.NewNormalizer(
		searchuc.Bounds{Lo: cfg.Score.TextLo, Hi: cfg.Score.TextHi},
		searchuc.Bounds{Lo: cfg.Score.EntityLo, Hi: cfg.Score.EntityHi},
		cfg.Score.MinPct, cfg.Score.MaxPct,
	)
	if err != nil {
		logger.Fatal("Invalid score calibration", zap.Error(err))
	}

	searchSvc := searchuc.New(store, filterIndex, encoder, cache, normalizer)

	// Persistent bookkeeping lives outside the read-only corpus dir.
	if err := os.MkdirAll(filepath.Dir(cfg.Leaderboard.DBPath), 0o750); err != nil {
		logger.Fatal("Failed to create persistent directory", zap.Error(err))
	}
	lbStore, err := leaderboardrepo.Open(cfg.Leaderboard.DBPath)
	if err != nil {
		logger.Fatal("Failed to open leaderboard store", zap.Error(err))
	}
	defer lbStore.Close()
	lbSvc := leaderboarduc.New(lbStore)

	searchLog, err := analyticsrepo.Open(cfg.Analytics.LogPath)
	if err != nil {
		logger.Fatal("Failed to open analytics log", zap.Error(err))
	}
	analyticsSvc := analyticsuc.New(searchLog)

	healthSvc := healthuc.New(store, encoder)

	server := chiTransport.NewServer(searchSvc, lbSvc, analyticsSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := analyticsSvc.Flush(); err != nil {
		logger.Error("Error flushing analytics", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
