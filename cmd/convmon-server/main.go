package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/beaconlabs/convmon/internal/api"
	"github.com/beaconlabs/convmon/internal/attribution"
	"github.com/beaconlabs/convmon/internal/auth"
	"github.com/beaconlabs/convmon/internal/metrics"
	"github.com/beaconlabs/convmon/internal/prefs"
)

func main() {
	// Logger
	logger := mustBuildLogger(envOrDefault("CONVMON_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	httpPort := envOrDefault("CONVMON_HTTP_PORT", "8080")
	platform := envOrDefault("CONVMON_PLATFORM", "desktop")
	prefsPath := envOrDefault("CONVMON_PREFS_PATH", "convmon.db")
	prefsDSN := os.Getenv("CONVMON_PREFS_DSN")
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")
	apiKeyHash := os.Getenv("CONVMON_API_KEY_HASH")

	variant, err := attribution.ParseVariant(platform)
	if err != nil {
		logger.Fatal("invalid CONVMON_PLATFORM", zap.Error(err))
	}

	logger.Info("starting convmon server",
		zap.String("http_port", httpPort),
		zap.String("platform", platform),
	)

	// Prefs store — Postgres if a DSN is set, local SQLite otherwise
	var store prefs.Store
	if prefsDSN != "" {
		db, err := sql.Open("pgx", prefsDSN)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(context.Background()); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		store, err = prefs.NewPostgresStore(context.Background(), db)
		if err != nil {
			logger.Fatal("failed to init postgres prefs store", zap.Error(err))
		}
		logger.Info("postgres prefs store connected")
	} else {
		store, err = prefs.NewSQLiteStore(prefsPath)
		if err != nil {
			logger.Fatal("failed to open sqlite prefs store", zap.Error(err))
		}
		logger.Info("sqlite prefs store opened", zap.String("path", prefsPath))
	}
	defer func() { _ = store.Close() }()

	// Metrics sink — ClickHouse or LogSink fallback
	var sink metrics.Sink
	if clickhouseDSN != "" {
		chSink, err := metrics.NewClickHouseSink(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log sink",
				zap.Error(err),
			)
			sink = metrics.NewLogSink(logger)
		} else {
			sink = chSink
			logger.Info("clickhouse sink connected")
		}
	} else {
		sink = metrics.NewLogSink(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log sink")
	}
	defer sink.Close()

	// ClickHouse reader (for the ops emissions endpoint)
	var reader *metrics.Reader
	if clickhouseDSN != "" {
		reader, err = metrics.NewReader(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader connection failed", zap.Error(err))
			reader = nil
		} else {
			defer func() { _ = reader.Close() }()
			logger.Info("clickhouse reader connected")
		}
	}

	// Conversion monitor
	monitor := attribution.New(variant, attribution.Deps{
		Sink:   sink,
		Prefs:  store,
		Logger: logger,
	})
	defer monitor.Close()

	// API key auth
	var authn auth.Authenticator
	if apiKeyHash != "" {
		authn = auth.NewKeyAuthenticator([]byte(apiKeyHash))
	} else {
		authn = auth.AllowAll{}
		logger.Warn("no CONVMON_API_KEY_HASH set, ingress is unauthenticated")
	}

	// HTTP server
	deps := &api.Dependencies{
		Monitor: monitor,
		Prefs:   store,
		Sink:    sink,
		Reader:  reader,
		Auth:    authn,
		Logger:  logger,
	}
	httpServer := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("convmon server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
