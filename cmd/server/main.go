package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zombar/wordwise/internal/analyzer"
	"github.com/zombar/wordwise/internal/api"
	"github.com/zombar/wordwise/internal/assist"
	"github.com/zombar/wordwise/internal/auth"
	"github.com/zombar/wordwise/internal/config"
	"github.com/zombar/wordwise/internal/database"
	"github.com/zombar/wordwise/internal/emotion"
	"github.com/zombar/wordwise/internal/languagetool"
	"github.com/zombar/wordwise/internal/metrics"
	"github.com/zombar/wordwise/internal/ollama"
	"github.com/zombar/wordwise/internal/queue"
	"github.com/zombar/wordwise/internal/syntax"
	"github.com/zombar/wordwise/internal/tracing"
	"github.com/zombar/wordwise/pkg/logging"
)

const serviceName = "wordwise"

func main() {
	configPath := flag.String("config", "", "TOML config file (env: WORDWISE_CONFIG)")
	port := flag.String("port", "", "Server port, overrides config (env: PORT)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("wordwise service initializing", "version", "1.0.0")

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.Tracing.Endpoint)
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Error("error shutting down tracer", "error", err)
				}
			}()
			logger.Info("tracing initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	// Initialize database
	db, err := database.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to initialize database", "error", err, "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	reg, m := newRegistry()
	if err := m.RegisterDBStats(db.Conn(), cfg.Database.Driver); err != nil {
		logger.Warn("failed to register database metrics", "error", err)
	}

	textAnalyzer := analyzer.New(buildAnalyzerOptions(ctx, cfg, logger, m)...)
	logger.Info("analyzer initialized", "available", textAnalyzer.Available(), "parallel", cfg.Analyzer.Parallel)

	ollamaClient, err := ollama.New(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.VisionModel)
	if err != nil {
		logger.Error("failed to initialize Ollama client", "error", err, "ollama_url", cfg.Ollama.URL)
		os.Exit(1)
	}
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := ollamaClient.Ping(pingCtx); err != nil {
		logger.Warn("Ollama not reachable, assist requests will fail until it is", "error", err, "ollama_url", cfg.Ollama.URL)
	} else {
		logger.Info("Ollama client initialized", "model", cfg.Ollama.Model, "url", cfg.Ollama.URL)
	}
	cancelPing()
	assistService := assist.New(ollamaClient, logger, m)

	issuer, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL.Duration)
	if err != nil {
		logger.Error("failed to initialize token issuer", "error", err)
		os.Exit(1)
	}

	handlerCfg := api.Config{
		DB:       db,
		Analyzer: textAnalyzer,
		Assist:   assistService,
		Issuer:   issuer,
		Gatherer: reg,
		Logger:   logger,
	}

	var worker *queue.Worker
	if cfg.Queue.RedisAddr != "" {
		queueClient := queue.NewClient(queue.ClientConfig{RedisAddr: cfg.Queue.RedisAddr})
		defer queueClient.Close()
		handlerCfg.Queue = queueClient

		worker = queue.NewWorker(queue.WorkerConfig{
			RedisAddr:   cfg.Queue.RedisAddr,
			Concurrency: cfg.Queue.Concurrency,
		}, db, assistService, m, logger)
		if err := worker.Start(); err != nil {
			logger.Error("failed to start queue worker", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("REDIS_ADDR not set, background jobs disabled")
	}

	// Wrap handler with middleware chain: recovery -> HTTP logging -> tracing -> handlers
	handler := logging.RecoveryMiddleware(logger)(
		logging.HTTPLoggingMiddleware(logger)(
			tracing.HTTPMiddleware(serviceName)(api.NewHandler(handlerCfg)),
		),
	)

	// Extended write timeout for model calls
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 420 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("wordwise service starting",
			"port", cfg.Server.Port,
			"database_driver", cfg.Database.Driver,
			"ollama_url", cfg.Ollama.URL,
			"ollama_model", cfg.Ollama.Model,
			"queue_enabled", worker != nil,
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if worker != nil {
		worker.Shutdown()
	}

	logger.Info("server stopped")
}

// newRegistry builds the registry served on /metrics, with runtime collectors
func newRegistry() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.New(serviceName, reg)
}

// buildAnalyzerOptions wires the optional analyzer backends. A backend that
// cannot be reached is left out and its analyzer is skipped.
func buildAnalyzerOptions(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) []analyzer.Option {
	opts := []analyzer.Option{
		analyzer.WithSentenceParser(syntax.New()),
		analyzer.WithParallel(cfg.Analyzer.Parallel),
		analyzer.WithLogger(logger),
		analyzer.WithMetrics(m),
	}

	ltCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if lt, err := languagetool.New(ltCtx, cfg.Grammar.URL, cfg.Grammar.Language); err != nil {
		logger.Warn("LanguageTool unavailable, grammar checks disabled", "error", err, "url", cfg.Grammar.URL)
	} else {
		opts = append(opts, analyzer.WithGrammarChecker(lt))
	}

	switch cfg.Emotion.Backend {
	case "hf":
		hf, err := emotion.NewHFClient(cfg.Emotion.URL, cfg.Emotion.Token)
		if err != nil {
			logger.Warn("emotion classifier unavailable, tone analysis disabled", "error", err)
			break
		}
		opts = append(opts, analyzer.WithEmotionClassifier(hf))
	case "lexicon":
		opts = append(opts, analyzer.WithEmotionClassifier(emotion.NewLexicon()))
	}

	return opts
}
