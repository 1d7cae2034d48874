package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/incidentstack/incident-resolve/internal/api"
	"github.com/incidentstack/incident-resolve/internal/config"
	"github.com/incidentstack/incident-resolve/internal/engine"
	"github.com/incidentstack/incident-resolve/internal/metrics"
	"github.com/incidentstack/incident-resolve/internal/models"
	"github.com/incidentstack/incident-resolve/internal/repo"
	"github.com/incidentstack/incident-resolve/internal/services"
	"github.com/incidentstack/incident-resolve/internal/utils"
	"github.com/incidentstack/incident-resolve/internal/validate"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting incident-resolve", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	inference := repo.NewInferenceClient(
		cfg.Inference.Endpoint,
		cfg.Inference.APIKey,
		cfg.Inference.Model,
		cfg.Inference.Timeout,
	)

	index, err := repo.NewIncidentIndex(
		cfg.Weaviate.Endpoint,
		cfg.Weaviate.APIKey,
		cfg.Weaviate.Class,
		cfg.Weaviate.Dimension,
	)
	if err != nil {
		logger.Error("failed to create weaviate client", slog.Any("error", err))
		os.Exit(1)
	}

	embedder := engine.NewDeterministicEmbedder(cfg.Weaviate.Dimension)
	analyzer := engine.NewAnalyzer(logger, inference, embedder, cfg.Inference.Model, cfg.Inference.AnalysisMaxTokens, cfg.Inference.Temperature)
	synthesizer := engine.NewSynthesizer(logger, inference, cfg.Inference.Model, cfg.Inference.MaxTokens, cfg.Inference.Temperature)

	pipeline := engine.NewPipeline(
		logger,
		validate.New(),
		analyzer,
		synthesizer,
		index,
		models.ConfigSnapshot{
			SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
			TopKSimilar:         cfg.Pipeline.TopKSimilar,
			MaxTokens:           cfg.Inference.MaxTokens,
			ModelID:             cfg.Inference.Model,
		},
	)

	resolveService := services.NewResolveService(logger, pipeline)
	handlers := api.NewHandlers(logger, resolveService, cfg.Pipeline.RequestTimeout)
	server := api.NewServer(cfg.Server, logger, handlers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("incident-resolve stopped")
}
