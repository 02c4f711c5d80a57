package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/delivery-eta-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/delivery-eta-service/internal/adapter/kafka"
	"github.com/couchcryptid/delivery-eta-service/internal/adapter/model"
	"github.com/couchcryptid/delivery-eta-service/internal/config"
	"github.com/couchcryptid/delivery-eta-service/internal/domain"
	"github.com/couchcryptid/delivery-eta-service/internal/observability"
	"github.com/couchcryptid/delivery-eta-service/internal/pipeline"
	"github.com/couchcryptid/delivery-eta-service/internal/refdata"
	"github.com/couchcryptid/delivery-eta-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Reference data is read once; missing files degrade to free-text inputs.
	ref := refdata.Load(cfg.RootDir, logger)

	// Predictor: remote model server when configured, otherwise the local artifact.
	var predictor domain.Predictor
	if cfg.ModelServerURL != "" {
		predictor = model.NewClient(cfg.ModelServerURL, cfg.ModelServerTimeout, metrics, logger)
		logger.Info("using model server", "url", cfg.ModelServerURL, "timeout", cfg.ModelServerTimeout)
	} else {
		predictor = model.NewArtifactPredictor(cfg.ModelPath, logger)
		logger.Info("using model artifact", "path", cfg.ModelPath)
	}

	// Prediction events (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher pipeline.EventPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("prediction events enabled", "topic", cfg.KafkaPredictionTopic, "brokers", cfg.KafkaBrokers)
	}

	schema := domain.FeatureSchema{IncludeOrderStatus: cfg.IncludeOrderStatus}
	estimator := pipeline.New(ref, schema, predictor, publisher, logger, metrics)
	sessions := session.NewStore(cfg.SessionCacheSize, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, estimator, sessions, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start prediction event publisher.
	published := make(chan struct{})
	go func() {
		defer close(published)
		if err := estimator.Run(ctx); err != nil {
			logger.Error("publisher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	<-published
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
