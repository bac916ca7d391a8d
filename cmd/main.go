package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/markethub/review-service/internal/adapter/http"
	natsAdapter "github.com/markethub/review-service/internal/adapter/messaging/nats"
	mongoRepo "github.com/markethub/review-service/internal/adapter/repository/mongodb"

	"github.com/markethub/review-service/internal/config"
	"github.com/markethub/review-service/internal/platform/logger"
	"github.com/markethub/review-service/internal/platform/metrics"
	"github.com/markethub/review-service/internal/platform/tracer"
	"github.com/markethub/review-service/internal/usecase"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const serviceName = "review-service"

func main() {
	// Load .env file (optional, for local development)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	// 1. Initialize Logger
	appLogger := logger.NewLogger()
	appLogger.Info("Application starting...", zap.String("service_name", serviceName))

	// 2. Load Configuration
	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Configuration loaded successfully",
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_set", cfg.MongoURI != ""),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
	)

	// 3. Initialize OpenTelemetry Tracer
	var tp *sdktrace.TracerProvider
	if cfg.OTExporterOTLPEndpoint != "" {
		tp = tracer.InitTracer(serviceName, cfg.OTExporterOTLPEndpoint, appLogger)
		defer func() {
			appLogger.Info("Shutting down tracer provider...")
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := tp.Shutdown(ctxShutdown); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
		appLogger.Info("OpenTelemetry Tracer initialized.")
	} else {
		appLogger.Info("OpenTelemetry Tracer not initialized (OTEL_EXPORTER_OTLP_ENDPOINT not set).")
	}

	// 4. Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	ctxPingMongo, cancelPingMongo := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPingMongo()
	if err = mongoClient.Ping(ctxPingMongo, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	appLogger.Info("Successfully connected and pinged MongoDB.")
	db := mongoClient.Database(cfg.MongoDatabase)

	// 5. Initialize NATS Publisher
	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()
	appLogger.Info("NATS Publisher initialized.")

	// 6. Initialize Repositories
	reviewRepo, err := mongoRepo.NewReviewRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ReviewRepository", zap.Error(err))
	}
	orderRepo := mongoRepo.NewOrderRepository(db, appLogger)
	variantRepo := mongoRepo.NewProductVariantRepository(db, appLogger)
	sellerRepo := mongoRepo.NewSellerRepository(db, appLogger)
	appLogger.Info("Repositories initialized.")

	// 7. Initialize Usecase
	reviewUsecase := usecase.NewReviewUsecase(
		reviewRepo, orderRepo, variantRepo, sellerRepo, natsPublisher,
		usecase.Options{
			DefaultPageSize:  cfg.ReviewDefaultPageSize,
			MaxPageSize:      cfg.ReviewMaxPageSize,
			MaxCommentLength: cfg.ReviewMaxCommentLength,
		},
		appLogger,
	)
	appLogger.Info("ReviewUsecase initialized.")

	// 8. Subscribe to entity deletion events for review cascades
	natsSubscriber := natsAdapter.NewSubscriber(natsPublisher.Conn(), reviewUsecase, appLogger)
	if err := natsSubscriber.Subscribe(); err != nil {
		appLogger.Fatal("Failed to register NATS subscriptions", zap.Error(err))
	}
	defer natsSubscriber.Unsubscribe()

	// 9. Initialize HTTP surface
	metricsManager := metrics.NewManager(serviceName)
	shopHandler := httpAdapter.NewShopHandler(reviewUsecase, metricsManager, appLogger)
	adminHandler := httpAdapter.NewAdminHandler(reviewUsecase, metricsManager, appLogger)
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Shop:      shopHandler,
		Admin:     adminHandler,
		JWTSecret: cfg.JWTSecret,
		Metrics:   metricsManager,
		Logger:    appLogger,
		Ready: func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		},
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 10. Start Prometheus Metrics Server
	if cfg.PrometheusMetricsPort != "" {
		go func() {
			appLogger.Info("Starting Prometheus metrics server", zap.String("port", cfg.PrometheusMetricsPort))
			if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	} else {
		appLogger.Info("Prometheus metrics server not started (PROMETHEUS_METRICS_PORT not set).")
	}

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	appLogger.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	appLogger.Info("HTTP server stopped.")

	appLogger.Info("Application shutting down...")
	// Deferred cleanups (subscriptions, NATS, MongoDB, tracer) execute now.
}
