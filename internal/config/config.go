package config

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/markethub/review-service/internal/platform/logger"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName            string `mapstructure:"SERVICE_NAME"`
	HTTPPort               string `mapstructure:"HTTP_PORT"`
	MongoURI               string `mapstructure:"MONGO_URI"`
	MongoDatabase          string `mapstructure:"MONGO_DATABASE"`
	NATSURL                string `mapstructure:"NATS_URL"`
	JWTSecret              string `mapstructure:"JWT_SECRET"` // For validating tokens issued by the API gateway
	PrometheusMetricsPort  string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Review behavior knobs, set once at startup and handed to the
	// usecase constructor.
	ReviewDefaultPageSize  int64 `mapstructure:"REVIEW_DEFAULT_PAGE_SIZE"`
	ReviewMaxPageSize      int64 `mapstructure:"REVIEW_MAX_PAGE_SIZE"`
	ReviewMaxCommentLength int   `mapstructure:"REVIEW_MAX_COMMENT_LENGTH"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	viper.SetDefault("SERVICE_NAME", "review-service")
	viper.SetDefault("HTTP_PORT", "8084")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "marketplace_reviews")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("JWT_SECRET", "change-me-review-service-secret")
	viper.SetDefault("PROMETHEUS_METRICS_PORT", "9094")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	viper.SetDefault("REVIEW_DEFAULT_PAGE_SIZE", 10)
	viper.SetDefault("REVIEW_MAX_PAGE_SIZE", 100)
	viper.SetDefault("REVIEW_MAX_COMMENT_LENGTH", 4000)

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, err
	}

	if cfg.JWTSecret == "change-me-review-service-secret" || cfg.JWTSecret == "" {
		appLogger.Warn("JWT_SECRET is set to its default insecure value or is empty. Please set a strong secret in your environment.")
	}
	if cfg.MongoURI == "" {
		appLogger.Fatal("MONGO_URI is not set. This is required.")
	}
	if cfg.MongoDatabase == "" {
		appLogger.Fatal("MONGO_DATABASE is not set. This is required.")
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_present", cfg.MongoURI != ""),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.String("nats_url", cfg.NATSURL),
		zap.Bool("jwt_secret_present", cfg.JWTSecret != ""),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
		zap.Int64("review_default_page_size", cfg.ReviewDefaultPageSize),
		zap.Int64("review_max_page_size", cfg.ReviewMaxPageSize),
	)

	return &cfg, nil
}
