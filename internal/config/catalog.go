package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultMigrationsPath  = "migrations/catalog"
	defaultShutdownTimeout = 10 * time.Second

	defaultDBMaxOpenConns    = 25
	defaultDBMaxIdleConns    = 5
	defaultDBConnMaxLifetime = 5 * time.Minute
	defaultDBPingTimeout     = 5 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second

	defaultIndexTimeout        = 5 * time.Second
	defaultOrderPersistTimeout = 5 * time.Second
	defaultOrderReleaseTimeout = 5 * time.Second
	defaultAITimeout           = 60 * time.Second
	defaultMaxUploadBytes      = 10 << 20

	defaultAIBaseURL        = "https://api.openai.com/v1"
	defaultAIChatModel      = "gpt-4o-mini"
	defaultAIImageModel     = "dall-e-3"
	defaultAIEmbeddingModel = "text-embedding-3-small" // 1536 dimensions, see index.EmbeddingDimensions

	BrokerRabbitMQ     = "rabbitmq"
	BrokerKafka        = "kafka"
	defaultEventsTopic = "catalog.events"
)

type Catalog struct {
	DatabaseURL       string
	RedisURL          string
	HTTPAddr          string
	MigrationsPath    string
	ShutdownTimeout   time.Duration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBPingTimeout     time.Duration
	ReadHeaderTimeout time.Duration
	MaxUploadBytes    int64

	Events Events

	IndexTimeout time.Duration

	AIBaseURL        string
	AIAPIKey         string
	AIChatModel      string
	AIImageModel     string
	AIEmbeddingModel string
	AITimeout        time.Duration

	OrderPersistTimeout time.Duration
	OrderReleaseTimeout time.Duration
}

// Events selects the broker domain events go through.
type Events struct {
	Broker       string
	RabbitMQURL  string
	KafkaBrokers []string
	Topic        string
}

func LoadCatalog() (Catalog, error) {
	cfg := Catalog{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		HTTPAddr:          getEnv("HTTP_ADDR", defaultHTTPAddr),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", defaultMigrationsPath),
		ShutdownTimeout:   defaultShutdownTimeout,
		DBMaxOpenConns:    defaultDBMaxOpenConns,
		DBMaxIdleConns:    defaultDBMaxIdleConns,
		DBConnMaxLifetime: defaultDBConnMaxLifetime,
		DBPingTimeout:     defaultDBPingTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxUploadBytes:    defaultMaxUploadBytes,
		AIBaseURL:         getEnv("AI_BASE_URL", defaultAIBaseURL),
		AIAPIKey:          getEnv("AI_API_KEY", ""),
		AIChatModel:       getEnv("AI_CHAT_MODEL", defaultAIChatModel),
		AIImageModel:      getEnv("AI_IMAGE_MODEL", defaultAIImageModel),
		AIEmbeddingModel:  getEnv("AI_EMBEDDING_MODEL", defaultAIEmbeddingModel),
	}

	if cfg.DatabaseURL == "" {
		return Catalog{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return Catalog{}, fmt.Errorf("REDIS_URL is required")
	}

	events, err := loadEvents()
	if err != nil {
		return Catalog{}, err
	}
	cfg.Events = events

	if cfg.IndexTimeout, err = getDuration("INDEX_TIMEOUT", defaultIndexTimeout); err != nil {
		return Catalog{}, err
	}
	if cfg.OrderPersistTimeout, err = getDuration("ORDER_PERSIST_TIMEOUT", defaultOrderPersistTimeout); err != nil {
		return Catalog{}, err
	}
	if cfg.OrderReleaseTimeout, err = getDuration("ORDER_RELEASE_TIMEOUT", defaultOrderReleaseTimeout); err != nil {
		return Catalog{}, err
	}
	if cfg.AITimeout, err = getDuration("AI_TIMEOUT", defaultAITimeout); err != nil {
		return Catalog{}, err
	}

	return cfg, nil
}

func loadEvents() (Events, error) {
	events := Events{
		Broker:      strings.ToLower(getEnv("EVENTS_BROKER", BrokerRabbitMQ)),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		Topic:       getEnv("EVENTS_TOPIC", defaultEventsTopic),
	}
	if raw := getEnv("KAFKA_BROKERS", ""); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				events.KafkaBrokers = append(events.KafkaBrokers, b)
			}
		}
	}

	switch events.Broker {
	case BrokerRabbitMQ:
		if events.RabbitMQURL == "" {
			return Events{}, fmt.Errorf("RABBITMQ_URL is required")
		}
	case BrokerKafka:
		if len(events.KafkaBrokers) == 0 {
			return Events{}, fmt.Errorf("KAFKA_BROKERS is required")
		}
	default:
		return Events{}, fmt.Errorf("EVENTS_BROKER must be %q or %q", BrokerRabbitMQ, BrokerKafka)
	}

	return events, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}
