package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadCatalog(t *testing.T) {
	base := map[string]string{
		"DATABASE_URL": "postgres://localhost/db",
		"RABBITMQ_URL": "amqp://localhost",
		"REDIS_URL":    "redis://localhost:6379/0",
	}
	with := func(overrides map[string]string, drop ...string) map[string]string {
		env := make(map[string]string, len(base)+len(overrides))
		for k, v := range base {
			env[k] = v
		}
		for _, k := range drop {
			delete(env, k)
		}
		for k, v := range overrides {
			env[k] = v
		}
		return env
	}

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing DATABASE_URL",
			env:     with(nil, "DATABASE_URL"),
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "missing REDIS_URL",
			env:     with(nil, "REDIS_URL"),
			wantErr: "REDIS_URL is required",
		},
		{
			name:    "missing RABBITMQ_URL",
			env:     with(nil, "RABBITMQ_URL"),
			wantErr: "RABBITMQ_URL is required",
		},
		{
			name:    "kafka without brokers",
			env:     with(map[string]string{"EVENTS_BROKER": "kafka"}),
			wantErr: "KAFKA_BROKERS is required",
		},
		{
			name:    "unknown broker",
			env:     with(map[string]string{"EVENTS_BROKER": "nats"}),
			wantErr: `EVENTS_BROKER must be "rabbitmq" or "kafka"`,
		},
		{
			name:    "invalid duration",
			env:     with(map[string]string{"ORDER_PERSIST_TIMEOUT": "soon"}),
			wantErr: "ORDER_PERSIST_TIMEOUT must be a positive duration",
		},
		{
			name: "valid config with defaults",
			env:  with(nil),
		},
		{
			name: "custom HTTP_ADDR overrides default",
			env:  with(map[string]string{"HTTP_ADDR": ":9090"}),
		},
		{
			name: "kafka broker",
			env: with(map[string]string{
				"EVENTS_BROKER": "Kafka",
				"KAFKA_BROKERS": "kafka-1:9092, kafka-2:9092",
			}, "RABBITMQ_URL"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadCatalog()
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if err.Error() != tt.wantErr {
					t.Fatalf("want error %q, got %q", tt.wantErr, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DatabaseURL != tt.env["DATABASE_URL"] {
				t.Fatalf("want DatabaseURL %q, got %q", tt.env["DATABASE_URL"], cfg.DatabaseURL)
			}
			if cfg.RedisURL != tt.env["REDIS_URL"] {
				t.Fatalf("want RedisURL %q, got %q", tt.env["REDIS_URL"], cfg.RedisURL)
			}
			if addr, ok := tt.env["HTTP_ADDR"]; ok && cfg.HTTPAddr != addr {
				t.Fatalf("want HTTPAddr %q, got %q", addr, cfg.HTTPAddr)
			}
			if _, ok := tt.env["HTTP_ADDR"]; !ok && cfg.HTTPAddr != defaultHTTPAddr {
				t.Fatalf("want default HTTPAddr %q, got %q", defaultHTTPAddr, cfg.HTTPAddr)
			}
			if cfg.MigrationsPath != defaultMigrationsPath {
				t.Fatalf("want MigrationsPath %q, got %q", defaultMigrationsPath, cfg.MigrationsPath)
			}
			if cfg.AIBaseURL != defaultAIBaseURL {
				t.Fatalf("want AIBaseURL %q, got %q", defaultAIBaseURL, cfg.AIBaseURL)
			}
			if cfg.AIEmbeddingModel != defaultAIEmbeddingModel {
				t.Fatalf("want AIEmbeddingModel %q, got %q", defaultAIEmbeddingModel, cfg.AIEmbeddingModel)
			}
			if cfg.OrderPersistTimeout != defaultOrderPersistTimeout {
				t.Fatalf("want OrderPersistTimeout %v, got %v", defaultOrderPersistTimeout, cfg.OrderPersistTimeout)
			}
			if cfg.DBMaxOpenConns != defaultDBMaxOpenConns {
				t.Fatalf("want DBMaxOpenConns %d, got %d", defaultDBMaxOpenConns, cfg.DBMaxOpenConns)
			}
			if cfg.ShutdownTimeout != defaultShutdownTimeout {
				t.Fatalf("want ShutdownTimeout %v, got %v", defaultShutdownTimeout, cfg.ShutdownTimeout)
			}
			if cfg.Events.Broker == BrokerKafka {
				if len(cfg.Events.KafkaBrokers) != 2 || cfg.Events.KafkaBrokers[1] != "kafka-2:9092" {
					t.Fatalf("want two trimmed kafka brokers, got %v", cfg.Events.KafkaBrokers)
				}
			}
		})
	}
}

func TestLoadCatalog_DurationOverride(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	t.Setenv("RABBITMQ_URL", "amqp://localhost")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("INDEX_TIMEOUT", "750ms")

	cfg, err := LoadCatalog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IndexTimeout != 750*time.Millisecond {
		t.Fatalf("want IndexTimeout 750ms, got %v", cfg.IndexTimeout)
	}
}

func TestLoadNotifications(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing RABBITMQ_URL",
			env:     map[string]string{},
			wantErr: "RABBITMQ_URL is required",
		},
		{
			name: "valid config",
			env:  map[string]string{"RABBITMQ_URL": "amqp://localhost"},
		},
		{
			name: "kafka",
			env:  map[string]string{"EVENTS_BROKER": "kafka", "KAFKA_BROKERS": "localhost:9092"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadNotifications()
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if err.Error() != tt.wantErr {
					t.Fatalf("want error %q, got %q", tt.wantErr, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Events.RabbitMQURL != tt.env["RABBITMQ_URL"] {
				t.Fatalf("want RabbitMQURL %q, got %q", tt.env["RABBITMQ_URL"], cfg.Events.RabbitMQURL)
			}
			if cfg.Events.Topic != defaultEventsTopic {
				t.Fatalf("want Topic %q, got %q", defaultEventsTopic, cfg.Events.Topic)
			}
			if cfg.ShutdownTimeout != defaultShutdownTimeout {
				t.Fatalf("want ShutdownTimeout %v, got %v", defaultShutdownTimeout, cfg.ShutdownTimeout)
			}
		})
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "RABBITMQ_URL", "REDIS_URL", "HTTP_ADDR", "MIGRATIONS_PATH",
		"EVENTS_BROKER", "KAFKA_BROKERS", "EVENTS_TOPIC",
		"AI_BASE_URL", "AI_API_KEY", "AI_CHAT_MODEL", "AI_IMAGE_MODEL", "AI_EMBEDDING_MODEL",
		"INDEX_TIMEOUT", "ORDER_PERSIST_TIMEOUT", "ORDER_RELEASE_TIMEOUT", "AI_TIMEOUT",
	} {
		if val, ok := os.LookupEnv(key); ok {
			t.Setenv(key, val)
		}
		os.Unsetenv(key)
	}
}
