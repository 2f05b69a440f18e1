package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"catalog-fulfillment/internal/ai"
	"catalog-fulfillment/internal/catalog"
	"catalog-fulfillment/internal/catalog/index"
	"catalog-fulfillment/internal/catalog/indexer"
	catalogrepo "catalog-fulfillment/internal/catalog/repository"
	catalogsvc "catalog-fulfillment/internal/catalog/service"
	"catalog-fulfillment/internal/config"
	apihttp "catalog-fulfillment/internal/http"
	"catalog-fulfillment/internal/inventory"
	"catalog-fulfillment/internal/messaging"
	orderrepo "catalog-fulfillment/internal/orders/repository"
	ordersvc "catalog-fulfillment/internal/orders/service"

	_ "catalog-fulfillment/docs"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const (
	metricSavedTotal          = "products_saved_total"
	metricDeletedTotal        = "products_deleted_total"
	metricIndexFailuresTotal  = "index_sync_failures_total"
	metricOrdersPlacedTotal   = "orders_placed_total"
	metricOrdersRejectedTotal = "orders_rejected_total"
	migrateSourcePrefix       = "file://"
	postgresDriverName        = "postgres"
)

type eventPublisher interface {
	Publish(ctx context.Context, event catalog.Event) error
	Close() error
}

// @title        Catalog Fulfillment API
// @version      1.0
// @description  Product catalog with semantic search and order fulfillment.
// @host         localhost:8080
// @BasePath     /
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadCatalog()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	if err := runMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open(postgresDriverName, cfg.DatabaseURL)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), cfg.DBPingTimeout)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("ping database", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	publisher, err := newPublisher(cfg.Events)
	if err != nil {
		logger.Error("init publisher", "broker", cfg.Events.Broker, "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	savedCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricSavedTotal,
		Help: "Total number of products created or updated",
	})
	deletedCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricDeletedTotal,
		Help: "Total number of products deleted",
	})
	indexFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricIndexFailuresTotal,
		Help: "Total number of failed semantic index updates",
	})
	placedCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricOrdersPlacedTotal,
		Help: "Total number of orders placed",
	})
	rejectedCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricOrdersRejectedTotal,
		Help: "Total number of order attempts rejected, by reason",
	}, []string{"reason"})
	prometheus.MustRegister(savedCounter, deletedCounter, indexFailures, placedCounter, rejectedCounter)

	products := catalogrepo.NewPostgres(db)
	registry := index.NewRedisRegistry(redisClient)
	ledger := inventory.NewPostgres(db)
	model := ai.NewClient(ai.ClientConfig{
		BaseURL:        cfg.AIBaseURL,
		APIKey:         cfg.AIAPIKey,
		ChatModel:      cfg.AIChatModel,
		ImageModel:     cfg.AIImageModel,
		EmbeddingModel: cfg.AIEmbeddingModel,
		Timeout:        cfg.AITimeout,
	})
	vectorStore := index.NewStore(db, model)

	catalogService := catalogsvc.New(
		products,
		ledger,
		indexer.New(vectorStore, registry, logger, indexFailures),
		vectorStore,
		ai.NewGenerator(model),
		publisher,
		logger,
		catalogsvc.Metrics{Saved: savedCounter, Deleted: deletedCounter},
		cfg.IndexTimeout,
	)
	orderService := ordersvc.New(
		products,
		ledger,
		orderrepo.NewPostgres(db),
		publisher,
		logger,
		ordersvc.Metrics{Placed: placedCounter, Rejected: rejectedCounter},
		ordersvc.Timeouts{Persist: cfg.OrderPersistTimeout, Release: cfg.OrderReleaseTimeout},
	)
	assistant := ai.NewAssistant(catalogService, model, 0)

	handler := apihttp.NewHandler(catalogService, orderService, assistant, cfg.MaxUploadBytes)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(apihttp.RequestIDMiddleware())
	router.Use(apihttp.AccessLogMiddleware(logger))
	apihttp.RegisterRoutes(router, handler, products, registry)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("catalog service started", "addr", cfg.HTTPAddr, "broker", cfg.Events.Broker)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("catalog service stopped")
}

func runMigrations(databaseURL, migrationsPath string) error {
	m, err := migrate.New(migrateSourcePrefix+migrationsPath, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func newPublisher(cfg config.Events) (eventPublisher, error) {
	if cfg.Broker == config.BrokerKafka {
		return messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.Topic), nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}
	publisher, err := messaging.NewRabbitPublisher(conn, cfg.Topic)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &rabbitPublisher{RabbitPublisher: publisher, conn: conn}, nil
}

// rabbitPublisher closes the connection it was opened on together with the
// channel.
type rabbitPublisher struct {
	*messaging.RabbitPublisher
	conn *amqp.Connection
}

func (p *rabbitPublisher) Close() error {
	return errors.Join(p.RabbitPublisher.Close(), p.conn.Close())
}
