package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/alert"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/api"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/config"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/db"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/model"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/mq"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/realtime"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/repository"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/service"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/store"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/validator"
)

func startWorker(
	lc fx.Lifecycle,
	conn *mq.Connection,
	cfg *config.Config,
	logger *zap.Logger,
	aggregator *service.Aggregator,
	router *mux.Router,
) error {
	// Context for the consumer loop, cancelled on shutdown
	ctx, cancel := context.WithCancel(context.Background())

	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Connection:    conn,
		Queue:         cfg.RabbitMQ.IngestQueue,
		DLQQueue:      cfg.RabbitMQ.DLQQueue,
		Exchange:      cfg.RabbitMQ.IngestExchange,
		RoutingKey:    cfg.RabbitMQ.IngestRoutingKey,
		PrefetchCount: cfg.RabbitMQ.PrefetchCount,
		Logger:        logger,
		Handler: func(msgCtx context.Context, body []byte) error {
			var req model.IngestRequest
			if err := json.Unmarshal(body, &req); err != nil {
				return fmt.Errorf("failed to unmarshal reading: %w", err)
			}
			return aggregator.Ingest(msgCtx, req)
		},
	})
	if err != nil {
		cancel()
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServicePort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("starting reading consumer",
				zap.String("queue", cfg.RabbitMQ.IngestQueue),
				zap.Int("prefetch", cfg.RabbitMQ.PrefetchCount))
			if err := consumer.Start(ctx); err != nil {
				return err
			}

			go func() {
				logger.Info("http server listening", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := consumer.Close(); err != nil {
				logger.Error("failed to close consumer", zap.Error(err))
			}
			if err := server.Shutdown(stopCtx); err != nil {
				logger.Error("http server shutdown error", zap.Error(err))
				return err
			}
			logger.Info("worker stopped gracefully")
			return nil
		},
	})

	return nil
}

// ProvideDBPool creates the PostgreSQL connection pool
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL)
}

// ProvideDocStore creates the Postgres-backed document store and ensures its
// schema on startup
func ProvideDocStore(lc fx.Lifecycle, pool *db.Pool) store.DocStore {
	pg := store.NewPostgresStore(pool)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return pg.EnsureSchema(ctx)
		},
	})
	return pg
}

// ProvideRepository creates the typed collection accessors
func ProvideRepository(docs store.DocStore) *repository.Repository {
	return repository.New(docs)
}

// ProvideRedisClient connects the realtime latest-value store
func ProvideRedisClient(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) *redis.Client {
	client := realtime.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("cannot reach redis: %w", err)
			}
			logger.Info("redis connection established", zap.String("addr", cfg.Redis.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

// ProvideRealtimeStore creates the typed latest/current-reading operations
func ProvideRealtimeStore(client *redis.Client) *realtime.Store {
	return realtime.NewStore(realtime.NewRedisKVStore(client))
}

// ProvideClassifier creates the hazard-level classifier
func ProvideClassifier(cfg *config.Config) *alert.Classifier {
	return alert.NewClassifier(
		cfg.Analytics.ExtremeCautionThreshold,
		cfg.Analytics.DangerThreshold,
		cfg.Analytics.ExtremeDangerThreshold,
	)
}

// ProvideValidator creates the reading validator
func ProvideValidator() *validator.Validator {
	return validator.New()
}

// ProvideMQConnection creates the RabbitMQ connection
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates the alert-event publisher
func ProvidePublisher(conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	return mq.NewPublisher(conn, cfg.RabbitMQ.EventsExchange, cfg.RabbitMQ.AlertRoutingKey, logger)
}

// ProvideAggregator creates the ingest aggregator
func ProvideAggregator(
	repo *repository.Repository,
	rt *realtime.Store,
	classifier *alert.Classifier,
	v *validator.Validator,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *service.Aggregator {
	return service.NewAggregator(service.AggregatorConfig{
		Repo:                  repo,
		Realtime:              rt,
		Classifier:            classifier,
		Validator:             v,
		Publisher:             publisher,
		ExpectedDailyReadings: cfg.Analytics.ExpectedDailyReadings,
		Logger:                logger,
	})
}

// ProvideRecomputer creates the rollup recomputer
func ProvideRecomputer(repo *repository.Repository, logger *zap.Logger) *service.Recomputer {
	return service.NewRecomputer(service.RecomputerConfig{
		Repo:   repo,
		Logger: logger,
	})
}

// ProvideAPIHandler creates the HTTP handler set
func ProvideAPIHandler(aggregator *service.Aggregator, recomputer *service.Recomputer, logger *zap.Logger) *api.Handler {
	return api.NewHandler(aggregator, recomputer, logger)
}

// ProvideRouter wires the HTTP routes
func ProvideRouter(h *api.Handler, logger *zap.Logger) *mux.Router {
	return api.NewRouter(h, logger)
}
