package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"didgate/internal/admin"
	authservice "didgate/internal/auth/service"
	"didgate/internal/directory/store"
	"didgate/internal/notify"
	"didgate/internal/platform/config"
	"didgate/internal/platform/kafka"
	"didgate/internal/platform/metrics"
	"didgate/internal/platform/postgres"
	"didgate/internal/platform/redis"
	"didgate/internal/ttlstore"
	"didgate/internal/webhook"
	"didgate/pkg/platform/audit"
	auditmemory "didgate/pkg/platform/audit/store/memory"
	auditpostgres "didgate/pkg/platform/audit/store/postgres"
)

const (
	memoryQueueSize   = 256
	topicPartitions   = 3
	topicReplication  = 1
	workerConcurrency = 4
)

type directoryStore interface {
	authservice.Directory
	admin.Store
}

// infra holds the connections shared by the flow, the admin API and the
// webhook worker.
type infra struct {
	redis *redis.Client
	db    *sql.DB

	backend      ttlstore.Backend
	correlations *webhook.CorrelationStore
	notifier     notify.Notifier
	directory    directoryStore
	auditStore   audit.Store

	closers []func()
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (*infra, error) {
	in := &infra{}

	rc, err := redis.New(ctx, cfg.Redis, redis.WithPoolMetrics(reg))
	if err != nil {
		return nil, err
	}
	in.redis = rc
	in.closers = append(in.closers, func() { _ = rc.Close() })
	in.backend = ttlstore.NewRedisBackend(rc.Client)
	in.correlations = webhook.NewCorrelationStore(in.backend)
	in.notifier = notify.NewRedisNotifier(rc.Client, log)

	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using the in-memory directory")
		in.directory = store.NewMemory()
		in.auditStore = auditmemory.NewInMemoryStore()
		return in, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		in.Close()
		return nil, err
	}
	in.db = db
	in.closers = append(in.closers, func() { _ = db.Close() })
	if err := postgres.Migrate(ctx, db); err != nil {
		in.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	in.directory = store.NewPostgres(db)
	in.auditStore = auditpostgres.New(db)
	return in, nil
}

// Health reports the first unreachable backing service.
func (in *infra) Health(ctx context.Context) error {
	if err := in.redis.Health(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if in.db != nil {
		if err := in.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	return nil
}

// Close releases connections in reverse order of opening.
func (in *infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}

type runner interface {
	Run(ctx context.Context) error
}

// newWebhookPipeline returns the queue the auth service enqueues to and the
// runner that delivers from it. Kafka is used when brokers are configured.
func newWebhookPipeline(
	ctx context.Context,
	cfg config.Config,
	in *infra,
	log *slog.Logger,
	m *metrics.Metrics,
	auditPublisher webhook.AuditPublisher,
) (webhook.Queue, runner, error) {
	worker := webhook.NewWorker(
		webhook.WithLogger(log),
		webhook.WithMetrics(m),
		webhook.WithAuditPublisher(auditPublisher),
		webhook.WithMaxAttempts(cfg.Webhook.MaxAttempts),
		webhook.WithAckWait(cfg.Webhook.AckWait),
	)

	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, webhooks use the in-memory queue")
		q := webhook.NewMemoryQueue(worker, memoryQueueSize,
			webhook.WithConcurrency(workerConcurrency),
			webhook.WithQueueLogger(log),
		)
		return q, q, nil
	}

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		return nil, nil, err
	}
	in.closers = append(in.closers, producer.Close)
	if err := producer.EnsureTopics(ctx, topicPartitions, topicReplication,
		cfg.Kafka.WebhookTopic, cfg.Kafka.DeadLetterTopic); err != nil {
		return nil, nil, fmt.Errorf("ensure webhook topics: %w", err)
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup,
		[]string{cfg.Kafka.WebhookTopic}, log)
	if err != nil {
		return nil, nil, err
	}
	in.closers = append(in.closers, consumer.Close)

	queue := webhook.NewKafkaQueue(producer, cfg.Kafka.WebhookTopic)
	kr := webhook.NewKafkaRunner(consumer, producer, worker,
		cfg.Kafka.WebhookTopic, cfg.Kafka.DeadLetterTopic, log)
	return queue, kr, nil
}
