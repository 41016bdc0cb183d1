package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"didgate/internal/platform/kafka"
)

const (
	DefaultTopic           = "webhooks"
	DefaultDeadLetterTopic = "webhooks.dead"
)

// Producer is the slice of kafka.Producer the queue needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Consumer is the slice of kafka.Consumer the runner needs.
type Consumer interface {
	Run(ctx context.Context, handler kafka.Handler) error
}

// KafkaQueue publishes jobs to a topic keyed by webhook id, so every attempt
// of one webhook lands on the same partition.
type KafkaQueue struct {
	producer Producer
	topic    string
}

func NewKafkaQueue(producer Producer, topic string) *KafkaQueue {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaQueue{producer: producer, topic: topic}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, job Job) error {
	return produceJob(ctx, q.producer, q.topic, job)
}

func produceJob(ctx context.Context, p Producer, topic string, job Job) error {
	value, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	headers := map[string]string{"attempt": strconv.Itoa(job.Attempt)}
	if err := p.Produce(ctx, topic, []byte(job.WebhookID.String()), value, headers); err != nil {
		return fmt.Errorf("produce webhook %s to %s: %w", job.WebhookID, topic, err)
	}
	return nil
}

// KafkaRunner consumes the webhook topic. A record is acknowledged only after
// it was delivered, its retry was produced, or it was dead-lettered; a
// produce failure stops the runner without committing.
type KafkaRunner struct {
	consumer   Consumer
	producer   Producer
	worker     *Worker
	topic      string
	deadLetter string
	logger     *slog.Logger
}

func NewKafkaRunner(consumer Consumer, producer Producer, worker *Worker, topic, deadLetter string, logger *slog.Logger) *KafkaRunner {
	if topic == "" {
		topic = DefaultTopic
	}
	if deadLetter == "" {
		deadLetter = DefaultDeadLetterTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaRunner{
		consumer:   consumer,
		producer:   producer,
		worker:     worker,
		topic:      topic,
		deadLetter: deadLetter,
		logger:     logger,
	}
}

func (r *KafkaRunner) Run(ctx context.Context) error {
	return r.consumer.Run(ctx, kafka.HandlerFunc(r.Handle))
}

// Handle processes one record. A nil return lets the consumer commit it.
func (r *KafkaRunner) Handle(ctx context.Context, msg *kafka.Message) error {
	var job Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		r.logger.ErrorContext(ctx, "undecodable webhook job, dead-lettering",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return r.producer.Produce(ctx, r.deadLetter, msg.Key, msg.Value, map[string]string{"error": "decode"})
	}

	outcome, next := r.worker.Process(ctx, job)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	switch outcome {
	case Delivered:
		return nil
	case Retry:
		return produceJob(ctx, r.producer, r.topic, next)
	case Failed:
		return produceJob(ctx, r.producer, r.deadLetter, next)
	default:
		return fmt.Errorf("unknown outcome %d", outcome)
	}
}
