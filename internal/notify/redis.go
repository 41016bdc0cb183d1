package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	id "didgate/pkg/domain"
)

// RedisNotifier fans signals out over Redis pub/sub so that any broker
// instance can complete a flow started on another.
type RedisNotifier struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisNotifier(client *redis.Client, logger *slog.Logger) *RedisNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisNotifier{client: client, logger: logger}
}

func (n *RedisNotifier) Publish(ctx context.Context, sessionID id.SessionID, signal Signal) error {
	payload, err := encode(signal)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, Channel(sessionID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", Channel(sessionID), err)
	}
	return nil
}

// Subscribe waits for Redis to confirm the subscription before returning, so
// a signal published afterwards is not missed.
func (n *RedisNotifier) Subscribe(ctx context.Context, sessionID id.SessionID) (Subscription, error) {
	channel := Channel(sessionID)
	pubsub := n.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &redisSubscription{
		pubsub: pubsub,
		cancel: cancel,
		out:    make(chan Signal, 1),
		done:   make(chan struct{}),
	}
	go sub.forward(ctx, n.logger, channel)
	return sub, nil
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	cancel    context.CancelFunc
	out       chan Signal
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func (s *redisSubscription) Signals() <-chan Signal { return s.out }

func (s *redisSubscription) forward(ctx context.Context, logger *slog.Logger, channel string) {
	defer close(s.done)
	defer close(s.out)
	messages := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			signal, err := decode(msg.Payload)
			if err != nil {
				logger.WarnContext(ctx, "ignoring undecodable signal", "channel", channel, "error", err)
				continue
			}
			select {
			case s.out <- signal:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *redisSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.pubsub.Close()
		<-s.done
	})
	return s.closeErr
}
