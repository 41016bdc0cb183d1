package redis

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"didgate/internal/platform/config"
)

// Client is the shared go-redis client behind the TTL store, the rate limiter
// and the completion notifier.
type Client struct {
	*redis.Client
}

type Option func(*settings)

type settings struct {
	registerer prometheus.Registerer
}

// WithPoolMetrics exports connection pool statistics to reg.
func WithPoolMetrics(reg prometheus.Registerer) Option {
	return func(s *settings) {
		s.registerer = reg
	}
}

// New connects and pings. Redis holds every piece of flow state, so an empty
// URL is a configuration error rather than a disabled feature.
func New(ctx context.Context, cfg config.RedisConfig, opts ...Option) (*Client, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	ro, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if s.registerer != nil {
		if err := s.registerer.Register(newPoolCollector(client)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("register redis pool metrics: %w", err)
		}
	}
	return &Client{Client: client}, nil
}

func clientOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}
	ro, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		ro.PoolSize = cfg.PoolSize
	}
	ro.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		ro.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		ro.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		ro.WriteTimeout = cfg.WriteTimeout
	}
	return ro, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
