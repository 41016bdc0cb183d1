package webhook

import (
	"context"
	"time"

	id "didgate/pkg/domain"
)

// Job is one delivery attempt of an encoded envelope.
type Job struct {
	WebhookID id.WebhookID `json:"webhook_id"`
	ServiceID id.ServiceID `json:"service_id"`
	URL       string       `json:"url"`
	Body      []byte       `json:"body"`
	Attempt   int          `json:"attempt"`
	NotBefore time.Time    `json:"not_before"`
}

// Queue accepts jobs for at-least-once delivery.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

type Outcome int

const (
	Delivered Outcome = iota
	Retry
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Retry:
		return "retry"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Backoff is the delay before the given (1-based) retry: 1s, 2s, 4s, ...
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Second << (attempt - 1)
}
