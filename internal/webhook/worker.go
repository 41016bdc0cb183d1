package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"didgate/internal/platform/metrics"
	"didgate/pkg/platform/audit"
)

const (
	DefaultMaxAttempts = 5
	DefaultAckWait     = 30 * time.Second
)

// AuditPublisher records delivery failures.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Worker delivers jobs over HTTP. It decides the outcome of one attempt;
// the queue carrying the job decides how a retry is rescheduled.
type Worker struct {
	client      *http.Client
	logger      *slog.Logger
	metrics     *metrics.Metrics
	auditor     AuditPublisher
	tracer      trace.Tracer
	maxAttempts int
	ackWait     time.Duration
	now         func() time.Time
}

type WorkerOption func(*Worker)

func WithHTTPClient(c *http.Client) WorkerOption {
	return func(w *Worker) { w.client = c }
}

func WithLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = l }
}

func WithMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) { w.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) WorkerOption {
	return func(w *Worker) { w.auditor = p }
}

func WithMaxAttempts(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithAckWait bounds how long the service may take to acknowledge one POST.
func WithAckWait(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.ackWait = d
		}
	}
}

func WithClock(now func() time.Time) WorkerOption {
	return func(w *Worker) { w.now = now }
}

func NewWorker(opts ...WorkerOption) *Worker {
	w := &Worker{
		client:      &http.Client{},
		logger:      slog.Default(),
		tracer:      otel.Tracer("didgate/webhook"),
		maxAttempts: DefaultMaxAttempts,
		ackWait:     DefaultAckWait,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Process makes one delivery attempt. For Retry the returned job is the next
// attempt, with its not-before time pushed out by the backoff.
func (w *Worker) Process(ctx context.Context, job Job) (Outcome, Job) {
	if job.Attempt < 1 {
		job.Attempt = 1
	}
	if err := w.waitUntil(ctx, job.NotBefore); err != nil {
		return Retry, job
	}

	ctx, span := w.tracer.Start(ctx, "webhook.deliver", trace.WithAttributes(
		attribute.String("webhook.id", job.WebhookID.String()),
		attribute.Int("webhook.attempt", job.Attempt),
	))
	defer span.End()

	start := w.now()
	err := w.post(ctx, job)
	elapsed := w.now().Sub(start)

	if err == nil {
		w.metrics.ObserveWebhookDelivery(Delivered.String(), elapsed)
		w.logger.InfoContext(ctx, "webhook delivered",
			"webhook_id", job.WebhookID.String(),
			"service_id", job.ServiceID.String(),
			"attempt", job.Attempt,
		)
		return Delivered, job
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "delivery failed")

	if job.Attempt < w.maxAttempts {
		w.metrics.ObserveWebhookDelivery(Retry.String(), elapsed)
		w.logger.WarnContext(ctx, "webhook delivery failed, will retry",
			"webhook_id", job.WebhookID.String(),
			"service_id", job.ServiceID.String(),
			"attempt", job.Attempt,
			"error", err,
		)
		next := job
		next.NotBefore = w.now().Add(Backoff(job.Attempt))
		next.Attempt++
		return Retry, next
	}

	w.metrics.ObserveWebhookDelivery(Failed.String(), elapsed)
	w.logger.ErrorContext(ctx, "webhook delivery failed permanently",
		"webhook_id", job.WebhookID.String(),
		"service_id", job.ServiceID.String(),
		"attempts", job.Attempt,
		"error", err,
	)
	if w.auditor != nil {
		if auditErr := w.auditor.Emit(ctx, audit.Event{
			Action:    string(audit.EventWebhookFailed),
			ServiceID: job.ServiceID,
			Subject:   job.WebhookID.String(),
			Reason:    err.Error(),
		}); auditErr != nil {
			w.logger.ErrorContext(ctx, "failed to audit webhook failure", "error", auditErr)
		}
	}
	return Failed, job
}

func (w *Worker) waitUntil(ctx context.Context, at time.Time) error {
	d := at.Sub(w.now())
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) post(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, w.ackWait)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.URL, bytes.NewReader(job.Body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Id", job.WebhookID.String())

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint answered %d", resp.StatusCode)
	}
	return nil
}
