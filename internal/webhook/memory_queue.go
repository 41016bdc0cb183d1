package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryQueue delivers jobs in process. Retries are rescheduled with a timer
// and are lost on shutdown, so it suits development and tests only.
type MemoryQueue struct {
	jobs        chan Job
	worker      *Worker
	logger      *slog.Logger
	concurrency int

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

type MemoryQueueOption func(*MemoryQueue)

func WithConcurrency(n int) MemoryQueueOption {
	return func(q *MemoryQueue) {
		if n > 0 {
			q.concurrency = n
		}
	}
}

func WithQueueLogger(l *slog.Logger) MemoryQueueOption {
	return func(q *MemoryQueue) { q.logger = l }
}

func NewMemoryQueue(worker *Worker, size int, opts ...MemoryQueueOption) *MemoryQueue {
	q := &MemoryQueue{
		jobs:        make(chan Job, size),
		worker:      worker,
		logger:      slog.Default(),
		concurrency: 1,
		timers:      make(map[*time.Timer]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes jobs until ctx is cancelled. Pending retry timers are stopped
// and buffered jobs are logged as dropped.
func (q *MemoryQueue) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for range q.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-q.jobs:
					q.handle(ctx, job)
				}
			}
		}()
	}
	wg.Wait()
	q.shutdown()
	return nil
}

func (q *MemoryQueue) handle(ctx context.Context, job Job) {
	outcome, next := q.worker.Process(ctx, job)
	if outcome != Retry || ctx.Err() != nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(time.Until(next.NotBefore), func() {
		q.mu.Lock()
		delete(q.timers, timer)
		q.mu.Unlock()
		if err := q.Enqueue(ctx, next); err != nil {
			q.logger.Warn("webhook retry dropped", "webhook_id", next.WebhookID.String(), "error", err)
		}
	})
	q.timers[timer] = struct{}{}
}

func (q *MemoryQueue) shutdown() {
	q.mu.Lock()
	q.closed = true
	for t := range q.timers {
		t.Stop()
	}
	pending := len(q.timers)
	q.timers = nil
	q.mu.Unlock()

	dropped := pending
	for {
		select {
		case job := <-q.jobs:
			dropped++
			q.logger.Warn("webhook job dropped at shutdown", "webhook_id", job.WebhookID.String())
		default:
			if dropped > 0 {
				q.logger.Warn("memory webhook queue stopped with undelivered jobs", "count", dropped)
			}
			return
		}
	}
}
