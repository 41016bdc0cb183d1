package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"didgate/pkg/platform/httputil"
	"didgate/pkg/requestcontext"
)

type exceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

type Middleware struct {
	store    Store
	policy   Policy
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every Limit middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithPolicy(p Policy) Option {
	return func(m *Middleware) {
		m.policy = p
	}
}

func New(store Store, logger *slog.Logger, opts ...Option) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Middleware{store: store, policy: DefaultPolicy(), logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		m.logger.Info("rate limiting disabled")
	}
	return m
}

// Limit admits requests of class per client IP. It relies on the client
// metadata middleware for the IP and fails open when the store errors.
func (m *Middleware) Limit(class Class) func(http.Handler) http.Handler {
	rule, limited := m.policy[class]
	return func(next http.Handler) http.Handler {
		if m.disabled || !limited {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			result, err := m.store.Allow(ctx, bucketKey(class, ip), rule.Limit, rule.Window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"class", string(class), "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := result.RetryAfter(time.Now())
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", string(class), "request_id", requestcontext.RequestID(ctx))
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, exceededResponse{
					Error:            "rate_limit_exceeded",
					ErrorDescription: "too many requests, try again later",
					RetryAfter:       retryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
