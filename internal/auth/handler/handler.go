// Package handler exposes the wallet flow over HTTP: the browser starts a
// flow and waits on a server-sent event stream, the wallet posts its response
// and the relying service posts its registration decision.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"didgate/internal/auth/service"
	"didgate/internal/notify"
	"didgate/internal/platform/metrics"
	"didgate/internal/ratelimit"
	"didgate/internal/session"
	"didgate/internal/webhook"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/httputil"
	"didgate/pkg/requestcontext"
)

const (
	// CookieName carries the session id.
	CookieName = "session"

	defaultKeepAlive = 15 * time.Second
	maxCallbackBytes = 1 << 20
)

// Service is the auth state machine as the handler sees it.
type Service interface {
	Start(ctx context.Context, req service.StartRequest) (*service.StartResult, error)
	Verify(ctx context.Context, req service.VerifyRequest) (*service.VerifyResult, error)
	CompleteRegistration(ctx context.Context, cb webhook.Callback) (*service.CallbackResult, error)
	Logout(ctx context.Context, serviceName string, sessionID id.SessionID) (string, error)
	WhoAmI(ctx context.Context, sessionID id.SessionID) (*service.Identity, error)
	Subscribe(ctx context.Context, sessionID id.SessionID) (notify.Subscription, error)
}

// Limiter wraps routes of a rate-limit class.
type Limiter interface {
	Limit(class ratelimit.Class) func(http.Handler) http.Handler
}

type Handler struct {
	auth      Service
	logger    *slog.Logger
	metrics   *metrics.Metrics
	limiter   Limiter
	secure    bool
	keepAlive time.Duration
}

type Option func(*Handler)

// WithInsecureCookies drops the Secure cookie attribute for plain-HTTP
// development setups.
func WithInsecureCookies() Option {
	return func(h *Handler) { h.secure = false }
}

// WithKeepAlive sets the heartbeat interval of the waiting stream.
func WithKeepAlive(d time.Duration) Option {
	return func(h *Handler) { h.keepAlive = d }
}

// WithLimiter throttles the start, wallet and callback routes.
func WithLimiter(l Limiter) Option {
	return func(h *Handler) { h.limiter = l }
}

func New(auth Service, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		auth:      auth,
		logger:    logger,
		metrics:   m,
		secure:    true,
		keepAlive: defaultKeepAlive,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the browser, wallet and service routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(sessionContext)
		r.With(h.limit(ratelimit.ClassWallet)).Post("/auth", h.handleVerify)
		r.With(h.limit(ratelimit.ClassCallback)).Post("/hook", h.handleCallback)
		r.Get("/waiting", h.handleWaiting)
		r.Get("/whoami", h.handleWhoAmI)
		r.With(h.limit(ratelimit.ClassStart)).Get("/{service}/{action}", h.handleStart)
		r.Post("/{service}/out", h.handleLogout)
	})
}

func (h *Handler) limit(class ratelimit.Class) func(http.Handler) http.Handler {
	if h.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.limiter.Limit(class)
}

type startResponse struct {
	AuthorizationURI string `json:"authorization_uri"`
	RedirectURL      string `json:"redirect_url"`
	WaitingURL       string `json:"waiting_url"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.auth.Start(ctx, service.StartRequest{
		ServiceName: chi.URLParam(r, "service"),
		Action:      chi.URLParam(r, "action"),
		SessionID:   requestcontext.SessionID(ctx),
	})
	if err != nil {
		h.fail(ctx, w, "start failed", err)
		return
	}

	h.setSessionCookie(w, res.Session.ID)
	httputil.WriteJSON(w, http.StatusOK, startResponse{
		AuthorizationURI: res.AuthorizationURI,
		RedirectURL:      res.RedirectURL,
		WaitingURL:       res.WaitingURL,
	})
}

// handleVerify receives the wallet's form post. The wallet holds no cookie;
// the session is named by the state.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}

	res, err := h.auth.Verify(ctx, service.VerifyRequest{
		State:   r.PostForm.Get("state"),
		IDToken: r.PostForm.Get("id_token"),
		VPToken: r.PostForm.Get("vp_token"),
	})
	if err != nil {
		h.fail(ctx, w, "wallet response rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: string(res.Status)})
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable callback body"))
		return
	}
	cb, err := webhook.DecodeCallback(body)
	if err != nil {
		h.fail(ctx, w, "invalid registration callback", err)
		return
	}

	res, err := h.auth.CompleteRegistration(ctx, cb)
	if err != nil {
		h.fail(ctx, w, "registration callback failed", err)
		return
	}
	if !res.Completed {
		http.Redirect(w, r, res.RedirectURL, http.StatusSeeOther)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: "registered"})
}

// handleWaiting streams a single completion event to the browser. The stream
// ends after the event, on client disconnect or on server shutdown.
func (h *Handler) handleWaiting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := requestcontext.SessionID(ctx)
	sub, err := h.auth.Subscribe(ctx, sessionID)
	if err != nil {
		h.fail(ctx, w, "waiting stream refused", err)
		return
	}
	defer sub.Close()

	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	rc := http.NewResponseController(w)
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case sig, ok := <-sub.Signals():
			if !ok {
				return
			}
			if err := writeSignal(w, sig); err != nil {
				h.logger.WarnContext(ctx, "failed to write completion event",
					"session_id", sessionID.String(), "error", err)
				return
			}
			_ = rc.Flush()
			return
		}
	}
}

func writeSignal(w io.Writer, sig notify.Signal) error {
	var err error
	switch sig.Kind {
	case notify.KindReady:
		_, err = io.WriteString(w, "data: ready\n\n")
	case notify.KindAborted:
		_, err = fmt.Fprintf(w, "event: aborted\ndata: %s\n\n", sig.RedirectURL)
	default:
		err = fmt.Errorf("unknown signal kind %q", sig.Kind)
	}
	return err
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logoutURL, err := h.auth.Logout(ctx, chi.URLParam(r, "service"), requestcontext.SessionID(ctx))
	if err != nil {
		h.fail(ctx, w, "logout failed", err)
		return
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, logoutURL, http.StatusSeeOther)
}

func (h *Handler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := h.auth.WhoAmI(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.fail(ctx, w, "whoami failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, identity)
}

// fail logs err at a level matching its status and writes the error response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	status := httputil.StatusFor(dErrors.GetCode(err))
	attrs := []any{"error", err, "status", status, "request_id", requestcontext.RequestID(ctx)}
	if sessionID := requestcontext.SessionID(ctx); !sessionID.IsNil() {
		attrs = append(attrs, "session_id", sessionID.String())
	}
	if status >= http.StatusInternalServerError || dErrors.GetCode(err) == "" {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

// sessionContext stores the cookie's session id in the request context. An
// absent or invalid cookie leaves the nil id.
func sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		sessionID, err := id.ParseSessionID(c.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(r.Context(), sessionID)))
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID id.SessionID) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID.String(),
		Path:     "/",
		MaxAge:   int(session.AuthenticatedTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
