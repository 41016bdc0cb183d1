// Package service drives a browser session from start, through the wallet's
// response, to an authenticated session (directly for sign-in, via the
// service's registration webhook for sign-up).
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks SessionStore,CorrelationStore,Directory,SecretResolver,DIDResolver,TokenVerifier,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"didgate/internal/credential"
	"didgate/internal/did"
	"didgate/internal/directory"
	"didgate/internal/notify"
	"didgate/internal/platform/metrics"
	"didgate/internal/session"
	"didgate/internal/webhook"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/audit"
	"didgate/pkg/requestcontext"
)

type SessionStore interface {
	Get(ctx context.Context, id fmt.Stringer) (session.Session, error)
	Set(ctx context.Context, id fmt.Stringer, value session.Session, ttl time.Duration) error
	Del(ctx context.Context, id fmt.Stringer) error
}

type CorrelationStore interface {
	Get(ctx context.Context, id fmt.Stringer) (webhook.Correlation, error)
	Set(ctx context.Context, id fmt.Stringer, value webhook.Correlation, ttl time.Duration) error
	Del(ctx context.Context, id fmt.Stringer) error
}

// Directory is the durable data the flow reads and the registrar it writes
// through.
type Directory interface {
	FindService(ctx context.Context, serviceID id.ServiceID) (*directory.Service, error)
	FindServiceByName(ctx context.Context, name string) (*directory.Service, error)
	DefaultDefinition(ctx context.Context, serviceID id.ServiceID) (*directory.Definition, error)
	FindUser(ctx context.Context, userID id.UserID) (*directory.User, error)
	FindIdentifier(ctx context.Context, identifierID id.IdentifierID) (*directory.Identifier, error)
	FindIdentifierByValue(ctx context.Context, value string) (*directory.Identifier, error)
	Register(ctx context.Context, user *directory.User, identifier *directory.Identifier) error
}

type SecretResolver interface {
	Secret(ctx context.Context, serviceID id.ServiceID, kind directory.KeyKind) ([]byte, error)
}

type DIDResolver interface {
	Resolve(ctx context.Context, subject string) (*did.Document, error)
	SelectAuthenticationMethod(ctx context.Context, doc *did.Document) (*did.VerificationMethod, error)
}

type TokenVerifier interface {
	VerifyIDToken(token string, key jwk.Key) (*credential.IDTokenClaims, error)
	VerifyPresentation(vpToken string, key jwk.Key) (map[string]any, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the authentication state machine.
type Service struct {
	sessions     SessionStore
	correlations CorrelationStore
	directory    Directory
	secrets      SecretResolver
	resolver     DIDResolver
	verifier     TokenVerifier
	queue        webhook.Queue
	notifier     notify.Notifier

	authnURL       string
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Deps groups the collaborators the service cannot run without.
type Deps struct {
	Sessions     SessionStore
	Correlations CorrelationStore
	Directory    Directory
	Secrets      SecretResolver
	Resolver     DIDResolver
	Verifier     TokenVerifier
	Queue        webhook.Queue
	Notifier     notify.Notifier
}

// New constructs a Service. authnURL is the broker's public base URL; the
// wallet posts back to <authnURL>/auth.
func New(deps Deps, authnURL string, opts ...Option) (*Service, error) {
	switch {
	case deps.Sessions == nil:
		return nil, errors.New("session store is required")
	case deps.Correlations == nil:
		return nil, errors.New("correlation store is required")
	case deps.Directory == nil:
		return nil, errors.New("directory is required")
	case deps.Secrets == nil:
		return nil, errors.New("secret resolver is required")
	case deps.Resolver == nil:
		return nil, errors.New("did resolver is required")
	case deps.Verifier == nil:
		return nil, errors.New("token verifier is required")
	case deps.Queue == nil:
		return nil, errors.New("webhook queue is required")
	case deps.Notifier == nil:
		return nil, errors.New("notifier is required")
	case authnURL == "":
		return nil, errors.New("authn url is required")
	}

	s := &Service{
		sessions:     deps.Sessions,
		correlations: deps.Correlations,
		directory:    deps.Directory,
		secrets:      deps.Secrets,
		resolver:     deps.Resolver,
		verifier:     deps.Verifier,
		queue:        deps.Queue,
		notifier:     deps.Notifier,
		authnURL:     strings.TrimRight(authnURL, "/"),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// logAudit writes the event to the log and, when configured, the audit trail.
func (s *Service) logAudit(ctx context.Context, event audit.Event, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event.Action, "log_type", "audit")
	s.logger.InfoContext(ctx, event.Action, args...)

	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}

func (s *Service) now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx)
}
