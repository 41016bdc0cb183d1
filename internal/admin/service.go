// Package admin manages relying services, their keys and their default
// sign-up definitions for operators.
package admin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"didgate/internal/directory"
	"didgate/pkg/attrs"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/sentinel"
	"didgate/pkg/requestcontext"
)

// Store is the slice of the directory the admin API writes to.
type Store interface {
	directory.ServiceStore
	directory.KeyStore
	directory.DefinitionStore
}

// Sealer encrypts secrets before they are stored.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	sealer         Sealer
	logger         *slog.Logger
	auditPublisher AuditPublisher
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

func NewService(store Store, sealer Sealer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("directory store is required")
	}
	if sealer == nil {
		return nil, errors.New("sealer is required")
	}
	s := &Service{store: store, sealer: sealer, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) CreateService(ctx context.Context, req CreateServiceRequest) (*directory.Service, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	svc, err := directory.NewService(req.Name, req.RedirectURL, req.LogoutURL, req.WebhookURL, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateService(ctx, svc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "service name already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create service")
	}

	s.logAudit(ctx, audit.EventServiceCreated, "service_id", svc.ID.String(), "name", svc.Name)
	return svc, nil
}

// CreateKey stores a new active key for the service. The plaintext secret is
// returned to the caller and never stored.
func (s *Service) CreateKey(ctx context.Context, serviceID id.ServiceID, req CreateKeyRequest) (*KeyResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	kind, _ := directory.ParseKeyKind(req.Kind)

	if _, err := s.findService(ctx, serviceID); err != nil {
		return nil, err
	}

	secret := req.Secret
	if secret == "" {
		generated, err := generateSecret()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate secret")
		}
		secret = generated
	}
	sealed, err := s.sealer.Seal([]byte(secret))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt secret")
	}

	key := &directory.Key{
		ID:        id.NewKeyID(),
		ServiceID: serviceID,
		Kind:      kind,
		Value:     sealed,
		Priority:  req.Priority,
		IsActive:  true,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.CreateKey(ctx, key); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "service not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store key")
	}

	s.logAudit(ctx, audit.EventServiceKeyCreated,
		"service_id", serviceID.String(),
		"key_id", key.ID.String(),
		"kind", string(kind),
	)
	return &KeyResponse{
		ID:        key.ID,
		ServiceID: key.ServiceID,
		Kind:      key.Kind,
		Priority:  key.Priority,
		IsActive:  key.IsActive,
		Secret:    secret,
		CreatedAt: key.CreatedAt,
	}, nil
}

// SetDefinition replaces the service's default definition.
func (s *Service) SetDefinition(ctx context.Context, serviceID id.ServiceID, req DefinitionRequest) (*directory.Definition, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.findService(ctx, serviceID); err != nil {
		return nil, err
	}

	def := &directory.Definition{
		ID:        id.NewDefinitionID(),
		ServiceID: serviceID,
		Name:      req.Name,
		Fields:    req.Fields,
	}
	if def.Fields == nil {
		def.Fields = []string{}
	}
	if err := s.store.SetDefaultDefinition(ctx, def); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "service not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store definition")
	}

	s.logAudit(ctx, audit.EventDefinitionSet,
		"service_id", serviceID.String(),
		"definition_id", def.ID.String(),
		"fields", len(def.Fields),
	)
	return def, nil
}

func (s *Service) findService(ctx context.Context, serviceID id.ServiceID) (*directory.Service, error) {
	svc, err := s.store.FindService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "service not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load service")
	}
	return svc, nil
}

func generateSecret() (string, error) {
	b := make([]byte, generatedKeySize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// logAudit logs the event and emits it with the service id taken from the
// attributes.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	s.logger.InfoContext(ctx, string(event), args...)

	if s.auditPublisher == nil {
		return
	}
	e := audit.Event{
		Action:  string(event),
		Subject: attrs.FirstString(attributes, "key_id", "definition_id"),
	}
	if serviceID, err := id.ParseServiceID(attrs.FirstString(attributes, "service_id")); err == nil {
		e.ServiceID = serviceID
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
