package service

import (
	"context"
	"errors"
	"fmt"

	"didgate/internal/directory"
	"didgate/internal/notify"
	"didgate/internal/session"
	"didgate/internal/webhook"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/sentinel"
)

// CompleteRegistration handles the service's answer to a registration
// webhook. The kind stored with the correlation decides the handling, not
// the kind echoed in the callback.
func (s *Service) CompleteRegistration(ctx context.Context, cb webhook.Callback) (*CallbackResult, error) {
	correlation, err := s.correlations.Get(ctx, cb.Meta.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.callbackRejected(ctx, cb.Meta.ID, "unknown_correlation")
			return nil, unauthorized(ErrUnknownCorrelation)
		}
		return nil, internal(err, "failed to load webhook correlation")
	}

	switch correlation.Kind {
	case webhook.KindRegistration:
		if !cb.Complete {
			return s.abortRegistration(ctx, correlation)
		}
		return s.completeRegistration(ctx, correlation)
	default:
		s.callbackRejected(ctx, cb.Meta.ID, "unsupported_kind")
		return nil, dErrors.Wrap(fmt.Errorf("%w: %q", ErrUnsupportedWebhookKind, correlation.Kind), dErrors.CodeInternal, "unsupported webhook kind")
	}
}

func (s *Service) abortRegistration(ctx context.Context, correlation webhook.Correlation) (*CallbackResult, error) {
	svc, err := s.directory.FindService(ctx, correlation.ServiceID)
	if err != nil {
		return nil, internal(err, "failed to load service")
	}

	if err := s.sessions.Del(ctx, correlation.SessionID); err != nil {
		return nil, internal(err, "failed to delete session")
	}
	if err := s.correlations.Del(ctx, correlation.ID); err != nil {
		return nil, internal(err, "failed to delete webhook correlation")
	}

	s.metrics.IncRegistrationAborted()
	s.logAudit(ctx, audit.Event{
		Action:    string(audit.EventRegistrationAborted),
		ServiceID: svc.ID,
		Subject:   correlation.Identifier,
	},
		"session_id", correlation.SessionID.String(),
		"service_id", svc.ID.String(),
		"webhook_id", correlation.ID.String(),
	)
	s.publish(ctx, correlation.SessionID, notify.Aborted(svc.LogoutURL))

	return &CallbackResult{Completed: false, RedirectURL: svc.LogoutURL}, nil
}

func (s *Service) completeRegistration(ctx context.Context, correlation webhook.Correlation) (*CallbackResult, error) {
	sess, err := s.sessions.Get(ctx, correlation.SessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			if delErr := s.correlations.Del(ctx, correlation.ID); delErr != nil {
				s.logger.WarnContext(ctx, "failed to delete orphaned correlation",
					"webhook_id", correlation.ID.String(), "error", delErr)
			}
			s.callbackRejected(ctx, correlation.ID, "session_expired")
			return nil, unauthorized(ErrSessionExpired)
		}
		return nil, internal(err, "failed to load session")
	}
	if err := sess.CanAuthenticate(); err != nil {
		s.callbackRejected(ctx, correlation.ID, "session_not_authenticating")
		return nil, unauthorized(ErrSessionNotAuthenticating)
	}

	if _, err := s.directory.FindIdentifierByValue(ctx, correlation.Identifier); err == nil {
		s.callbackRejected(ctx, correlation.ID, "identifier_exists")
		return nil, conflict(ErrIdentifierAlreadyExists)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, internal(err, "failed to check identifier")
	}

	now := s.now(ctx)
	user := &directory.User{ID: sess.UserID, ServiceID: sess.ServiceID, CreatedAt: now}
	identifier := &directory.Identifier{
		ID:        id.NewIdentifierID(),
		Value:     correlation.Identifier,
		UserID:    user.ID,
		CreatedAt: now,
	}
	if err := s.directory.Register(ctx, user, identifier); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.callbackRejected(ctx, correlation.ID, "identifier_exists")
			return nil, conflict(ErrIdentifierAlreadyExists)
		}
		return nil, internal(err, "failed to register user")
	}

	if err := sess.Authenticate(user.ID, identifier.ID); err != nil {
		return nil, err
	}
	if err := s.sessions.Set(ctx, sess.ID, sess, session.AuthenticatedTTL); err != nil {
		return nil, internal(err, "failed to store session")
	}
	if err := s.correlations.Del(ctx, correlation.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete completed correlation",
			"webhook_id", correlation.ID.String(), "error", err)
	}

	s.metrics.IncRegistrationCompleted()
	s.logAudit(ctx, audit.Event{
		Action:    string(audit.EventUserCreated),
		UserID:    user.ID,
		ServiceID: user.ServiceID,
		Subject:   identifier.Value,
	},
		"session_id", sess.ID.String(),
		"service_id", user.ServiceID.String(),
		"user_id", user.ID.String(),
		"webhook_id", correlation.ID.String(),
	)
	s.publish(ctx, sess.ID, notify.Ready())

	return &CallbackResult{Completed: true, UserID: user.ID}, nil
}

func (s *Service) callbackRejected(ctx context.Context, webhookID id.WebhookID, reason string) {
	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventCallbackRejected),
		Subject: webhookID.String(),
		Reason:  reason,
	},
		"webhook_id", webhookID.String(),
		"reason", reason,
	)
}
