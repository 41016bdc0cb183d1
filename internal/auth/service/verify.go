package service

import (
	"context"
	"errors"

	"didgate/internal/credential"
	"didgate/internal/did"
	"didgate/internal/directory"
	"didgate/internal/notify"
	"didgate/internal/session"
	"didgate/internal/signing"
	"didgate/internal/webhook"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/sentinel"
)

// Verify checks the wallet's response against the session named in its
// state. Sign-in completes the session immediately; sign-up hands the
// presented data to the service and leaves the session waiting. On any
// failure the session is left as it was.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	state, err := signing.ParseState(req.State)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed state")
	}

	sess, err := s.sessions.Get(ctx, state.SessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.verifyFailed(ctx, nil, "session_not_found", unauthorized(ErrSessionExpired))
		}
		return nil, s.verifyFailed(ctx, nil, "session_unreadable", internal(err, "failed to load session"))
	}
	if !sess.IsAuthenticating() {
		return nil, s.verifyFailed(ctx, &sess, "session_not_authenticating", unauthorized(ErrSessionNotAuthenticating))
	}

	svc, err := s.directory.FindService(ctx, sess.ServiceID)
	if err != nil {
		return nil, s.verifyFailed(ctx, &sess, "service_unavailable", internal(err, "failed to load service"))
	}
	secret, err := s.secrets.Secret(ctx, svc.ID, directory.KeyKindToken)
	if err != nil {
		return nil, s.verifyFailed(ctx, &sess, "key_unavailable", err)
	}

	if err := state.Verify(secret); err != nil {
		return nil, s.verifyFailed(ctx, &sess, "state_mismatch", unauthorized(err))
	}

	subject, err := credential.KeyID(req.IDToken)
	if err != nil {
		return nil, s.verifyFailed(ctx, &sess, "malformed_id_token", err)
	}

	doc, err := s.resolver.Resolve(ctx, subject)
	if err != nil {
		return nil, s.verifyFailed(ctx, &sess, "did_resolution", err)
	}
	method, err := s.resolver.SelectAuthenticationMethod(ctx, doc)
	if err != nil {
		return nil, s.verifyFailed(ctx, &sess, "verification_method", err)
	}
	key, err := did.PublicKey(method)
	if err != nil {
		return nil, s.verifyFailed(ctx, &sess, "public_key", err)
	}

	claims, err := s.verifier.VerifyIDToken(req.IDToken, key)
	if err != nil {
		return nil, s.verifyFailed(ctx, &sess, "id_token", err)
	}
	if err := credential.VerifyNonce(claims, secret); err != nil {
		return nil, s.verifyFailed(ctx, &sess, "nonce", err)
	}

	switch sess.State.Action {
	case session.ActionSignIn:
		return s.signIn(ctx, &sess, svc, subject)
	case session.ActionSignUp:
		profile, err := s.verifier.VerifyPresentation(req.VPToken, key)
		if err != nil {
			return nil, s.verifyFailed(ctx, &sess, "presentation", err)
		}
		return s.signUp(ctx, &sess, svc, subject, profile)
	default:
		return nil, s.verifyFailed(ctx, &sess, "unknown_action", dErrors.New(dErrors.CodeInvariantViolation, "unknown session action"))
	}
}

func (s *Service) signIn(ctx context.Context, sess *session.Session, svc *directory.Service, subject string) (*VerifyResult, error) {
	identifier, err := s.directory.FindIdentifierByValue(ctx, subject)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.verifyFailed(ctx, sess, "unknown_identifier", notFound(ErrUnknownIdentifier))
		}
		return nil, s.verifyFailed(ctx, sess, "identifier_lookup", internal(err, "failed to load identifier"))
	}
	user, err := s.directory.FindUser(ctx, identifier.UserID)
	if err != nil {
		return nil, s.verifyFailed(ctx, sess, "user_lookup", internal(err, "failed to load user"))
	}
	// Identifiers are registered per service.
	if user.ServiceID != svc.ID {
		return nil, s.verifyFailed(ctx, sess, "identifier_other_service", notFound(ErrUnknownIdentifier))
	}

	updated := *sess
	if err := updated.Authenticate(user.ID, identifier.ID); err != nil {
		return nil, s.verifyFailed(ctx, sess, "transition", err)
	}
	if err := s.sessions.Set(ctx, updated.ID, updated, session.AuthenticatedTTL); err != nil {
		return nil, s.verifyFailed(ctx, sess, "session_write", internal(err, "failed to store session"))
	}

	s.metrics.IncVerification(session.ActionSignIn.String(), "authenticated")
	s.logAudit(ctx, audit.Event{
		Action:    string(audit.EventSessionAuthenticated),
		UserID:    user.ID,
		ServiceID: svc.ID,
		Subject:   subject,
	},
		"session_id", updated.ID.String(),
		"service_id", svc.ID.String(),
		"user_id", user.ID.String(),
	)
	s.publish(ctx, updated.ID, notify.Ready())

	return &VerifyResult{Status: StatusAuthenticated, SessionID: updated.ID}, nil
}

func (s *Service) signUp(ctx context.Context, sess *session.Session, svc *directory.Service, subject string, profile map[string]any) (*VerifyResult, error) {
	env := webhook.New(webhook.Registration{
		ID:         sess.UserID,
		Identifier: subject,
		Profile:    profile,
	}, s.now(ctx))
	body, err := env.Encode()
	if err != nil {
		return nil, s.verifyFailed(ctx, sess, "webhook_encode", internal(err, "failed to encode webhook"))
	}

	correlation := webhook.Correlation{
		ID:         env.Meta.ID,
		SessionID:  sess.ID,
		ServiceID:  svc.ID,
		Identifier: subject,
		Kind:       env.Meta.Kind,
	}
	if err := s.correlations.Set(ctx, correlation.ID, correlation, webhook.CorrelationTTL); err != nil {
		return nil, s.verifyFailed(ctx, sess, "correlation_write", internal(err, "failed to store webhook correlation"))
	}

	job := webhook.Job{
		WebhookID: env.Meta.ID,
		ServiceID: svc.ID,
		URL:       svc.WebhookURL,
		Body:      body,
		Attempt:   1,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		if delErr := s.correlations.Del(ctx, correlation.ID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to drop correlation after enqueue failure",
				"webhook_id", correlation.ID.String(), "error", delErr)
		}
		return nil, s.verifyFailed(ctx, sess, "webhook_enqueue", internal(err, "failed to queue webhook"))
	}

	s.metrics.IncVerification(session.ActionSignUp.String(), "pending")
	s.logger.InfoContext(ctx, "registration webhook queued",
		"session_id", sess.ID.String(),
		"service_id", svc.ID.String(),
		"webhook_id", env.Meta.ID.String(),
	)
	return &VerifyResult{Status: StatusPending, SessionID: sess.ID}, nil
}

// verifyFailed records a failed verification and returns err unchanged.
func (s *Service) verifyFailed(ctx context.Context, sess *session.Session, reason string, err error) error {
	action := "unknown"
	event := audit.Event{Action: string(audit.EventAuthFailed), Reason: reason}
	attrs := []any{"reason", reason, "error", err}
	if sess != nil {
		if a := sess.State.Action.String(); a != "" {
			action = a
		}
		event.ServiceID = sess.ServiceID
		event.Subject = sess.ID.String()
		attrs = append(attrs, "session_id", sess.ID.String(), "service_id", sess.ServiceID.String())
	}
	s.metrics.IncVerification(action, reason)
	s.logAudit(ctx, event, attrs...)
	return err
}

func (s *Service) publish(ctx context.Context, sessionID id.SessionID, signal notify.Signal) {
	if err := s.notifier.Publish(ctx, sessionID, signal); err != nil {
		s.logger.WarnContext(ctx, "failed to publish completion signal",
			"session_id", sessionID.String(),
			"signal", string(signal.Kind),
			"error", err,
		)
	}
}
