package service

import (
	"context"
	"errors"

	"didgate/internal/notify"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/sentinel"
)

// Logout ends the session, if any, and returns the service's logout URL.
func (s *Service) Logout(ctx context.Context, serviceName string, sessionID id.SessionID) (string, error) {
	svc, err := s.directory.FindServiceByName(ctx, serviceName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "service not found")
		}
		return "", internal(err, "failed to load service")
	}

	if !sessionID.IsNil() {
		if err := s.sessions.Del(ctx, sessionID); err != nil {
			return "", internal(err, "failed to delete session")
		}
		s.logAudit(ctx, audit.Event{
			Action:    string(audit.EventSessionEnded),
			ServiceID: svc.ID,
			Subject:   sessionID.String(),
		},
			"session_id", sessionID.String(),
			"service_id", svc.ID.String(),
		)
	}
	return svc.LogoutURL, nil
}

// WhoAmI returns the user behind an authenticated session.
func (s *Service) WhoAmI(ctx context.Context, sessionID id.SessionID) (*Identity, error) {
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeNotFound, "no session")
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no session")
		}
		return nil, internal(err, "failed to load session")
	}
	if !sess.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not authenticated")
	}

	user, err := s.directory.FindUser(ctx, sess.UserID)
	if err != nil {
		return nil, internal(err, "failed to load user")
	}
	identifier, err := s.directory.FindIdentifier(ctx, sess.State.IdentifierID)
	if err != nil {
		return nil, internal(err, "failed to load identifier")
	}
	return &Identity{ID: user.ID, Identifier: identifier.Value}, nil
}

// Subscribe opens the completion channel for a session. A session that is
// already authenticated yields a subscription holding a single ready signal,
// so a signal published before the browser connected is not lost.
func (s *Service) Subscribe(ctx context.Context, sessionID id.SessionID) (notify.Subscription, error) {
	if sessionID.IsNil() {
		return nil, unauthorized(ErrSessionExpired)
	}
	sub, err := s.notifier.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, internal(err, "failed to subscribe")
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		_ = sub.Close()
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, unauthorized(ErrSessionExpired)
		}
		return nil, internal(err, "failed to load session")
	}
	if sess.IsAuthenticated() {
		_ = sub.Close()
		return notify.Immediate(notify.Ready()), nil
	}
	return sub, nil
}
