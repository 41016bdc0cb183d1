package service

import (
	"context"
	"errors"

	"didgate/internal/directory"
	"didgate/internal/session"
	"didgate/internal/signing"
	"didgate/internal/ttlstore"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/sentinel"
)

// Start begins (or resumes) a wallet flow for a service and returns the
// authorization URI to present to the wallet.
func (s *Service) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	action, err := session.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}

	svc, err := s.directory.FindServiceByName(ctx, req.ServiceName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "service not found")
		}
		return nil, internal(err, "failed to load service")
	}

	secret, err := s.secrets.Secret(ctx, svc.ID, directory.KeyKindToken)
	if err != nil {
		return nil, err
	}

	sess, isNew, err := s.sessionForStart(ctx, req, svc, action)
	if err != nil {
		return nil, err
	}

	state, err := signing.NewState(secret, sess.ID)
	if err != nil {
		return nil, internal(err, "failed to sign state")
	}
	nonce, err := signing.NewNonce(secret)
	if err != nil {
		return nil, internal(err, "failed to sign nonce")
	}

	var def *directory.Definition
	if action == session.ActionSignUp {
		def, err = s.directory.DefaultDefinition(ctx, svc.ID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, internal(err, "failed to load definition")
		}
	}

	uri, err := s.authorizationURI(svc.Name, state, nonce, NewPresentationDefinition(action, def))
	if err != nil {
		return nil, internal(err, "failed to build authorization uri")
	}

	if isNew {
		s.metrics.IncSessionStarted(action.String())
		s.logAudit(ctx, audit.Event{
			Action:    string(audit.EventSessionCreated),
			UserID:    sess.UserID,
			ServiceID: svc.ID,
			Subject:   sess.ID.String(),
			Reason:    action.String(),
		},
			"session_id", sess.ID.String(),
			"service_id", svc.ID.String(),
			"action", action.String(),
		)
	}

	return &StartResult{
		Session:          sess,
		NewSession:       isNew,
		AuthorizationURI: uri,
		RedirectURL:      svc.RedirectURL,
		WaitingURL:       s.authnURL + "/waiting",
	}, nil
}

// sessionForStart reuses the cookie's session when it is still waiting on
// the same service and action; anything else gets a fresh session.
func (s *Service) sessionForStart(ctx context.Context, req StartRequest, svc *directory.Service, action session.Action) (*session.Session, bool, error) {
	if !req.SessionID.IsNil() {
		existing, err := s.sessions.Get(ctx, req.SessionID)
		switch {
		case err == nil:
			if existing.IsAuthenticating() && existing.ServiceID == svc.ID && existing.State.Action == action {
				return &existing, false, nil
			}
		case errors.Is(err, sentinel.ErrNotFound):
		case errors.Is(err, ttlstore.ErrCorrupt):
			s.logger.WarnContext(ctx, "replacing corrupt session", "session_id", req.SessionID.String(), "error", err)
		default:
			return nil, false, internal(err, "failed to load session")
		}
	}

	sess := session.New(svc.ID, action)
	if err := s.sessions.Set(ctx, sess.ID, *sess, session.PendingTTL); err != nil {
		return nil, false, internal(err, "failed to store session")
	}
	return sess, true, nil
}
