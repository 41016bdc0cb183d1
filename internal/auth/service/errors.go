package service

import (
	"errors"

	dErrors "didgate/pkg/domain-errors"
)

var (
	ErrUnknownIdentifier        = errors.New("no user is registered with this identifier")
	ErrUnknownCorrelation       = errors.New("unknown or expired webhook")
	ErrSessionExpired           = errors.New("session expired")
	ErrSessionNotAuthenticating = errors.New("session is not awaiting authentication")
	ErrIdentifierAlreadyExists  = errors.New("identifier already registered")
	ErrUnsupportedWebhookKind   = errors.New("unsupported webhook kind")
)

func notFound(err error) error     { return dErrors.Wrap(err, dErrors.CodeNotFound, err.Error()) }
func unauthorized(err error) error { return dErrors.Wrap(err, dErrors.CodeUnauthorized, err.Error()) }
func conflict(err error) error     { return dErrors.Wrap(err, dErrors.CodeConflict, err.Error()) }

func internal(err error, msg string) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
