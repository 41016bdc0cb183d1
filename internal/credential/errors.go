package credential

import (
	"errors"

	dErrors "didgate/pkg/domain-errors"
)

var (
	ErrMalformedToken        = errors.New("malformed token")
	ErrInvalidSignature      = errors.New("invalid token signature")
	ErrTokenExpired          = errors.New("token expired")
	ErrNonceMismatch         = errors.New("nonce mismatch")
	ErrMalformedPresentation = errors.New("malformed presentation")
)

// All verifier failures are the wallet's fault and answer 401.
func unauthorized(err error) error {
	return dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid wallet response")
}
