package did

import (
	"errors"

	dErrors "didgate/pkg/domain-errors"
)

var (
	ErrResolution                   = errors.New("did resolution failed")
	ErrDocumentMissing              = errors.New("did resolution returned no document")
	ErrMissingVerificationMethods   = errors.New("did document has no verification methods")
	ErrMissingAuthenticationMethods = errors.New("did document has no authentication methods")
	ErrVerificationMethodNotFound   = errors.New("verification method not found")
	ErrMissingPublicKey             = errors.New("verification method has no public key")
	ErrKeyNotForVerification        = errors.New("key is not intended for signature verification")
)

func gatewayError(err error, msg string) error {
	return dErrors.Wrap(err, dErrors.CodeBadGateway, msg)
}

func unauthorized(err error) error {
	return dErrors.Wrap(err, dErrors.CodeUnauthorized, "wallet key rejected")
}
