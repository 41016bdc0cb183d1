package keys

import (
	"context"
	"errors"
	"log/slog"

	"didgate/internal/directory"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/sentinel"
)

var ErrKeyNotFound = errors.New("service key not found")

// Decrypter opens a sealed key value.
type Decrypter interface {
	Open(ciphertext []byte) ([]byte, error)
}

// Resolver loads a service's preferred key of a kind and decrypts it.
type Resolver struct {
	keys      directory.KeyStore
	decrypter Decrypter
	logger    *slog.Logger
}

func NewResolver(keys directory.KeyStore, decrypter Decrypter, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{keys: keys, decrypter: decrypter, logger: logger}
}

// Secret returns the plaintext secret. Both a missing key and a key that fails
// to decrypt are configuration faults and surface as internal errors.
func (r *Resolver) Secret(ctx context.Context, serviceID id.ServiceID, kind directory.KeyKind) ([]byte, error) {
	key, err := r.keys.PreferredKey(ctx, serviceID, kind)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			r.logger.ErrorContext(ctx, "no active key for service",
				"service_id", serviceID.String(),
				"kind", string(kind),
			)
			return nil, dErrors.Wrap(ErrKeyNotFound, dErrors.CodeInternal, "service key not configured")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load service key")
	}

	secret, err := r.decrypter.Open(key.Value)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to decrypt service key",
			"service_id", serviceID.String(),
			"key_id", key.ID.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(ErrDecryptFailure, dErrors.CodeInternal, "service key unreadable")
	}
	return secret, nil
}
