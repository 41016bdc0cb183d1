package keys

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"didgate/internal/directory"
	"didgate/internal/directory/store"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
)

const testMasterKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestCipher(t *testing.T) {
	c, err := NewCipher(testMasterKey)
	require.NoError(t, err)

	t.Run("seal then open", func(t *testing.T) {
		sealed, err := c.Seal([]byte("token-secret"))
		require.NoError(t, err)
		assert.NotContains(t, string(sealed), "token-secret")

		opened, err := c.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, []byte("token-secret"), opened)
	})

	t.Run("each seal uses a fresh nonce", func(t *testing.T) {
		a, err := c.Seal([]byte("x"))
		require.NoError(t, err)
		b, err := c.Seal([]byte("x"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("tampered ciphertext fails", func(t *testing.T) {
		sealed, err := c.Seal([]byte("token-secret"))
		require.NoError(t, err)
		sealed[len(sealed)-1] ^= 0xff
		_, err = c.Open(sealed)
		assert.ErrorIs(t, err, ErrDecryptFailure)
	})

	t.Run("short ciphertext fails", func(t *testing.T) {
		_, err := c.Open([]byte{1, 2, 3})
		assert.ErrorIs(t, err, ErrDecryptFailure)
	})

	t.Run("other master key cannot open", func(t *testing.T) {
		sealed, err := c.Seal([]byte("token-secret"))
		require.NoError(t, err)
		other, err := NewCipher(strings.Repeat("ab", 32))
		require.NoError(t, err)
		_, err = other.Open(sealed)
		assert.ErrorIs(t, err, ErrDecryptFailure)
	})
}

func TestNewCipherRejectsBadMasterKey(t *testing.T) {
	for name, key := range map[string]string{
		"not hex":   strings.Repeat("zz", 32),
		"too short": "0011",
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewCipher(key)
			assert.Error(t, err)
		})
	}
}

func TestResolverSecret(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewCipher(testMasterKey)
	require.NoError(t, err)

	dir := store.NewMemory()
	svc, err := directory.NewService("shop", "https://shop.example", "https://shop.example", "https://shop.example", time.Now())
	require.NoError(t, err)
	require.NoError(t, dir.CreateService(ctx, svc))

	sealed, err := c.Seal([]byte("signing-secret"))
	require.NoError(t, err)
	require.NoError(t, dir.CreateKey(ctx, &directory.Key{
		ID: id.NewKeyID(), ServiceID: svc.ID, Kind: directory.KeyKindToken,
		Value: sealed, IsActive: true, CreatedAt: time.Now(),
	}))
	require.NoError(t, dir.CreateKey(ctx, &directory.Key{
		ID: id.NewKeyID(), ServiceID: svc.ID, Kind: directory.KeyKindAPI,
		Value: []byte("garbage"), IsActive: true, CreatedAt: time.Now(),
	}))

	r := NewResolver(dir, c, logger)

	t.Run("decrypts preferred key", func(t *testing.T) {
		secret, err := r.Secret(ctx, svc.ID, directory.KeyKindToken)
		require.NoError(t, err)
		assert.Equal(t, []byte("signing-secret"), secret)
	})

	t.Run("missing key is internal", func(t *testing.T) {
		_, err := r.Secret(ctx, id.NewServiceID(), directory.KeyKindToken)
		assert.ErrorIs(t, err, ErrKeyNotFound)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("undecryptable key is internal", func(t *testing.T) {
		_, err := r.Secret(ctx, svc.ID, directory.KeyKindAPI)
		assert.ErrorIs(t, err, ErrDecryptFailure)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
