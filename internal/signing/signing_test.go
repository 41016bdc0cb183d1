package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "didgate/pkg/domain"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestSign_MatchesHMACOverConcatenation(t *testing.T) {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("csrf"))
	mac.Write([]byte("session"))
	want := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	got, err := Sign(secret, []byte("csrf"), []byte("session"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	joined, err := Sign(secret, []byte("csrfsession"))
	require.NoError(t, err)
	assert.Equal(t, got, joined, "parts are concatenated before hashing")
}

func TestSign_RejectsEmptySecret(t *testing.T) {
	_, err := Sign(nil, []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewState([]byte{}, id.NewSessionID())
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignState_Deterministic(t *testing.T) {
	sessionID := id.NewSessionID()

	a, err := SignState(secret, "csrf1", sessionID)
	require.NoError(t, err)
	b, err := SignState(secret, "csrf1", sessionID)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := SignState(secret, "csrf1", id.NewSessionID())
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestState_RoundTrip(t *testing.T) {
	sessionID := id.NewSessionID()

	raw, err := NewState(secret, sessionID)
	require.NoError(t, err)

	state, err := ParseState(raw)
	require.NoError(t, err)
	assert.Equal(t, sessionID, state.SessionID)
	assert.NoError(t, state.Verify(secret))
}

func TestState_AnyMutatedSignatureByteFails(t *testing.T) {
	raw, err := NewState(secret, id.NewSessionID())
	require.NoError(t, err)
	state, err := ParseState(raw)
	require.NoError(t, err)

	for i := range len(state.Signature) {
		mutated := state
		b := []byte(state.Signature)
		b[i] ^= 0x01
		mutated.Signature = string(b)
		assert.ErrorIs(t, mutated.Verify(secret), ErrStateMismatch, "byte %d", i)
	}
}

func TestState_WrongSecretFails(t *testing.T) {
	raw, err := NewState(secret, id.NewSessionID())
	require.NoError(t, err)
	state, err := ParseState(raw)
	require.NoError(t, err)

	assert.ErrorIs(t, state.Verify([]byte("another-secret")), ErrStateMismatch)
}

func TestParseState_Malformed(t *testing.T) {
	sessionID := id.NewSessionID().String()
	tests := map[string]string{
		"empty":          "",
		"two parts":      "csrf:" + sessionID,
		"four parts":     "csrf:" + sessionID + ":sig:extra",
		"bad session id": "csrf:sess-123:sig",
		"empty csrf":     ":" + sessionID + ":sig",
		"empty sig":      "csrf:" + sessionID + ":",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseState(raw)
			assert.ErrorIs(t, err, ErrMalformedState)
		})
	}
}

func TestNewNonce_Format(t *testing.T) {
	nonce, err := NewNonce(secret)
	require.NoError(t, err)

	random, sig, ok := strings.Cut(nonce, ":")
	require.True(t, ok)
	expected, err := SignNonce(secret, random)
	require.NoError(t, err)
	assert.True(t, Verify(expected, sig))
	assert.NotContains(t, sig, ":")
}
