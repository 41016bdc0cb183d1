// Package signing issues and checks the HMAC-signed tokens that bind a wallet
// response to the browser session that requested it: the state
// ("<random>:<session_id>:<sig>") and the nonce ("<random>:<sig>").
package signing

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	id "didgate/pkg/domain"
)

var (
	// ErrInvalidKey is returned for an empty signing secret.
	ErrInvalidKey = errors.New("invalid signing key")
	// ErrMalformedState is returned when a state string is not three
	// colon-separated parts with a valid session id.
	ErrMalformedState = errors.New("malformed state")
	// ErrStateMismatch is returned when a state signature does not verify.
	ErrStateMismatch = errors.New("state signature mismatch")
)

const randomBytes = 16

// Sign computes HMAC-SHA256 over the concatenation of parts and returns it as
// URL-safe base64.
func Sign(secret []byte, parts ...[]byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrInvalidKey
	}
	mac := hmac.New(sha256.New, secret)
	for _, p := range parts {
		mac.Write(p)
	}
	return base64.URLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// SignState signs the CSRF token followed by the raw session id bytes.
func SignState(secret []byte, csrf string, sessionID id.SessionID) (string, error) {
	return Sign(secret, []byte(csrf), sessionID.Bytes())
}

func SignNonce(secret []byte, nonce string) (string, error) {
	return Sign(secret, []byte(nonce))
}

// Verify compares two signatures in constant time.
func Verify(expected, received string) bool {
	return hmac.Equal([]byte(expected), []byte(received))
}

// State is a parsed challenge state.
type State struct {
	CSRF      string
	SessionID id.SessionID
	Signature string
}

// NewState returns a fresh signed state for sessionID.
func NewState(secret []byte, sessionID id.SessionID) (string, error) {
	csrf, err := random()
	if err != nil {
		return "", err
	}
	sig, err := SignState(secret, csrf, sessionID)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{csrf, sessionID.String(), sig}, ":"), nil
}

// ParseState splits raw into its three parts without checking the signature.
func ParseState(raw string) (State, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return State{}, ErrMalformedState
	}
	sessionID, err := id.ParseSessionID(parts[1])
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return State{CSRF: parts[0], SessionID: sessionID, Signature: parts[2]}, nil
}

// Verify recomputes the state signature with secret.
func (s State) Verify(secret []byte) error {
	expected, err := SignState(secret, s.CSRF, s.SessionID)
	if err != nil {
		return err
	}
	if !Verify(expected, s.Signature) {
		return ErrStateMismatch
	}
	return nil
}

// NewNonce returns a fresh signed nonce "<random>:<sig>".
func NewNonce(secret []byte) (string, error) {
	nonce, err := random()
	if err != nil {
		return "", err
	}
	sig, err := SignNonce(secret, nonce)
	if err != nil {
		return "", err
	}
	return nonce + ":" + sig, nil
}

func random() (string, error) {
	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
