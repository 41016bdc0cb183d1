// Package credential validates the tokens a wallet posts back: the
// self-issued id_token and the verifiable presentation.
package credential

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"didgate/internal/signing"
)

var acceptedAlgorithms = []string{"ES256", "ES384", "ES512", "EdDSA", "RS256", "PS256"}

// IDTokenClaims are the claims read from a self-issued id_token.
type IDTokenClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce"`
}

// KeyID returns the unverified "kid" header of token. For self-issued tokens
// it names the wallet's DID.
func KeyID(token string) (string, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", unauthorized(fmt.Errorf("%w: %w", ErrMalformedToken, err))
	}
	kid, _ := parsed.Header["kid"].(string)
	if kid == "" {
		return "", unauthorized(fmt.Errorf("%w: missing kid", ErrMalformedToken))
	}
	return kid, nil
}

type Verifier struct {
	now func() time.Time
}

type Option func(*Verifier)

func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Verifier) parser(extra ...jwt.ParserOption) *jwt.Parser {
	opts := append([]jwt.ParserOption{
		jwt.WithValidMethods(acceptedAlgorithms),
		jwt.WithTimeFunc(v.now),
	}, extra...)
	return jwt.NewParser(opts...)
}

func keyfunc(key jwk.Key) (jwt.Keyfunc, error) {
	var raw any
	if err := key.Raw(&raw); err != nil {
		return nil, unauthorized(fmt.Errorf("%w: unusable public key: %w", ErrInvalidSignature, err))
	}
	return func(*jwt.Token) (any, error) { return raw, nil }, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return unauthorized(ErrTokenExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return unauthorized(ErrInvalidSignature)
	default:
		return unauthorized(fmt.Errorf("%w: %w", ErrMalformedToken, err))
	}
}

// VerifyIDToken checks the signature of token against key and its expiry.
// exp is mandatory.
func (v *Verifier) VerifyIDToken(token string, key jwk.Key) (*IDTokenClaims, error) {
	kf, err := keyfunc(key)
	if err != nil {
		return nil, err
	}
	claims := &IDTokenClaims{}
	if _, err := v.parser(jwt.WithExpirationRequired()).ParseWithClaims(token, claims, kf); err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

// VerifyNonce checks that the nonce claim was issued with secret.
func VerifyNonce(claims *IDTokenClaims, secret []byte) error {
	random, sig, ok := strings.Cut(claims.Nonce, ":")
	if !ok || random == "" || sig == "" || strings.Contains(sig, ":") {
		return unauthorized(fmt.Errorf("%w: malformed nonce", ErrMalformedToken))
	}
	expected, err := signing.SignNonce(secret, random)
	if err != nil {
		return err
	}
	if !signing.Verify(expected, sig) {
		return unauthorized(ErrNonceMismatch)
	}
	return nil
}

// VerifyPresentation verifies the presentation JWS and returns the subject
// properties of its first credential, without the subject id.
func (v *Verifier) VerifyPresentation(vpToken string, key jwk.Key) (map[string]any, error) {
	kf, err := keyfunc(key)
	if err != nil {
		return nil, err
	}
	claims := jwt.MapClaims{}
	if _, err := v.parser().ParseWithClaims(vpToken, claims, kf); err != nil {
		return nil, classify(err)
	}

	credentials := claims["verifiableCredential"]
	if vp, ok := claims["vp"].(map[string]any); ok && credentials == nil {
		credentials = vp["verifiableCredential"]
	}
	list, ok := credentials.([]any)
	if !ok || len(list) == 0 {
		return nil, malformed("no verifiable credential")
	}

	vc, err := credentialBody(list[0])
	if err != nil {
		return nil, err
	}
	return subjectProperties(vc)
}

func malformed(reason string) error {
	return unauthorized(fmt.Errorf("%w: %s", ErrMalformedPresentation, reason))
}

// credentialBody accepts a credential JWT (decoded without verification) or
// an embedded credential object.
func credentialBody(entry any) (map[string]any, error) {
	var obj map[string]any
	switch c := entry.(type) {
	case string:
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(c, claims); err != nil {
			return nil, malformed("credential is not a jwt")
		}
		obj = claims
	case map[string]any:
		obj = c
	default:
		return nil, malformed("unsupported credential encoding")
	}
	if vc, ok := obj["vc"].(map[string]any); ok {
		return vc, nil
	}
	if _, ok := obj["credentialSubject"]; ok {
		return obj, nil
	}
	return nil, malformed("credential has no vc claim")
}

func subjectProperties(vc map[string]any) (map[string]any, error) {
	var subject map[string]any
	switch s := vc["credentialSubject"].(type) {
	case map[string]any:
		subject = s
	case []any:
		if len(s) != 1 {
			return nil, malformed("expected exactly one credential subject")
		}
		m, ok := s[0].(map[string]any)
		if !ok {
			return nil, malformed("credential subject is not an object")
		}
		subject = m
	default:
		return nil, malformed("credential has no subject")
	}

	props := make(map[string]any, len(subject))
	for k, val := range subject {
		if k != "id" {
			props[k] = val
		}
	}
	if len(props) == 0 {
		return nil, malformed("credential subject has no properties")
	}
	return props, nil
}
