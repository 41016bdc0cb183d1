package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Wallet is a fake SIOPv2 wallet: a DID with one P-256 signing key.
type Wallet struct {
	DID  string
	priv *ecdsa.PrivateKey
	jwk  json.RawMessage
}

func NewWallet(t *testing.T, did string) *Wallet {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate wallet key: %v", err)
	}
	key, err := jwk.FromRaw(&priv.PublicKey)
	if err != nil {
		t.Fatalf("wallet jwk: %v", err)
	}
	if err := key.Set(jwk.KeyUsageKey, "sig"); err != nil {
		t.Fatalf("wallet jwk use: %v", err)
	}
	raw, err := json.Marshal(key)
	if err != nil {
		t.Fatalf("encode wallet jwk: %v", err)
	}
	return &Wallet{DID: did, priv: priv, jwk: raw}
}

// Document is the wallet's DID document with a relative authentication
// reference.
func (w *Wallet) Document() map[string]any {
	return map[string]any{
		"id": w.DID,
		"verificationMethod": []any{map[string]any{
			"id":           "#key-1",
			"type":         "JsonWebKey2020",
			"controller":   w.DID,
			"publicKeyJwk": w.jwk,
		}},
		"authentication": []any{"#key-1"},
	}
}

func (w *Wallet) sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tok.Header["kid"] = w.DID
	signed, err := tok.SignedString(w.priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// IDToken issues a self-signed id_token carrying nonce and expiring at exp.
func (w *Wallet) IDToken(t *testing.T, audience, nonce string, exp time.Time) string {
	return w.sign(t, jwt.MapClaims{
		"iss":   w.DID,
		"sub":   w.DID,
		"aud":   audience,
		"iat":   time.Now().Unix(),
		"exp":   exp.Unix(),
		"nonce": nonce,
	})
}

// Presentation wraps one credential with the given subject properties.
func (w *Wallet) Presentation(t *testing.T, subject map[string]any) string {
	subj := map[string]any{"id": w.DID}
	for k, v := range subject {
		subj[k] = v
	}
	credential := w.sign(t, jwt.MapClaims{
		"iss": "did:example:issuer",
		"sub": w.DID,
		"vc": map[string]any{
			"type":              []string{"VerifiableCredential"},
			"credentialSubject": subj,
		},
	})
	return w.sign(t, jwt.MapClaims{
		"iss": w.DID,
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"vp":  map[string]any{"verifiableCredential": []any{credential}},
	})
}

// FakeResolver serves DID resolution results for registered wallets under
// /1.0/identifiers/{did}.
type FakeResolver struct {
	Server *httptest.Server
	mu     sync.Mutex
	docs   map[string]map[string]any
}

func NewFakeResolver(t *testing.T, wallets ...*Wallet) *FakeResolver {
	t.Helper()
	r := &FakeResolver{docs: map[string]map[string]any{}}
	for _, w := range wallets {
		r.docs[w.DID] = w.Document()
	}
	r.Server = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.Server.Close)
	return r
}

// URL is the resolver base URL to configure clients with.
func (r *FakeResolver) URL() string {
	return r.Server.URL + "/1.0/identifiers"
}

func (r *FakeResolver) Add(w *Wallet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[w.DID] = w.Document()
}

func (r *FakeResolver) serve(w http.ResponseWriter, req *http.Request) {
	did := strings.TrimPrefix(req.URL.Path, "/1.0/identifiers/")
	r.mu.Lock()
	doc, ok := r.docs[did]
	r.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/ld+json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"didDocument":           doc,
		"didResolutionMetadata": map[string]any{},
	})
}
