package did

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/trace/noop"

	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/circuit"
)

func publicJWK(t *testing.T, use string) json.RawMessage {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	key, err := jwk.FromRaw(priv.Public())
	require.NoError(t, err)
	if use != "" {
		require.NoError(t, key.Set(jwk.KeyUsageKey, use))
	}
	raw, err := json.Marshal(key)
	require.NoError(t, err)
	return raw
}

type ResolverSuite struct {
	suite.Suite
	server    *httptest.Server
	documents map[string]string
	requests  atomic.Int32
	status    int
	client    *Client
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.documents = map[string]string{}
	s.status = http.StatusOK
	s.requests.Store(0)
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.Equal(acceptResolution, r.Header.Get("Accept"))
		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			return
		}
		did := strings.TrimPrefix(r.URL.Path, "/1.0/identifiers/")
		body, ok := s.documents[did]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/ld+json")
		_, _ = io.WriteString(w, body)
	}))
	s.client = NewClient(s.server.URL+"/1.0/identifiers/",
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2))),
		WithTracer(noop.NewTracerProvider().Tracer("did-test")),
	)
}

func (s *ResolverSuite) TearDownTest() {
	s.server.Close()
}

func (s *ResolverSuite) publish(did, document string) {
	s.documents[did] = `{"didDocument":` + document + `,"didResolutionMetadata":{}}`
}

func (s *ResolverSuite) TestResolve() {
	s.publish("did:example:alice", `{"id":"did:example:alice","verificationMethod":[],"authentication":[]}`)

	s.Run("returns document", func() {
		doc, err := s.client.Resolve(context.Background(), "did:example:alice")
		s.Require().NoError(err)
		s.Equal("did:example:alice", doc.ID)
		s.NotNil(doc.VerificationMethod)
	})

	s.Run("unknown did is a resolution failure", func() {
		_, err := s.client.Resolve(context.Background(), "did:example:bob")
		s.ErrorIs(err, ErrResolution)
		s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
	})

	s.Run("result without document", func() {
		s.documents["did:example:empty"] = `{"didResolutionMetadata":{"error":"notFound"}}`
		_, err := s.client.Resolve(context.Background(), "did:example:empty")
		s.ErrorIs(err, ErrDocumentMissing)
		s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
	})

	s.Run("malformed json", func() {
		s.documents["did:example:junk"] = `{not json`
		_, err := s.client.Resolve(context.Background(), "did:example:junk")
		s.ErrorIs(err, ErrResolution)
	})
}

func (s *ResolverSuite) TestBreakerOpensOnUpstreamFailures() {
	s.status = http.StatusServiceUnavailable
	for range 2 {
		_, err := s.client.Resolve(context.Background(), "did:example:alice")
		s.ErrorIs(err, ErrResolution)
	}
	s.Equal(int32(2), s.requests.Load())

	_, err := s.client.Resolve(context.Background(), "did:example:alice")
	s.ErrorIs(err, ErrResolution)
	s.Equal(int32(2), s.requests.Load(), "open breaker must not reach the resolver")
}

func (s *ResolverSuite) TestSelectAuthenticationMethod() {
	ctx := context.Background()
	jwkA := string(publicJWK(s.T(), "sig"))

	s.Run("relative reference", func() {
		doc := decodeDoc(s.T(), `{"id":"did:example:a","verificationMethod":[{"id":"#key-1","type":"JsonWebKey2020","publicKeyJwk":`+jwkA+`}],"authentication":["#key-1"]}`)
		vm, err := s.client.SelectAuthenticationMethod(ctx, doc)
		s.Require().NoError(err)
		s.Equal("#key-1", vm.ID)
	})

	s.Run("relative reference matches absolute method id", func() {
		doc := decodeDoc(s.T(), `{"id":"did:example:a","verificationMethod":[{"id":"did:example:a#key-1"}],"authentication":["#key-1"]}`)
		vm, err := s.client.SelectAuthenticationMethod(ctx, doc)
		s.Require().NoError(err)
		s.Equal("did:example:a#key-1", vm.ID)
	})

	s.Run("same-document did url needs no resolution", func() {
		before := s.requests.Load()
		doc := decodeDoc(s.T(), `{"id":"did:example:a","verificationMethod":[{"id":"did:example:a#key-1"}],"authentication":["did:example:a#key-1"]}`)
		vm, err := s.client.SelectAuthenticationMethod(ctx, doc)
		s.Require().NoError(err)
		s.Equal("did:example:a#key-1", vm.ID)
		s.Equal(before, s.requests.Load())
	})

	s.Run("foreign did url resolves the other document", func() {
		s.publish("did:example:controller", `{"id":"did:example:controller","verificationMethod":[{"id":"did:example:controller#k"}],"authentication":["#k"]}`)
		doc := decodeDoc(s.T(), `{"id":"did:example:a","verificationMethod":[],"authentication":["did:example:controller#k"]}`)
		vm, err := s.client.SelectAuthenticationMethod(ctx, doc)
		s.Require().NoError(err)
		s.Equal("did:example:controller#k", vm.ID)
	})

	s.Run("embedded method", func() {
		doc := decodeDoc(s.T(), `{"id":"did:example:a","verificationMethod":[],"authentication":[{"id":"#inline","type":"JsonWebKey2020","publicKeyJwk":`+jwkA+`}]}`)
		vm, err := s.client.SelectAuthenticationMethod(ctx, doc)
		s.Require().NoError(err)
		s.Equal("#inline", vm.ID)
	})

	s.Run("missing verification methods", func() {
		doc := decodeDoc(s.T(), `{"id":"did:example:a","authentication":["#key-1"]}`)
		_, err := s.client.SelectAuthenticationMethod(ctx, doc)
		s.ErrorIs(err, ErrMissingVerificationMethods)
	})

	s.Run("missing authentication", func() {
		doc := decodeDoc(s.T(), `{"id":"did:example:a","verificationMethod":[{"id":"#key-1"}]}`)
		_, err := s.client.SelectAuthenticationMethod(ctx, doc)
		s.ErrorIs(err, ErrMissingAuthenticationMethods)
	})

	s.Run("dangling reference", func() {
		doc := decodeDoc(s.T(), `{"id":"did:example:a","verificationMethod":[{"id":"#key-1"}],"authentication":["#key-2"]}`)
		_, err := s.client.SelectAuthenticationMethod(ctx, doc)
		s.ErrorIs(err, ErrVerificationMethodNotFound)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func decodeDoc(t *testing.T, raw string) *Document {
	t.Helper()
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return &doc
}

func TestPublicKey(t *testing.T) {
	t.Run("key without use is rejected", func(t *testing.T) {
		_, err := PublicKey(&VerificationMethod{PublicKeyJwk: publicJWK(t, "")})
		assert.ErrorIs(t, err, ErrKeyNotForVerification)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("signature key is accepted", func(t *testing.T) {
		key, err := PublicKey(&VerificationMethod{PublicKeyJwk: publicJWK(t, "sig")})
		require.NoError(t, err)
		assert.Equal(t, "EC", key.KeyType().String())
	})

	t.Run("rejection message does not repeat the cause", func(t *testing.T) {
		_, err := PublicKey(&VerificationMethod{PublicKeyJwk: publicJWK(t, "enc")})
		assert.Equal(t, "wallet key rejected", dErrors.Message(err))
		assert.Equal(t, "wallet key rejected: "+ErrKeyNotForVerification.Error(), err.Error())
	})

	t.Run("encryption key is rejected", func(t *testing.T) {
		_, err := PublicKey(&VerificationMethod{PublicKeyJwk: publicJWK(t, "enc")})
		assert.ErrorIs(t, err, ErrKeyNotForVerification)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("absent jwk", func(t *testing.T) {
		_, err := PublicKey(&VerificationMethod{ID: "#k"})
		assert.ErrorIs(t, err, ErrMissingPublicKey)
	})
}

func TestVerificationRelationshipRejectsNumbers(t *testing.T) {
	var doc Document
	err := json.Unmarshal([]byte(`{"id":"did:example:a","authentication":[42]}`), &doc)
	assert.Error(t, err)
}
