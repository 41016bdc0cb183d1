// Package did resolves DID documents through a universal resolver and picks
// the key a wallet authenticates with.
package did

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"didgate/internal/platform/metrics"
	"didgate/pkg/platform/circuit"
)

const (
	acceptResolution = `application/ld+json;profile="https://w3id.org/did-resolution"`
	maxResponseBytes = 1 << 20
	defaultTimeout   = 10 * time.Second
)

type resolutionResult struct {
	DIDDocument *Document `json:"didDocument"`
}

// Client talks to a universal resolver at baseURL (e.g.
// http://resolver:8080/1.0/identifiers).
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) { cl.breaker = b }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(cl *Client) { cl.tracer = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		breaker: circuit.New("did-resolver"),
		tracer:  otel.Tracer("didgate/did"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve fetches the DID document for did.
func (c *Client) Resolve(ctx context.Context, did string) (*Document, error) {
	ctx, span := c.tracer.Start(ctx, "did.resolve", trace.WithAttributes(attribute.String("did", did)))
	defer span.End()

	if !c.breaker.Allow() {
		c.metrics.ObserveDIDResolution("circuit_open", 0)
		span.SetStatus(codes.Error, "circuit open")
		return nil, gatewayError(ErrResolution, "did resolver unavailable")
	}

	start := time.Now()
	doc, err := c.fetch(ctx, did)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		c.recordSuccess()
		c.metrics.ObserveDIDResolution("ok", elapsed)
		return doc, nil
	case errors.Is(err, errUpstream):
		c.recordFailure(ctx)
	default:
		c.recordSuccess()
	}

	c.metrics.ObserveDIDResolution("error", elapsed)
	span.RecordError(err)
	span.SetStatus(codes.Error, "resolution failed")
	c.logger.WarnContext(ctx, "did resolution failed", "did", did, "error", err)

	if errors.Is(err, ErrDocumentMissing) {
		return nil, gatewayError(ErrDocumentMissing, "did document missing")
	}
	return nil, gatewayError(fmt.Errorf("%w: %w", ErrResolution, err), "did resolution failed")
}

// errUpstream marks failures that count against the breaker: transport errors
// and 5xx answers.
var errUpstream = errors.New("resolver upstream failure")

func (c *Client) fetch(ctx context.Context, did string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(did), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", acceptResolution)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", errUpstream, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", errUpstream, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("resolver status %d", resp.StatusCode)
	}

	var result resolutionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode resolution result: %w", err)
	}
	if result.DIDDocument == nil {
		return nil, ErrDocumentMissing
	}
	return result.DIDDocument, nil
}

func (c *Client) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "did resolver circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Client) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("did resolver circuit closed", "breaker", c.breaker.Name())
	}
}

// SelectAuthenticationMethod picks the first authentication entry of doc and
// returns the verification method it designates. An absolute DID URL pointing
// at another DID is resolved once; its document's references are not
// followed further.
func (c *Client) SelectAuthenticationMethod(ctx context.Context, doc *Document) (*VerificationMethod, error) {
	if doc.VerificationMethod == nil {
		return nil, unauthorized(ErrMissingVerificationMethods)
	}
	if len(doc.Authentication) == 0 {
		return nil, unauthorized(ErrMissingAuthenticationMethods)
	}

	first := doc.Authentication[0]
	if first.Embedded != nil {
		return first.Embedded, nil
	}

	ref := first.Reference
	if didPart, ok := splitDIDURL(ref); ok && didPart != doc.ID {
		other, err := c.Resolve(ctx, didPart)
		if err != nil {
			return nil, err
		}
		if vm, found := other.findMethod(ref); found {
			return vm, nil
		}
		return nil, unauthorized(ErrVerificationMethodNotFound)
	}

	if vm, found := doc.findMethod(ref); found {
		return vm, nil
	}
	return nil, unauthorized(ErrVerificationMethodNotFound)
}

// PublicKey parses the method's JWK. Only keys declaring "use":"sig" are
// returned.
func PublicKey(method *VerificationMethod) (jwk.Key, error) {
	if method == nil || len(method.PublicKeyJwk) == 0 || string(method.PublicKeyJwk) == "null" {
		return nil, unauthorized(ErrMissingPublicKey)
	}
	key, err := jwk.ParseKey(method.PublicKeyJwk)
	if err != nil {
		return nil, unauthorized(fmt.Errorf("%w: %w", ErrMissingPublicKey, err))
	}
	if key.KeyUsage() != string(jwk.ForSignature) {
		return nil, unauthorized(ErrKeyNotForVerification)
	}
	return key, nil
}
