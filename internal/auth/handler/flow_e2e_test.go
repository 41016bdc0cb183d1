package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"didgate/internal/auth/handler"
	"didgate/internal/auth/service"
	"didgate/internal/credential"
	"didgate/internal/did"
	"didgate/internal/directory"
	"didgate/internal/directory/store"
	"didgate/internal/keys"
	"didgate/internal/notify"
	"didgate/internal/session"
	"didgate/internal/ttlstore"
	"didgate/internal/webhook"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/middleware/metadata"
	"didgate/pkg/testutil"
)

const e2eMasterKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// relyingService records the envelopes the broker delivers to it.
type relyingService struct {
	server    *httptest.Server
	envelopes chan map[string]any
}

func newRelyingService(t *testing.T) *relyingService {
	rs := &relyingService{envelopes: make(chan map[string]any, 4)}
	rs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env map[string]any
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rs.envelopes <- env
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(rs.server.Close)
	return rs
}

// newBroker serves the auth routes over real stores, an in-memory webhook
// queue and a fake resolver knowing wallet.
func newBroker(t *testing.T, wallet *testutil.Wallet, rs *relyingService) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dir := store.NewMemory()
	svc, err := directory.NewService("shop",
		"https://shop.example.com/home",
		"https://shop.example.com/bye",
		rs.server.URL+"/webhooks",
		time.Now())
	require.NoError(t, err)
	require.NoError(t, dir.CreateService(ctx, svc))

	cipher, err := keys.NewCipher(e2eMasterKey)
	require.NoError(t, err)
	sealed, err := cipher.Seal([]byte("token-secret-for-shop"))
	require.NoError(t, err)
	require.NoError(t, dir.CreateKey(ctx, &directory.Key{
		ID:        id.NewKeyID(),
		ServiceID: svc.ID,
		Kind:      directory.KeyKindToken,
		Value:     sealed,
		Priority:  1,
		IsActive:  true,
		CreatedAt: time.Now(),
	}))

	queue := webhook.NewMemoryQueue(webhook.NewWorker(webhook.WithAckWait(2*time.Second)), 8)
	go func() { _ = queue.Run(ctx) }()

	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	broker := httptest.NewServer(r)
	t.Cleanup(broker.Close)

	backend := ttlstore.NewMemoryBackend()
	auth, err := service.New(service.Deps{
		Sessions:     session.NewStore(backend),
		Correlations: webhook.NewCorrelationStore(backend),
		Directory:    dir,
		Secrets:      keys.NewResolver(dir, cipher, nil),
		Resolver:     did.NewClient(testutil.NewFakeResolver(t, wallet).URL()),
		Verifier:     credential.NewVerifier(),
		Queue:        queue,
		Notifier:     notify.NewMemoryNotifier(),
	}, broker.URL)
	require.NoError(t, err)
	handler.New(auth, nil, nil, handler.WithInsecureCookies()).Register(r)
	return broker
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// readEvents forwards the data lines of a server-sent event stream.
func readEvents(body io.Reader) <-chan string {
	out := make(chan string, 4)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(body)
		for sc.Scan() {
			if line, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
				out <- line
			}
		}
	}()
	return out
}

func TestSignUpThenSignInOverHTTP(t *testing.T) {
	wallet := testutil.NewWallet(t, "did:example:alice")
	rs := newRelyingService(t)
	broker := newBroker(t, wallet, rs)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	browser := &http.Client{Jar: jar, Timeout: 5 * time.Second}
	// No client timeout: the stream stays open until the completion event.
	streamer := &http.Client{Jar: jar}
	walletClient := &http.Client{Timeout: 5 * time.Second}

	scenario := t
	var (
		authURI  *url.URL
		events   <-chan string
		envelope map[string]any
	)

	testutil.Given(t, "a browser that started a sign-up", func(t *testing.T) {
		resp, err := browser.Get(broker.URL + "/shop/up")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var start struct {
			AuthorizationURI string `json:"authorization_uri"`
		}
		decodeBody(t, resp, &start)
		authURI, err = url.Parse(start.AuthorizationURI)
		require.NoError(t, err)

		stream, err := streamer.Get(broker.URL + "/waiting")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, stream.StatusCode)
		assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))
		scenario.Cleanup(func() { stream.Body.Close() })
		events = readEvents(stream.Body)
	})

	testutil.When(t, "the wallet posts its response", func(t *testing.T) {
		require.NotNil(t, authURI)
		q := authURI.Query()
		form := url.Values{
			"state":    {q.Get("state")},
			"id_token": {wallet.IDToken(t, broker.URL+"/auth", q.Get("nonce"), time.Now().Add(time.Minute))},
			"vp_token": {wallet.Presentation(t, map[string]any{"email": "alice@example.com"})},
		}
		resp, err := walletClient.PostForm(broker.URL+"/auth", form)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out map[string]string
		decodeBody(t, resp, &out)
		assert.Equal(t, "pending", out["status"])
	})

	testutil.Then(t, "the relying service receives the registration webhook", func(t *testing.T) {
		select {
		case envelope = <-rs.envelopes:
		case <-time.After(3 * time.Second):
			t.Fatal("webhook not delivered")
		}
		data := envelope["data"].(map[string]any)
		assert.Equal(t, "did:example:alice", data["identifier"])
		assert.Equal(t, "alice@example.com", data["profile"].(map[string]any)["email"])
	})

	testutil.When(t, "the relying service confirms the registration", func(t *testing.T) {
		require.NotNil(t, envelope)
		meta := envelope["meta"].(map[string]any)
		body, err := json.Marshal(map[string]any{
			"meta":     map[string]any{"id": meta["id"], "kind": meta["kind"]},
			"complete": true,
		})
		require.NoError(t, err)
		resp, err := http.Post(broker.URL+"/hook", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	testutil.Then(t, "the waiting browser is told the session is ready", func(t *testing.T) {
		select {
		case ev := <-events:
			assert.Equal(t, "ready", ev)
		case <-time.After(3 * time.Second):
			t.Fatal("no completion event")
		}
	})

	testutil.And(t, "the browser session carries the new identity", func(t *testing.T) {
		resp, err := browser.Get(broker.URL + "/whoami")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var who service.Identity
		decodeBody(t, resp, &who)
		assert.Equal(t, "did:example:alice", who.Identifier)
	})

	testutil.Then(t, "the same wallet can later sign in", func(t *testing.T) {
		fresh, err := cookiejar.New(nil)
		require.NoError(t, err)
		other := &http.Client{Jar: fresh, Timeout: 5 * time.Second}

		resp, err := other.Get(broker.URL + "/shop/in")
		require.NoError(t, err)
		var start struct {
			AuthorizationURI string `json:"authorization_uri"`
		}
		decodeBody(t, resp, &start)
		u, err := url.Parse(start.AuthorizationURI)
		require.NoError(t, err)
		q := u.Query()

		resp, err = walletClient.PostForm(broker.URL+"/auth", url.Values{
			"state":    {q.Get("state")},
			"id_token": {wallet.IDToken(t, broker.URL+"/auth", q.Get("nonce"), time.Now().Add(time.Minute))},
		})
		require.NoError(t, err)
		var out map[string]string
		decodeBody(t, resp, &out)
		assert.Equal(t, "authenticated", out["status"])

		resp, err = other.Get(broker.URL + "/whoami")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})
}
