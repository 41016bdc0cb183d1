package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"didgate/pkg/platform/middleware/metadata"
	"didgate/pkg/testutil"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("redis down")
}

func limited(m *Middleware, class Class) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return metadata.ClientMetadata(m.Limit(class)(next))
}

func fromIP(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth", nil)
	req.RemoteAddr = ip + ":40000"
	return req
}

func TestLimit_RejectsOverLimitPerIP(t *testing.T) {
	m := New(NewMemoryStore(), nil, WithPolicy(Policy{
		ClassWallet: {Limit: 2, Window: time.Minute},
	}))
	h := limited(m, ClassWallet)

	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, fromIP("203.0.113.7"))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, fromIP("203.0.113.7"))
	testutil.AssertStatusAndError(t, rec, http.StatusTooManyRequests, "rate_limit_exceeded")
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, fromIP("198.51.100.1"))
	assert.Equal(t, http.StatusNoContent, rec.Code, "other clients keep their own window")
}

func TestLimit_ClassesAreCountedSeparately(t *testing.T) {
	store := NewMemoryStore()
	m := New(store, nil, WithPolicy(Policy{
		ClassStart:  {Limit: 1, Window: time.Minute},
		ClassWallet: {Limit: 1, Window: time.Minute},
	}))

	rec := httptest.NewRecorder()
	limited(m, ClassStart).ServeHTTP(rec, fromIP("203.0.113.7"))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	limited(m, ClassWallet).ServeHTTP(rec, fromIP("203.0.113.7"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLimit_PassThrough(t *testing.T) {
	t.Run("class without a rule", func(t *testing.T) {
		m := New(NewMemoryStore(), nil, WithPolicy(Policy{}))
		for range 5 {
			rec := httptest.NewRecorder()
			limited(m, ClassCallback).ServeHTTP(rec, fromIP("203.0.113.7"))
			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
		}
	})

	t.Run("disabled", func(t *testing.T) {
		m := New(NewMemoryStore(), nil, WithDisabled(true), WithPolicy(Policy{
			ClassWallet: {Limit: 1, Window: time.Minute},
		}))
		for range 3 {
			rec := httptest.NewRecorder()
			limited(m, ClassWallet).ServeHTTP(rec, fromIP("203.0.113.7"))
			assert.Equal(t, http.StatusNoContent, rec.Code)
		}
	})

	t.Run("store failure fails open", func(t *testing.T) {
		m := New(failingStore{}, nil)
		rec := httptest.NewRecorder()
		limited(m, ClassWallet).ServeHTTP(rec, fromIP("203.0.113.7"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
