//go:build integration

package ttlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "didgate/pkg/domain"
	"didgate/pkg/platform/sentinel"
	"didgate/pkg/testutil/containers"
)

func TestRedisBackend(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	store := New[record](NewRedisBackend(rc.Client), "hook")
	key := id.NewWebhookID()

	require.NoError(t, store.Set(ctx, key, record{Name: "did:example:abc"}, time.Minute))

	ttl, err := rc.Client.TTL(ctx, "hook-"+key.String()).Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 2)

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "did:example:abc", got.Name)

	require.NoError(t, store.Del(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, rc.Client.Set(ctx, "hook-"+key.String(), "garbage", time.Minute).Err())
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCorrupt)

	rc.Reset(t)
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
