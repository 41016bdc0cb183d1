package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "didgate/pkg/domain"
)

func TestAccessors_DefaultToZeroValues(t *testing.T) {
	ctx := context.Background()

	assert.True(t, SessionID(ctx).IsNil())
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, Device(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessors_ReturnInjectedValues(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	sessionID := id.NewSessionID()

	ctx := WithTime(context.Background(), fixed)
	ctx = WithSessionID(ctx, sessionID)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithClientMetadata(ctx, "10.0.0.1", "Mozilla/5.0", "Firefox on Linux")

	assert.Equal(t, fixed, Now(ctx))
	assert.Equal(t, sessionID, SessionID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "Mozilla/5.0", UserAgent(ctx))
	assert.Equal(t, "Firefox on Linux", Device(ctx))
}
