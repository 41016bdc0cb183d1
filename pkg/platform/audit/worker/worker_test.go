package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "didgate/pkg/domain"
	audit "didgate/pkg/platform/audit"
	"didgate/pkg/platform/audit/store/memory"
)

func TestWorker_DrainsUntilClosed(t *testing.T) {
	store := memory.NewInMemoryStore()
	inbox := make(chan audit.Event, 3)
	userID := id.NewUserID()

	for range 3 {
		inbox <- audit.Event{UserID: userID, Action: string(audit.EventSessionCreated)}
	}
	close(inbox)

	NewWorker(store, inbox, nil).Run(context.Background())

	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}
