package webhook

import (
	"time"

	"didgate/internal/ttlstore"
	id "didgate/pkg/domain"
)

const (
	// CorrelationPrefix namespaces correlation records: "hook-<webhook_id>".
	CorrelationPrefix = "hook"
	CorrelationTTL    = 5 * time.Minute
)

// Correlation ties an outstanding webhook to the session waiting on it. The
// identifier is pinned when the webhook is sent.
type Correlation struct {
	ID         id.WebhookID `json:"id"`
	SessionID  id.SessionID `json:"session_id"`
	ServiceID  id.ServiceID `json:"service_id"`
	Identifier string       `json:"identifier"`
	Kind       Kind         `json:"kind"`
}

type CorrelationStore = ttlstore.Store[Correlation]

func NewCorrelationStore(backend ttlstore.Backend) *CorrelationStore {
	return ttlstore.New[Correlation](backend, CorrelationPrefix)
}
