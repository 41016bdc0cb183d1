package admin

import (
	"time"

	"didgate/internal/directory"
	id "didgate/pkg/domain"
)

// KeyResponse is returned once when a key is created. Secret is the only
// time the plaintext leaves the broker.
type KeyResponse struct {
	ID        id.KeyID          `json:"id"`
	ServiceID id.ServiceID      `json:"service_id"`
	Kind      directory.KeyKind `json:"kind"`
	Priority  int               `json:"priority"`
	IsActive  bool              `json:"is_active"`
	Secret    string            `json:"secret"`
	CreatedAt time.Time         `json:"created_at"`
}
