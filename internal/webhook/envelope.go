// Package webhook hands sign-up data to the relying service and correlates
// the service's callback with the waiting session.
package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
)

// Kind discriminates webhook payloads.
type Kind string

const KindRegistration Kind = "registration"

func (k Kind) Valid() bool {
	return k == KindRegistration
}

type Meta struct {
	ID        id.WebhookID `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Kind      Kind         `json:"kind"`
}

// Payload is the body of an envelope. Every payload names its kind.
type Payload interface {
	Kind() Kind
}

// Registration asks the service to accept a new user.
type Registration struct {
	ID         id.UserID      `json:"id"`
	Identifier string         `json:"identifier"`
	Profile    map[string]any `json:"profile"`
}

func (Registration) Kind() Kind { return KindRegistration }

type Envelope struct {
	Meta Meta    `json:"meta"`
	Data Payload `json:"data"`
}

// New stamps payload with a fresh webhook id and timestamp.
func New(payload Payload, now time.Time) Envelope {
	return Envelope{
		Meta: Meta{
			ID:        id.NewWebhookID(),
			Timestamp: now.UTC().Truncate(time.Second),
			Kind:      payload.Kind(),
		},
		Data: payload,
	}
}

// Encode renders the envelope; timestamps are RFC 3339.
func (e Envelope) Encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode webhook %s: %w", e.Meta.ID, err)
	}
	return body, nil
}

// Callback is what the service posts back to /hook.
type Callback struct {
	Meta     CallbackMeta `json:"meta"`
	Complete bool         `json:"complete"`
}

// CallbackMeta echoes the envelope meta. Only the id is authoritative; the
// kind is taken from the stored correlation.
type CallbackMeta struct {
	ID        id.WebhookID `json:"id"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
	Kind      Kind         `json:"kind,omitempty"`
}

type callbackBody struct {
	Meta     CallbackMeta `json:"meta"`
	Complete *bool        `json:"complete"`
}

// DecodeCallback parses a callback body. meta.id and complete are required:
// a false complete aborts the registration, so it must be stated explicitly.
func DecodeCallback(body []byte) (Callback, error) {
	var raw callbackBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return Callback{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid callback body")
	}
	if raw.Meta.ID.IsNil() {
		return Callback{}, dErrors.New(dErrors.CodeBadRequest, "callback meta.id is required")
	}
	if raw.Complete == nil {
		return Callback{}, dErrors.New(dErrors.CodeBadRequest, "callback complete is required")
	}
	return Callback{Meta: raw.Meta, Complete: *raw.Complete}, nil
}
