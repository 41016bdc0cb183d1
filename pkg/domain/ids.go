// Package domain holds the typed identifiers shared across the broker.
//
// Each identifier is a distinct type over a UUID so the compiler rejects a
// SessionID where a UserID is expected. Parsing happens once at the trust
// boundary (cookie, form value, path parameter, store row) and rejects the nil
// UUID.
package domain

import (
	"github.com/google/uuid"

	dErrors "didgate/pkg/domain-errors"
)

type (
	SessionID    uuid.UUID
	UserID       uuid.UUID
	ServiceID    uuid.UUID
	IdentifierID uuid.UUID
	WebhookID    uuid.UUID
	KeyID        uuid.UUID
	DefinitionID uuid.UUID
)

func parseID[T ~[16]byte](s, kind string) (T, error) {
	var zero T
	if s == "" {
		return zero, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return T(u), nil
}

func unmarshalID[T ~[16]byte](dst *T, text []byte, kind string) error {
	if len(text) == 0 {
		*dst = T(uuid.Nil)
		return nil
	}
	v, err := parseID[T](string(text), kind)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func ParseSessionID(s string) (SessionID, error) { return parseID[SessionID](s, "session id") }
func ParseUserID(s string) (UserID, error)       { return parseID[UserID](s, "user id") }
func ParseServiceID(s string) (ServiceID, error) { return parseID[ServiceID](s, "service id") }
func ParseIdentifierID(s string) (IdentifierID, error) {
	return parseID[IdentifierID](s, "identifier id")
}
func ParseWebhookID(s string) (WebhookID, error) { return parseID[WebhookID](s, "webhook id") }
func ParseKeyID(s string) (KeyID, error)         { return parseID[KeyID](s, "key id") }
func ParseDefinitionID(s string) (DefinitionID, error) {
	return parseID[DefinitionID](s, "definition id")
}

func NewSessionID() SessionID       { return SessionID(uuid.New()) }
func NewUserID() UserID             { return UserID(uuid.New()) }
func NewServiceID() ServiceID       { return ServiceID(uuid.New()) }
func NewIdentifierID() IdentifierID { return IdentifierID(uuid.New()) }
func NewWebhookID() WebhookID       { return WebhookID(uuid.New()) }
func NewKeyID() KeyID               { return KeyID(uuid.New()) }
func NewDefinitionID() DefinitionID { return DefinitionID(uuid.New()) }

func (id SessionID) String() string    { return uuid.UUID(id).String() }
func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id ServiceID) String() string    { return uuid.UUID(id).String() }
func (id IdentifierID) String() string { return uuid.UUID(id).String() }
func (id WebhookID) String() string    { return uuid.UUID(id).String() }
func (id KeyID) String() string        { return uuid.UUID(id).String() }
func (id DefinitionID) String() string { return uuid.UUID(id).String() }

func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ServiceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id IdentifierID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id WebhookID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// Bytes returns the 16 raw UUID bytes. Used as signing input.
func (id SessionID) Bytes() []byte {
	u := uuid.UUID(id)
	return u[:]
}

func (id SessionID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id ServiceID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id IdentifierID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id WebhookID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id KeyID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id DefinitionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *SessionID) UnmarshalText(b []byte) error { return unmarshalID(id, b, "session id") }
func (id *UserID) UnmarshalText(b []byte) error    { return unmarshalID(id, b, "user id") }
func (id *ServiceID) UnmarshalText(b []byte) error { return unmarshalID(id, b, "service id") }
func (id *IdentifierID) UnmarshalText(b []byte) error {
	return unmarshalID(id, b, "identifier id")
}
func (id *WebhookID) UnmarshalText(b []byte) error { return unmarshalID(id, b, "webhook id") }
func (id *KeyID) UnmarshalText(b []byte) error     { return unmarshalID(id, b, "key id") }
func (id *DefinitionID) UnmarshalText(b []byte) error {
	return unmarshalID(id, b, "definition id")
}
