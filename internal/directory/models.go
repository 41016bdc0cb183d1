// Package directory holds the durable records the broker authenticates
// against: relying services, their keys and field definitions, and the users
// and DID identifiers created by sign-up.
package directory

import (
	"context"
	"net/url"
	"strings"
	"time"

	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
)

// Service is a relying party registered with the broker.
type Service struct {
	ID          id.ServiceID `json:"id"`
	Name        string       `json:"name"`
	RedirectURL string       `json:"redirect_url"`
	LogoutURL   string       `json:"logout_url"`
	WebhookURL  string       `json:"webhook_url"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewService validates and builds a Service.
func NewService(name, redirectURL, logoutURL, webhookURL string, now time.Time) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "service name is required")
	}
	if strings.ContainsAny(name, "/?#") {
		return nil, dErrors.New(dErrors.CodeValidation, "service name must be a single path segment")
	}
	for field, raw := range map[string]string{
		"redirect_url": redirectURL,
		"logout_url":   logoutURL,
		"webhook_url":  webhookURL,
	} {
		if err := validateURL(raw); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, field+" must be an absolute http(s) URL")
		}
	}
	return &Service{
		ID:          id.NewServiceID(),
		Name:        name,
		RedirectURL: redirectURL,
		LogoutURL:   logoutURL,
		WebhookURL:  webhookURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return dErrors.New(dErrors.CodeValidation, "invalid url")
	}
	return nil
}

// KeyKind separates the API key a service uses against the broker from the
// token key that signs state and nonce values.
type KeyKind string

const (
	KeyKindAPI   KeyKind = "api"
	KeyKindToken KeyKind = "token"
)

func ParseKeyKind(s string) (KeyKind, error) {
	switch KeyKind(s) {
	case KeyKindAPI, KeyKindToken:
		return KeyKind(s), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "key kind must be api or token")
	}
}

// Key is an encrypted service secret. Value is ciphertext.
type Key struct {
	ID        id.KeyID     `json:"id"`
	ServiceID id.ServiceID `json:"service_id"`
	Kind      KeyKind      `json:"kind"`
	Value     []byte       `json:"-"`
	Priority  int          `json:"priority"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
}

// Definition lists the credential fields a service requests at sign-up.
type Definition struct {
	ID        id.DefinitionID `json:"id"`
	ServiceID id.ServiceID    `json:"service_id"`
	Name      string          `json:"name"`
	Fields    []string        `json:"fields"`
	IsDefault bool            `json:"is_default"`
}

type User struct {
	ID        id.UserID    `json:"id"`
	ServiceID id.ServiceID `json:"service_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// Identifier binds a DID to a user. Value is unique across the directory.
type Identifier struct {
	ID        id.IdentifierID `json:"id"`
	Value     string          `json:"value"`
	UserID    id.UserID       `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store errors are the sentinel package's: ErrNotFound for missing rows and
// ErrConflict for uniqueness violations.

type ServiceStore interface {
	FindService(ctx context.Context, serviceID id.ServiceID) (*Service, error)
	FindServiceByName(ctx context.Context, name string) (*Service, error)
	CreateService(ctx context.Context, service *Service) error
}

type KeyStore interface {
	// PreferredKey returns the active key of kind with the highest priority.
	PreferredKey(ctx context.Context, serviceID id.ServiceID, kind KeyKind) (*Key, error)
	CreateKey(ctx context.Context, key *Key) error
}

type DefinitionStore interface {
	DefaultDefinition(ctx context.Context, serviceID id.ServiceID) (*Definition, error)
	// SetDefaultDefinition stores def as the service's only default definition.
	SetDefaultDefinition(ctx context.Context, def *Definition) error
}

type UserStore interface {
	FindUser(ctx context.Context, userID id.UserID) (*User, error)
}

type IdentifierStore interface {
	FindIdentifier(ctx context.Context, identifierID id.IdentifierID) (*Identifier, error)
	FindIdentifierByValue(ctx context.Context, value string) (*Identifier, error)
}

// Registrar creates a user and its identifier as one unit: both rows exist
// afterwards or neither does.
type Registrar interface {
	Register(ctx context.Context, user *User, identifier *Identifier) error
}
