package admin

import (
	"strings"

	"github.com/golang-cz/textcase"

	"didgate/internal/directory"
	dErrors "didgate/pkg/domain-errors"
	strutil "didgate/pkg/platform/strings"
)

const (
	maxSecretLength  = 512
	maxFields        = 64
	maxNameLength    = 100
	minSecretLength  = 16
	generatedKeySize = 32
)

type CreateServiceRequest struct {
	Name        string `json:"name"`
	RedirectURL string `json:"redirect_url"`
	LogoutURL   string `json:"logout_url"`
	WebhookURL  string `json:"webhook_url"`
}

func (r *CreateServiceRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.RedirectURL = strings.TrimSpace(r.RedirectURL)
	r.LogoutURL = strings.TrimSpace(r.LogoutURL)
	r.WebhookURL = strings.TrimSpace(r.WebhookURL)
}

// Validate checks sizes only; URL and name rules belong to directory.NewService.
func (r *CreateServiceRequest) Validate() error {
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name too long")
	}
	return nil
}

// CreateKeyRequest adds a key to a service. An empty Secret asks the broker
// to generate one.
type CreateKeyRequest struct {
	Kind     string `json:"kind"`
	Secret   string `json:"secret,omitempty"`
	Priority int    `json:"priority"`
}

func (r *CreateKeyRequest) Normalize() {
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
}

func (r *CreateKeyRequest) Validate() error {
	if _, err := directory.ParseKeyKind(r.Kind); err != nil {
		return err
	}
	if r.Priority < 0 {
		return dErrors.New(dErrors.CodeValidation, "priority must not be negative")
	}
	if r.Secret != "" && (len(r.Secret) < minSecretLength || len(r.Secret) > maxSecretLength) {
		return dErrors.New(dErrors.CodeValidation, "secret must be between 16 and 512 bytes")
	}
	return nil
}

// DefinitionRequest replaces the service's default field definition.
type DefinitionRequest struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

func (r *DefinitionRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	// Fields whose descriptor ids collide are duplicates.
	r.Fields = strutil.DedupeBy(r.Fields, textcase.SnakeCase)
}

func (r *DefinitionRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name too long")
	}
	if len(r.Fields) > maxFields {
		return dErrors.New(dErrors.CodeValidation, "too many fields")
	}
	return nil
}
