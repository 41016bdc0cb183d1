package audit

import (
	"context"
	"time"

	id "didgate/pkg/domain"
)

// EventCategory classifies audit events by purpose so stores can apply
// different retention.
type EventCategory string

const (
	// CategoryCompliance covers identity creation and its refusal.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers rejected wallet responses and callbacks.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine session activity and delivery failures.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Subject carries
// the most specific handle for the action: a session id, DID or webhook id.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	UserID    id.UserID
	ServiceID id.ServiceID
	Subject   string
	Reason    string
	RequestID string
	ClientIP  string
	Device    string
}

type AuditEvent string

const (
	EventSessionCreated       AuditEvent = "session_created"
	EventSessionAuthenticated AuditEvent = "session_authenticated"
	EventSessionEnded         AuditEvent = "session_ended"
	EventAuthFailed           AuditEvent = "auth_failed"
	EventUserCreated          AuditEvent = "user_created"
	EventRegistrationAborted  AuditEvent = "registration_aborted"
	EventCallbackRejected     AuditEvent = "callback_rejected"
	EventWebhookFailed        AuditEvent = "webhook_delivery_failed"

	EventServiceCreated    AuditEvent = "service_created"
	EventServiceKeyCreated AuditEvent = "service_key_created"
	EventDefinitionSet     AuditEvent = "definition_set"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserCreated:         CategoryCompliance,
	EventRegistrationAborted: CategoryCompliance,

	EventAuthFailed:        CategorySecurity,
	EventCallbackRejected:  CategorySecurity,
	EventServiceKeyCreated: CategorySecurity,

	EventSessionCreated:       CategoryOperations,
	EventSessionAuthenticated: CategoryOperations,
	EventSessionEnded:         CategoryOperations,
	EventWebhookFailed:        CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
