// Package session models one browser's login attempt and its storage.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"didgate/internal/ttlstore"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
)

const (
	// KeyPrefix namespaces session records: "auth-<session_id>".
	KeyPrefix = "auth"
	// PendingTTL bounds the time between start and a completed wallet response.
	PendingTTL = 5 * time.Minute
	// AuthenticatedTTL is the lifetime of an authenticated session and its cookie.
	AuthenticatedTTL = 8 * time.Hour
)

// Action is the flow the browser started.
type Action string

const (
	ActionSignUp Action = "up"
	ActionSignIn Action = "in"
)

// ParseAction accepts the path segment of the start route.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionSignUp, ActionSignIn:
		return Action(s), nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown action %q", s))
	}
}

func (a Action) String() string { return string(a) }

// Status discriminates State.
type Status string

const (
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
)

// State is a tagged union: Authenticating carries Action, Authenticated
// carries IdentifierID. It encodes as {"authenticating":{"action":"up"}} or
// {"authenticated":{"identifier_id":"..."}}.
type State struct {
	Status       Status
	Action       Action
	IdentifierID id.IdentifierID
}

func Authenticating(action Action) State {
	return State{Status: StatusAuthenticating, Action: action}
}

func Authenticated(identifierID id.IdentifierID) State {
	return State{Status: StatusAuthenticated, IdentifierID: identifierID}
}

type authenticatingBody struct {
	Action Action `json:"action"`
}

type authenticatedBody struct {
	IdentifierID id.IdentifierID `json:"identifier_id"`
}

func (s State) MarshalJSON() ([]byte, error) {
	switch s.Status {
	case StatusAuthenticating:
		return json.Marshal(map[Status]authenticatingBody{s.Status: {Action: s.Action}})
	case StatusAuthenticated:
		return json.Marshal(map[Status]authenticatedBody{s.Status: {IdentifierID: s.IdentifierID}})
	default:
		return nil, fmt.Errorf("unknown session status %q", s.Status)
	}
}

func (s *State) UnmarshalJSON(data []byte) error {
	var tagged map[Status]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("session state must have exactly one tag, got %d", len(tagged))
	}
	for status, body := range tagged {
		switch status {
		case StatusAuthenticating:
			var b authenticatingBody
			if err := json.Unmarshal(body, &b); err != nil {
				return err
			}
			if _, err := ParseAction(string(b.Action)); err != nil {
				return err
			}
			*s = Authenticating(b.Action)
		case StatusAuthenticated:
			var b authenticatedBody
			if err := json.Unmarshal(body, &b); err != nil {
				return err
			}
			if b.IdentifierID.IsNil() {
				return fmt.Errorf("authenticated session without identifier")
			}
			*s = Authenticated(b.IdentifierID)
		default:
			return fmt.Errorf("unknown session status %q", status)
		}
	}
	return nil
}

// Session is one browser's login attempt. UserID is allocated up front and
// becomes durable only when a User row is created for it.
type Session struct {
	ID        id.SessionID `json:"id"`
	UserID    id.UserID    `json:"user_id"`
	ServiceID id.ServiceID `json:"service_id"`
	State     State        `json:"state"`
}

// New allocates a pending session for serviceID.
func New(serviceID id.ServiceID, action Action) *Session {
	return &Session{
		ID:        id.NewSessionID(),
		UserID:    id.NewUserID(),
		ServiceID: serviceID,
		State:     Authenticating(action),
	}
}

func (s *Session) IsAuthenticating() bool { return s.State.Status == StatusAuthenticating }
func (s *Session) IsAuthenticated() bool  { return s.State.Status == StatusAuthenticated }

// CanAuthenticate reports whether the session may move to Authenticated.
func (s *Session) CanAuthenticate() error {
	if !s.IsAuthenticating() {
		return dErrors.New(dErrors.CodeInvariantViolation, "session is not authenticating")
	}
	return nil
}

// Authenticate moves the session to Authenticated for a user and identifier.
// It is the only transition; Authenticated never reverts.
func (s *Session) Authenticate(userID id.UserID, identifierID id.IdentifierID) error {
	if err := s.CanAuthenticate(); err != nil {
		return err
	}
	s.UserID = userID
	s.State = Authenticated(identifierID)
	return nil
}

// Store persists sessions under KeyPrefix.
type Store = ttlstore.Store[Session]

func NewStore(backend ttlstore.Backend) *Store {
	return ttlstore.New[Session](backend, KeyPrefix)
}
