package service

import (
	"didgate/internal/session"
	id "didgate/pkg/domain"
)

type StartRequest struct {
	ServiceName string
	Action      string
	// SessionID is the browser's current session cookie, if any.
	SessionID id.SessionID
}

type StartResult struct {
	Session          *session.Session
	NewSession       bool
	AuthorizationURI string
	RedirectURL      string
	WaitingURL       string
}

// VerifyRequest is the wallet's form post.
type VerifyRequest struct {
	State   string
	IDToken string
	VPToken string
}

type VerifyStatus string

const (
	// StatusAuthenticated: sign-in finished and the session is authenticated.
	StatusAuthenticated VerifyStatus = "authenticated"
	// StatusPending: sign-up data was handed to the service; the session
	// completes on its callback.
	StatusPending VerifyStatus = "pending"
)

type VerifyResult struct {
	Status    VerifyStatus
	SessionID id.SessionID
}

type CallbackResult struct {
	Completed bool
	// RedirectURL is the service logout URL when registration was aborted.
	RedirectURL string
	UserID      id.UserID
}

type Identity struct {
	ID         id.UserID `json:"id"`
	Identifier string    `json:"identifier"`
}
