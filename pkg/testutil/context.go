package testutil

import (
	"net/http"

	id "didgate/pkg/domain"
)

// SessionCookieName mirrors the cookie the auth handler reads.
const SessionCookieName = "session"

// WithSessionCookie attaches the browser session cookie to req.
func WithSessionCookie(req *http.Request, sessionID id.SessionID) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID.String()})
	return req
}
