package storefront

import (
	"net/http"

	"github.com/dukerupert/volund/internal/session"
)

// SessionCookieName is the cookie carrying the shopper's session ID.
const SessionCookieName = "volund_session"

// GetSessionIDFromCookie retrieves the session ID from the volund_session
// cookie. Returns empty string if the cookie is not present.
func GetSessionIDFromCookie(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetSessionCookie sets the volund_session cookie with appropriate security
// settings. The cookie lifetime matches the session store's TTL.
func SetSessionCookie(w http.ResponseWriter, sessionID string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// EnsureSessionID returns the request's session ID, minting and setting a new
// one when the request carries none.
func EnsureSessionID(w http.ResponseWriter, r *http.Request, secure bool) (string, error) {
	if id := GetSessionIDFromCookie(r); id != "" {
		return id, nil
	}
	id, err := session.GenerateID()
	if err != nil {
		return "", err
	}
	SetSessionCookie(w, id, secure)
	return id, nil
}
