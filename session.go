package adminform

import (
	"context"
	"crypto/sha256"
	"log"
	"net/http"

	"github.com/gorilla/sessions"
)

type _ctxkey int

var _sessionKey _ctxkey

// Cookie store signed by secret
func NewSessionStore(secret string) sessions.Store {
	h := sha256.New()
	h.Write([]byte(secret))

	store := sessions.NewCookieStore(h.Sum(nil))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Get or Create Session from current Request.
// A broken cookie is logged and replaced by an empty session
func PatchSession(r *http.Request, store sessions.Store, name string) *http.Request {
	s, err := store.Get(r, name)
	if err != nil {
		log.Printf("session %s: %s", name, err)
	}
	return r.WithContext(context.WithValue(r.Context(), _sessionKey, s))
}

// nil when request not served by `Admin`
func CurrentSession(r *http.Request) *sessions.Session {
	s, _ := r.Context().Value(_sessionKey).(*sessions.Session)
	return s
}

// Save all sessions touched in the request, before anything written
func SaveSessions(r *http.Request, w http.ResponseWriter) {
	if err := sessions.Save(r, w); err != nil {
		log.Printf("session save failed %s", err)
	}
}
