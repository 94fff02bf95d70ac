package api

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

const (
	voterCookie = "elimvote_voter"
	adminCookie = "elimvote_admin"

	voterCookieMaxAge = 365 * 24 * 60 * 60
)

// cookieJar issues voter identities and keeps the in-memory admin sessions.
// Admin sessions are never persisted, so a restart logs every admin out.
type cookieJar struct {
	secure bool

	mu       sync.RWMutex
	sessions map[string]struct{}
}

func newCookieJar() *cookieJar {
	return &cookieJar{sessions: make(map[string]struct{})}
}

// voter returns the caller's voter id, issuing a cookie on first contact.
func (j *cookieJar) voter(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(voterCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     voterCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   voterCookieMaxAge,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (j *cookieJar) login(w http.ResponseWriter) {
	token := uuid.NewString()
	j.mu.Lock()
	j.sessions[token] = struct{}{}
	j.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (j *cookieJar) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(adminCookie); err == nil {
		j.mu.Lock()
		delete(j.sessions, c.Value)
		j.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (j *cookieJar) isAdmin(r *http.Request) bool {
	c, err := r.Cookie(adminCookie)
	if err != nil {
		return false
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, ok := j.sessions[c.Value]
	return ok
}

func (j *cookieJar) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !j.isAdmin(r) {
			writeFailure(w, "api.require_admin", NewKind("api.require_admin", ErrUnauthorized))
			return
		}
		next(w, r)
	}
}
