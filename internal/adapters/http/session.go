package httpadapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sessionCookieName = "docqa_sid"

type sessionIDContextKey struct{}

func sessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDContextKey{}).(string)
	return id
}

// SessionManager issues and verifies signed session cookies of the form
// <uuid>.<base64url hmac-sha256(uuid)>.
type SessionManager struct {
	secret []byte
	maxAge time.Duration
}

func NewSessionManager(secret string, maxAge time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), maxAge: maxAge}
}

func (m *SessionManager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *SessionManager) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" || sig == "" {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	expected := m.sign(id)
	if !hmac.Equal([]byte(expected), []byte(value)) {
		return "", false
	}
	return id, true
}

// Middleware attaches the caller's session id to the request context. A
// missing or tampered cookie starts a fresh session.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			sessionID, _ = m.verify(cookie.Value)
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		cookie := &http.Cookie{
			Name:     sessionCookieName,
			Value:    m.sign(sessionID),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		}
		if m.maxAge > 0 {
			cookie.MaxAge = int(m.maxAge.Seconds())
		}
		http.SetCookie(w, cookie)

		ctx := context.WithValue(r.Context(), sessionIDContextKey{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
