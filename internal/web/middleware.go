package web

import (
	"encoding/gob"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

// sessionName is the cookie holding flash messages.
const sessionName = "rincon-admin"

func init() {
	gob.Register(FlashMessage{})
}

// FlashMessage is a one-shot notice shown on the next page.
type FlashMessage struct {
	Type    string
	Message string
}

// Flash types.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// GetFlash retrieves flash messages from the session.
func GetFlash(session *sessions.Session) []FlashMessage {
	var messages []FlashMessage
	for _, f := range session.Flashes() {
		if fm, ok := f.(FlashMessage); ok {
			messages = append(messages, fm)
		}
	}
	return messages
}

// flash queues a message for the next page. Failures are logged; the
// redirect still happens.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, kind, message string) {
	session, err := s.Sessions.Get(r, sessionName)
	if err != nil {
		slog.Warn("failed to decode admin session, starting a new one", "error", err)
	}
	session.AddFlash(FlashMessage{Type: kind, Message: message})
	if err := session.Save(r, w); err != nil {
		slog.Error("failed to save admin session", "error", err)
	}
}

// SecurityHeadersMiddleware adds standard security headers. Inline data:
// images stay allowed for covers that were never migrated to files.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; script-src 'none'")
		next.ServeHTTP(w, r)
	})
}
