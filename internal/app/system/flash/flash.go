// Package flash carries one-shot notices across a redirect in a signed
// cookie. It never holds authentication state: the remote service's own
// session cookie is the only record of who is signed in.
package flash

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// DefaultName is the cookie name used when none is configured.
const DefaultName = "trinetra-flash"

// Levels understood by the layout template.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelError   = "error"
)

const messagesKey = "_messages"

// Message is one notice shown on the next page render.
type Message struct {
	Level string
	Text  string
}

// SessionConfigError is returned when the flash store configuration is invalid.
type SessionConfigError struct {
	Message string
}

func (e *SessionConfigError) Error() string {
	return e.Message
}

// Store reads and writes flash messages.
type Store struct {
	store  *sessions.CookieStore
	name   string
	logger *zap.Logger
}

// New creates a Store signed with key.
//
// In secure (production) mode a key shorter than 32 characters or one that
// looks like a placeholder is rejected; otherwise it only logs a warning.
func New(key, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*Store, error) {
	if key == "" {
		return nil, &SessionConfigError{Message: "session key is empty; provide ≥32 random chars"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	weak := len(key) < 32 || isDefaultKey(key)
	if secure && weak {
		return nil, &SessionConfigError{
			Message: "session key is too weak for production; provide ≥32 random chars (not the default dev key)",
		}
	} else if weak {
		logger.Warn("session key is weak; 32+ random chars required in production",
			zap.Int("length", len(key)),
			zap.Bool("is_default", isDefaultKey(key)))
	}

	if name == "" {
		name = DefaultName
	}
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}

	cs := sessions.NewCookieStore([]byte(key))
	cs.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Store{store: cs, name: name, logger: logger}, nil
}

// Name returns the cookie name. It is excluded from credential forwarding.
func (s *Store) Name() string {
	return s.name
}

// Add queues a message for the next request. A nil Store drops it.
func (s *Store) Add(w http.ResponseWriter, r *http.Request, level, text string) {
	if s == nil {
		return
	}
	sess := s.session(r)
	sess.AddFlash(level+"|"+text, messagesKey)
	if err := sess.Save(r, w); err != nil {
		s.logger.Warn("failed to save flash message", zap.Error(err))
	}
}

// Success queues a success message.
func (s *Store) Success(w http.ResponseWriter, r *http.Request, text string) {
	s.Add(w, r, LevelSuccess, text)
}

// Error queues an error message.
func (s *Store) Error(w http.ResponseWriter, r *http.Request, text string) {
	s.Add(w, r, LevelError, text)
}

// Pop returns and clears the queued messages. It must run before anything
// is written to w, since clearing rewrites the cookie.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	if s == nil {
		return nil
	}
	sess := s.session(r)
	raw := sess.Flashes(messagesKey)
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		s.logger.Warn("failed to clear flash messages", zap.Error(err))
	}

	out := make([]Message, 0, len(raw))
	for _, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		level, text, found := strings.Cut(str, "|")
		if !found {
			level, text = LevelInfo, str
		}
		out = append(out, Message{Level: level, Text: text})
	}
	return out
}

func (s *Store) session(r *http.Request) *sessions.Session {
	sess, err := s.store.Get(r, s.name)
	if err != nil {
		category := classifyCookieError(err)
		if category == "mac_invalid" {
			s.logger.Warn("flash cookie MAC validation failed (possible tampering)",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr))
		} else {
			s.logger.Debug("flash cookie unreadable, starting fresh",
				zap.String("category", category),
				zap.String("path", r.URL.Path))
		}
	}
	// gorilla returns a usable new session alongside decode errors.
	return sess
}

// isDefaultKey checks if the key appears to be a default/placeholder value.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	for _, p := range []string{"dev-only", "change-me", "placeholder", "default", "example", "insecure", "test-key", "secret123", "password"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func classifyCookieError(err error) string {
	scErr, ok := err.(securecookie.Error)
	if !ok {
		return "unknown"
	}
	if !scErr.IsDecode() {
		return "backend"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired timestamp"):
		return "expired"
	case strings.Contains(msg, "mac") || strings.Contains(msg, "hash"):
		return "mac_invalid"
	default:
		return "decode_failed"
	}
}
