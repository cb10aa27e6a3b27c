package wakapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Kind classifies a failed exchange with the remote service.
type Kind int

const (
	// KindTransport means no HTTP response was received (refused, timeout, DNS, canceled).
	KindTransport Kind = iota + 1
	// KindUnauthorized is a 401.
	KindUnauthorized
	// KindNotFound is a 404.
	KindNotFound
	// KindValidation is a 400, usually rejected credentials or form input.
	KindValidation
	// KindUnexpected is any other failing status or an unreadable payload.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindUnexpected:
		return "unexpected"
	default:
		return "none"
	}
}

// GenericMessage is used when the remote service gave no usable message.
const GenericMessage = "The time-tracking service returned an unexpected response."

// maxMessageLen caps how much of a remote message is surfaced.
const maxMessageLen = 200

// Error is returned for every failed call to the remote service.
type Error struct {
	Kind    Kind
	Op      string // e.g. "POST /login"
	Status  int    // 0 for transport failures
	Message string // remote message when present, else a generic one
	Err     error  // underlying transport or decode error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("wakapi")
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return 0
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var we *Error
	if errors.As(err, &we) {
		return we.Status
	}
	return 0
}

// MessageOf returns the user-facing message carried by err, or "".
func MessageOf(err error) string {
	var we *Error
	if errors.As(err, &we) {
		return we.Message
	}
	return ""
}

func IsTransport(err error) bool    { return KindOf(err) == KindTransport }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }

// kindForStatus maps a failing HTTP status onto a Kind.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindUnexpected
	}
}

func statusError(op string, resp *Response) *Error {
	msg := remoteMessage(resp.Body, resp.Header.Get("Content-Type"))
	if msg == "" {
		msg = GenericMessage
	}
	return &Error{
		Kind:    kindForStatus(resp.Status),
		Op:      op,
		Status:  resp.Status,
		Message: msg,
	}
}

var (
	textPolicy     *bluemonday.Policy
	textPolicyOnce sync.Once
)

func getTextPolicy() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// remoteMessage pulls a short message out of an error body. JSON bodies
// contribute their "message" or "error" field; text and HTML bodies are
// reduced to plain text and used only when short enough to be a message
// rather than a whole page.
func remoteMessage(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if m := strings.TrimSpace(payload.Message); m != "" {
			return truncate(m)
		}
		var s string
		if json.Unmarshal(payload.Error, &s) == nil && strings.TrimSpace(s) != "" {
			return truncate(strings.TrimSpace(s))
		}
		return ""
	}

	ct := strings.ToLower(contentType)
	if ct != "" && !strings.HasPrefix(ct, "text/") {
		return ""
	}
	text := html.UnescapeString(getTextPolicy().Sanitize(string(body)))
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || utf8.RuneCountInString(text) > maxMessageLen {
		return ""
	}
	return text
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxMessageLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxMessageLen-1]) + "…"
}
