// internal/domain/models/session.go
package models

// SessionStatus is the outcome of a single authentication probe.
//
// A probe starts in StatusChecking and always settles in one of the other
// two values. There is no refreshing or expired status; a new probe is the
// only way to obtain a new answer.
type SessionStatus string

const (
	StatusChecking        SessionStatus = "checking"
	StatusAuthenticated   SessionStatus = "authenticated"
	StatusUnauthenticated SessionStatus = "unauthenticated"
)

// DefaultDisplayName is shown when the probe succeeds but the remote
// service did not tell us who the user is.
const DefaultDisplayName = "User"

// WakapiUser is the identity stub attached to an authenticated session.
type WakapiUser struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SessionState is a projection of the most recent probe. It is never stored
// and has no lifecycle of its own.
type SessionState struct {
	Status        SessionStatus `json:"status"`
	Authenticated bool          `json:"authenticated"`
	User          *WakapiUser   `json:"user,omitempty"`

	// Reason holds the probe failure when Authenticated is false. It keeps
	// the distinction between a rejected session, a missing endpoint, and an
	// unreachable service even though the UI shows all three the same way.
	Reason error `json:"-"`
}

// Credentials are form values held only for the duration of one submission.
type Credentials struct {
	Username string
	Email    string
	Password string
}

// Redacted returns a copy that is safe to pass to logging or templates.
func (c Credentials) Redacted() Credentials {
	return Credentials{Username: c.Username, Email: c.Email}
}
