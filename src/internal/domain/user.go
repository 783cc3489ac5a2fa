package domain

import "time"

// Account is a locally managed identity.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	LastSeen     time.Time `json:"lastSeen"`
}

// Identity is what an identity provider reports for a live session.
type Identity struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Session is the Session Store state. The zero value is signed out.
// A guest session has no user id and never touches the remote document.
type Session struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Guest  bool   `json:"guest,omitempty"`
}

// Authenticated reports whether a real user is signed in.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// SignedOut reports whether there is neither a user nor a guest session.
func (s Session) SignedOut() bool {
	return s.UserID == "" && !s.Guest
}

// SessionFromIdentity converts a provider identity. nil means signed out.
func SessionFromIdentity(id *Identity) Session {
	if id == nil {
		return Session{}
	}
	return Session{UserID: id.UserID, Email: id.Email}
}
