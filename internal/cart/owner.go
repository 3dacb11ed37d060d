package cart

import (
	"strings"

	"github.com/google/uuid"
)

// Owner identifies who a cart belongs to: exactly one of a registered user
// or a guest session. The zero value is invalid.
type Owner struct {
	userID    *uuid.UUID
	sessionID *string
}

// UserOwner builds an owner for a registered user.
func UserOwner(id uuid.UUID) Owner {
	return Owner{userID: &id}
}

// SessionOwner builds an owner for a guest session.
func SessionOwner(id string) Owner {
	trimmed := strings.TrimSpace(id)
	return Owner{sessionID: &trimmed}
}

// Valid reports whether exactly one identity is set and non-empty.
func (o Owner) Valid() bool {
	switch {
	case o.userID != nil && o.sessionID == nil:
		return *o.userID != uuid.Nil
	case o.userID == nil && o.sessionID != nil:
		return *o.sessionID != ""
	default:
		return false
	}
}

// UserID returns the user identity, if any.
func (o Owner) UserID() *uuid.UUID {
	if o.userID == nil {
		return nil
	}
	id := *o.userID
	return &id
}

// SessionID returns the session identity, if any.
func (o Owner) SessionID() *string {
	if o.sessionID == nil {
		return nil
	}
	id := *o.sessionID
	return &id
}
