// Package identity resolves who is acting. A Service picks one Provider at
// startup: RemoteProvider when the server answers its health probe,
// LocalProvider otherwise. The two providers keep separate credential
// ledgers that are never reconciled; an account registered on the server
// cannot log in offline and the other way round.
package identity

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/models"
)

type Mode int

const (
	Online Mode = iota
	Offline
)

func (m Mode) String() string {
	if m == Offline {
		return "offline"
	}
	return "online"
}

type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// OfflineSessionTTL is how long a locally opened session stays valid.
const OfflineSessionTTL = 7 * 24 * time.Hour

var (
	ErrNoSession      = errors.New("no saved session")
	ErrSessionExpired = errors.New("session expired")
)

// Session is an established identity. Token is opaque to callers.
type Session struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	Mode      Mode        `json:"mode"`
	IssuedAt  time.Time   `json:"issuedAt"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
}

// Expired reports whether the session has a deadline at or before now.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
