package models

import "time"

// Session backs one issued token. Deleting the row revokes the token.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
