// Package models holds the rows the server persists.
package models

import (
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/models"
)

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Public is the profile returned to clients; the hash never leaves the server.
func (u *User) Public() models.User {
	return models.User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
