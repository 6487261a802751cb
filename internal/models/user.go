package models

import "time"

// User is the public profile of an account as seen by clients.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// BulkObjects is the body of POST /objects/bulk-sync.
type BulkObjects struct {
	Objects []Object `json:"objects"`
}

// BulkScheduledItems is the body of POST /week-objects/bulk-sync.
type BulkScheduledItems struct {
	ScheduledItems []ScheduledItem `json:"scheduledItems"`
}

// BulkResult reports how many records a bulk replace wrote.
type BulkResult struct {
	Count int `json:"count"`
}

// BackupTarget is a presigned upload location for a client snapshot.
type BackupTarget struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
