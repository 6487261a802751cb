package models

import (
	"encoding/json"
	"time"
)

// Record is a user-scoped JSON document in one of the collection tables.
type Record struct {
	ID        string
	UserID    string
	Data      json.RawMessage
	CreatedAt time.Time
}
