// Package sessions persists issued tokens so they can be revoked before
// they expire.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/server/models"
)

// Repository defines operations for issuing, checking and revoking sessions.
type Repository interface {
	Create(ctx context.Context, session *models.Session) error

	// Find returns common.ErrorNotFound for unknown or revoked sessions.
	Find(ctx context.Context, id string) (*models.Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteOthers revokes every session of userID except keepID.
	DeleteOthers(ctx context.Context, userID, keepID string) (int64, error)

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
