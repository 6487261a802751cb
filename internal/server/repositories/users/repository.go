// Package users stores planner accounts.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its id and creation time. A taken
	// email yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateName(ctx context.Context, id, name string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
