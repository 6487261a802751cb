// Package records stores user-scoped JSON documents. The same repository
// serves the library ("objects") and the schedule ("week_objects").
package records

import (
	"context"

	"github.com/dmitrijs2005/weekplanner/internal/server/models"
)

// Table names a collection table.
type Table string

const (
	Objects     Table = "objects"
	WeekObjects Table = "week_objects"
)

type Repository interface {
	// List returns the user's records, newest first, ties broken by id.
	List(ctx context.Context, userID string) ([]*models.Record, error)

	// Create inserts rec. An id already used by the same user yields
	// common.ErrorConflict.
	Create(ctx context.Context, rec *models.Record) error

	// Update replaces the data of an existing record; common.ErrorNotFound
	// when there is none.
	Update(ctx context.Context, rec *models.Record) error

	Delete(ctx context.Context, userID, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}
