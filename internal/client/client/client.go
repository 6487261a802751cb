package client

import (
	"context"

	"github.com/dmitrijs2005/weekplanner/internal/models"
)

// Client is the remote API used by the identity service and the sync engine.
type Client interface {
	Close() error

	// Token returns the bearer token attached to authenticated calls.
	Token() string
	SetToken(token string)

	Health(ctx context.Context) error

	Register(ctx context.Context, email, password, name string) (models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (models.AuthResponse, error)
	Verify(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, name string) (models.User, error)
	ChangePassword(ctx context.Context, current, next string) error
	Logout(ctx context.Context) error

	ListObjects(ctx context.Context) ([]models.Object, error)
	CreateObject(ctx context.Context, obj models.Object) (models.Object, error)
	UpdateObject(ctx context.Context, id string, obj models.Object) error
	DeleteObject(ctx context.Context, id string) error
	ReplaceObjects(ctx context.Context, objects []models.Object) (int, error)

	ListScheduledItems(ctx context.Context) ([]models.ScheduledItem, error)
	CreateScheduledItem(ctx context.Context, item models.ScheduledItem) (models.ScheduledItem, error)
	UpdateScheduledItem(ctx context.Context, id string, item models.ScheduledItem) error
	DeleteScheduledItem(ctx context.Context, id string) error
	ReplaceScheduledItems(ctx context.Context, items []models.ScheduledItem) (int, error)

	PresignBackup(ctx context.Context) (models.BackupTarget, error)
}
