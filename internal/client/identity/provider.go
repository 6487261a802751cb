package identity

import (
	"context"

	"github.com/dmitrijs2005/weekplanner/internal/models"
)

// Provider is one way of establishing an identity.
//
// Restore returns ErrNoSession when nothing was saved and ErrSessionExpired
// when a saved session is no longer acceptable. Clear removes every session
// artifact the provider keeps locally and never touches the network.
type Provider interface {
	Mode() Mode
	Register(ctx context.Context, email, password, name string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Restore(ctx context.Context) (Session, error)
	UpdateProfile(ctx context.Context, sess Session, name string) (models.User, error)
	ChangePassword(ctx context.Context, sess Session, current, next string) error
	Logout(ctx context.Context, sess Session) error
	Clear(ctx context.Context)
}
