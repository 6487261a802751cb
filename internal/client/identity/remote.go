package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/client/client"
	"github.com/dmitrijs2005/weekplanner/internal/client/store"
	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/dmitrijs2005/weekplanner/internal/models"
)

// RemoteProvider authenticates against the server. The issued token is kept
// in a TokenSlot and mirrored in the store so a session survives a slot that
// lost its contents.
type RemoteProvider struct {
	api    client.Client
	slot   TokenSlot
	store  *store.Store
	logger logging.Logger
	now    func() time.Time
}

func NewRemoteProvider(api client.Client, slot TokenSlot, st *store.Store, logger logging.Logger) *RemoteProvider {
	return &RemoteProvider{
		api:    api,
		slot:   slot,
		store:  st,
		logger: logger.With("module", "identity", "mode", Online.String()),
		now:    time.Now,
	}
}

func (p *RemoteProvider) Mode() Mode { return Online }

func (p *RemoteProvider) Register(ctx context.Context, email, password, name string) (Session, error) {
	email = common.NormalizeEmail(email)
	if err := validateRegistration(email, password, name); err != nil {
		return Session{}, err
	}
	resp, err := p.api.Register(ctx, email, password, strings.TrimSpace(name))
	if err != nil {
		return Session{}, fmt.Errorf("register error: %w", err)
	}
	return p.open(ctx, resp), nil
}

func (p *RemoteProvider) Login(ctx context.Context, email, password string) (Session, error) {
	email = common.NormalizeEmail(email)
	if err := common.ValidateCredentials(email, password); err != nil {
		return Session{}, err
	}
	resp, err := p.api.Login(ctx, email, password)
	if err != nil {
		return Session{}, fmt.Errorf("login error: %w", err)
	}
	return p.open(ctx, resp), nil
}

// Restore verifies the cached token with the server. A token the server
// rejects is discarded; any other failure keeps it for the next attempt.
func (p *RemoteProvider) Restore(ctx context.Context) (Session, error) {
	token := p.cachedToken(ctx)
	if token == "" {
		return Session{}, ErrNoSession
	}

	p.api.SetToken(token)
	user, err := p.api.Verify(ctx)
	if err != nil {
		if !errors.Is(err, client.ErrUnauthorized) {
			return Session{}, fmt.Errorf("verify cached token: %w", err)
		}
		p.logger.Info(ctx, "cached token rejected, discarding", "error", err)
		p.Clear(ctx)
		return Session{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	saved := store.Load(ctx, p.store, store.KeySession, Session{})
	sess := Session{User: user, Token: token, Mode: Online, IssuedAt: saved.IssuedAt}
	if sess.IssuedAt.IsZero() {
		sess.IssuedAt = p.now().UTC()
	}
	p.store.Save(ctx, store.KeySession, sess)
	return sess, nil
}

func (p *RemoteProvider) UpdateProfile(ctx context.Context, sess Session, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	user, err := p.api.UpdateProfile(ctx, name)
	if err != nil {
		return models.User{}, err
	}
	sess.User = user
	p.store.Save(ctx, store.KeySession, sess)
	return user, nil
}

func (p *RemoteProvider) ChangePassword(ctx context.Context, sess Session, current, next string) error {
	if err := common.ValidatePassword(next); err != nil {
		return err
	}
	return p.api.ChangePassword(ctx, current, next)
}

// Logout notifies the server and then clears local state. A failed
// notification is logged only.
func (p *RemoteProvider) Logout(ctx context.Context, sess Session) error {
	if err := p.api.Logout(ctx); err != nil {
		p.logger.Warn(ctx, "remote logout failed", "error", err)
	}
	p.Clear(ctx)
	return nil
}

func (p *RemoteProvider) Clear(ctx context.Context) {
	if err := p.slot.Clear(); err != nil {
		p.logger.Warn(ctx, "token slot not cleared", "error", err)
	}
	p.store.Remove(ctx, store.KeyAuthToken)
	p.store.Remove(ctx, store.KeySession)
	p.api.SetToken("")
}

func (p *RemoteProvider) open(ctx context.Context, resp models.AuthResponse) Session {
	sess := Session{User: resp.User, Token: resp.Token, Mode: Online, IssuedAt: p.now().UTC()}
	p.api.SetToken(resp.Token)
	if err := p.slot.Set(resp.Token); err != nil {
		p.logger.Warn(ctx, "token slot not written", "error", err)
	}
	p.store.Save(ctx, store.KeyAuthToken, resp.Token)
	p.store.Save(ctx, store.KeySession, sess)
	return sess
}

func (p *RemoteProvider) cachedToken(ctx context.Context) string {
	token, err := p.slot.Get()
	if err != nil {
		p.logger.Warn(ctx, "token slot not readable", "error", err)
	}
	if token == "" {
		token = store.Load(ctx, p.store, store.KeyAuthToken, "")
	}
	return token
}

func validateRegistration(email, password, name string) error {
	if err := common.ValidateCredentials(email, password); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	return nil
}
