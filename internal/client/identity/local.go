package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/client/client"
	"github.com/dmitrijs2005/weekplanner/internal/client/store"
	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/cryptox"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/google/uuid"
)

// localUser is one record of the offline ledger. Byte slices are base64 in
// JSON.
type localUser struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Salt        []byte     `json:"salt"`
	Verifier    []byte     `json:"verifier"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func (u localUser) public() models.User {
	return models.User{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt, LastLoginAt: u.LastLoginAt}
}

// ledger maps normalized email to user.
type ledger map[string]localUser

// LocalProvider authenticates against a ledger kept in the local store.
// Passwords are checked with an argon2id-derived verifier.
type LocalProvider struct {
	mu     sync.Mutex
	store  *store.Store
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

func NewLocalProvider(st *store.Store, logger logging.Logger) *LocalProvider {
	return &LocalProvider{
		store:  st,
		logger: logger.With("module", "identity", "mode", Offline.String()),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (p *LocalProvider) Mode() Mode { return Offline }

func (p *LocalProvider) Register(ctx context.Context, email, password, name string) (Session, error) {
	email = common.NormalizeEmail(email)
	if err := validateRegistration(email, password, name); err != nil {
		return Session{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	users := p.ledger(ctx)
	if _, exists := users[email]; exists {
		return Session{}, fmt.Errorf("email %s: %w", email, common.ErrorConflict)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveMasterKey([]byte(password), salt)
	defer common.WipeByteArray(key)

	now := p.now().UTC()
	u := localUser{
		ID:          p.newID(),
		Email:       email,
		Name:        strings.TrimSpace(name),
		Salt:        salt,
		Verifier:    cryptox.MakeVerifier(key),
		CreatedAt:   now,
		LastLoginAt: &now,
	}
	users[email] = u
	if !p.store.Save(ctx, store.KeyLocalUsers, users) {
		return Session{}, fmt.Errorf("%w: local ledger not written", common.ErrorInternal)
	}
	return p.open(ctx, u, now), nil
}

// Login checks the password against the ledger. An empty ledger yields
// client.ErrLocalDataNotAvailable; an unknown email or a wrong password
// yields client.ErrUnauthorized.
func (p *LocalProvider) Login(ctx context.Context, email, password string) (Session, error) {
	email = common.NormalizeEmail(email)
	if err := common.ValidateCredentials(email, password); err != nil {
		return Session{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	users := p.ledger(ctx)
	if len(users) == 0 {
		return Session{}, client.ErrLocalDataNotAvailable
	}
	u, ok := users[email]
	if !ok || !cryptox.CheckVerifier([]byte(password), u.Salt, u.Verifier) {
		return Session{}, client.ErrUnauthorized
	}

	now := p.now().UTC()
	u.LastLoginAt = &now
	users[email] = u
	p.store.Save(ctx, store.KeyLocalUsers, users)
	return p.open(ctx, u, now), nil
}

// Restore accepts the saved offline session until its expiry.
func (p *LocalProvider) Restore(ctx context.Context) (Session, error) {
	sess := store.Load(ctx, p.store, store.KeyOfflineSession, Session{})
	if sess.Token == "" {
		return Session{}, ErrNoSession
	}
	if sess.ExpiresAt == nil || sess.Expired(p.now()) {
		p.Clear(ctx)
		return Session{}, ErrSessionExpired
	}

	p.mu.Lock()
	u, ok := p.ledger(ctx)[sess.User.Email]
	p.mu.Unlock()
	if !ok || u.ID != sess.User.ID {
		p.Clear(ctx)
		return Session{}, ErrNoSession
	}
	sess.User = u.public()
	return sess, nil
}

func (p *LocalProvider) UpdateProfile(ctx context.Context, sess Session, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	users := p.ledger(ctx)
	u, ok := users[sess.User.Email]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", sess.User.Email, common.ErrorNotFound)
	}
	u.Name = name
	users[u.Email] = u
	if !p.store.Save(ctx, store.KeyLocalUsers, users) {
		return models.User{}, fmt.Errorf("%w: local ledger not written", common.ErrorInternal)
	}

	sess.User = u.public()
	p.store.Save(ctx, store.KeyOfflineSession, sess)
	return sess.User, nil
}

func (p *LocalProvider) ChangePassword(ctx context.Context, sess Session, current, next string) error {
	if err := common.ValidatePassword(next); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	users := p.ledger(ctx)
	u, ok := users[sess.User.Email]
	if !ok {
		return fmt.Errorf("user %s: %w", sess.User.Email, common.ErrorNotFound)
	}
	if !cryptox.CheckVerifier([]byte(current), u.Salt, u.Verifier) {
		return client.ErrUnauthorized
	}

	u.Salt = common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveMasterKey([]byte(next), u.Salt)
	defer common.WipeByteArray(key)
	u.Verifier = cryptox.MakeVerifier(key)
	users[u.Email] = u
	if !p.store.Save(ctx, store.KeyLocalUsers, users) {
		return fmt.Errorf("%w: local ledger not written", common.ErrorInternal)
	}
	return nil
}

func (p *LocalProvider) Logout(ctx context.Context, sess Session) error {
	p.Clear(ctx)
	return nil
}

func (p *LocalProvider) Clear(ctx context.Context) {
	p.store.Remove(ctx, store.KeyOfflineSession)
}

func (p *LocalProvider) open(ctx context.Context, u localUser, now time.Time) Session {
	token, err := common.MakeRandHexString(16)
	if err != nil {
		token = p.newID()
	}
	exp := now.Add(OfflineSessionTTL)
	sess := Session{User: u.public(), Token: token, Mode: Offline, IssuedAt: now, ExpiresAt: &exp}
	if !p.store.Save(ctx, store.KeyOfflineSession, sess) {
		p.logger.Warn(ctx, "offline session not persisted", "user", u.ID)
	}
	return sess
}

func (p *LocalProvider) ledger(ctx context.Context) ledger {
	users := store.Load(ctx, p.store, store.KeyLocalUsers, ledger{})
	if users == nil {
		users = ledger{}
	}
	return users
}
