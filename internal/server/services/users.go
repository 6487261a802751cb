// Package services contains the server's business logic. Handlers call into
// it with an authenticated user id; it talks to storage only through the
// repository manager.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/cryptox"
	"github.com/dmitrijs2005/weekplanner/internal/dbx"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/server/auth"
	"github.com/dmitrijs2005/weekplanner/internal/server/config"
	smodels "github.com/dmitrijs2005/weekplanner/internal/server/models"
	"github.com/dmitrijs2005/weekplanner/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// UserService handles accounts and the sessions behind issued tokens.
type UserService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	jwtSecret       []byte
	sessionValidity time.Duration
	bcryptCost      int

	now   func() time.Time
	newID func() string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidity,
		bcryptCost:      cfg.BcryptCost,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

func (s *UserService) Register(ctx context.Context, email, password, name string) (models.AuthResponse, error) {
	email = common.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := common.ValidateCredentials(email, password); err != nil {
		return models.AuthResponse{}, fmt.Errorf("%w: a valid email and a password of %d to %d characters are required",
			err, common.MinPasswordLength, common.MaxPasswordLength)
	}
	if name == "" {
		return models.AuthResponse{}, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}

	hash, _, err := cryptox.HashPassword(password, s.bcryptCost)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	var resp models.AuthResponse
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &smodels.User{Email: email, Name: name, PasswordHash: hash})
		if err != nil {
			return err
		}
		token, err := s.openSession(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		resp = models.AuthResponse{User: user.Public(), Token: token}
		return nil
	})
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("error creating user: %w", err)
	}
	return resp, nil
}

// Login checks the password and opens a new session. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	email = common.NormalizeEmail(email)

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.AuthResponse{}, fmt.Errorf("%w: invalid email or password", common.ErrorUnauthorized)
		}
		return models.AuthResponse{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	ok, err := cryptox.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return models.AuthResponse{}, fmt.Errorf("%w: invalid email or password", common.ErrorUnauthorized)
	}

	now := s.now().UTC()
	if err := repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return models.AuthResponse{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	user.LastLoginAt = &now

	token, err := s.openSession(ctx, s.db, user.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return models.AuthResponse{User: user.Public(), Token: token}, nil
}

func (s *UserService) openSession(ctx context.Context, db dbx.DBTX, userID string) (string, error) {
	now := s.now().UTC()
	session := &smodels.Session{
		ID:        s.newID(),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionValidity),
	}
	if err := s.repomanager.Sessions(db).Create(ctx, session); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	token, err := auth.GenerateToken(userID, session.ID, s.jwtSecret, now, s.sessionValidity)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to its identity. The token must be
// well formed, unexpired and backed by a live session.
func (s *UserService) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	id, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	session, err := s.repomanager.Sessions(s.db).Find(ctx, id.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return auth.Identity{}, fmt.Errorf("%w: session revoked", common.ErrorUnauthorized)
		}
		return auth.Identity{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if session.UserID != id.UserID {
		return auth.Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidToken)
	}
	if !session.ExpiresAt.After(s.now()) {
		return auth.Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrTokenExpired)
	}
	return id, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	return user.Public(), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	user, err := s.repomanager.Users(s.db).UpdateName(ctx, userID, name)
	if err != nil {
		return models.User{}, err
	}
	return user.Public(), nil
}

// ChangePassword replaces the password and revokes every other session of
// the user. The caller's own session stays valid.
func (s *UserService) ChangePassword(ctx context.Context, id auth.Identity, current, next string) error {
	if err := common.ValidatePassword(next); err != nil {
		return err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, id.UserID)
	if err != nil {
		return err
	}
	ok, err := cryptox.CheckPassword(user.PasswordHash, current)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return fmt.Errorf("%w: current password is wrong", common.ErrorUnauthorized)
	}

	hash, _, err := cryptox.HashPassword(next, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, id.UserID, hash); err != nil {
			return err
		}
		_, err := s.repomanager.Sessions(tx).DeleteOthers(ctx, id.UserID, id.SessionID)
		return err
	})
}

func (s *UserService) Logout(ctx context.Context, id auth.Identity) error {
	return s.repomanager.Sessions(s.db).Delete(ctx, id.SessionID)
}

// PurgeExpiredSessions drops sessions past their expiry.
func (s *UserService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
}
