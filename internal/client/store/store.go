// Package store is the client's persistent key-value store. Values are JSON
// documents kept in a local SQLite file; user-scoped keys carry the owning
// user id as a suffix so that several accounts can share one file.
//
// The store never fails its callers: read problems are logged and the
// caller's default is returned, write problems are logged and reported as
// false.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/weekplanner/internal/client/migrations"
	"github.com/dmitrijs2005/weekplanner/internal/client/repositories/kv"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// User-scoped keys.
const (
	KeyObjects           = "objects"
	KeyScheduledItems    = "scheduled-items"
	KeyCurrentWeekStart  = "current-week-start"
	KeyAssistantMessages = "assistant-messages"
	KeyAssistantHistory  = "assistant-history"
)

// Global keys.
const (
	KeyAISettings     = "ai-settings"
	KeySession        = "session"
	KeyAuthToken      = "auth-token"
	KeyLocalUsers     = "local-users"
	KeyOfflineSession = "offline-session"
)

// ScopedKey appends the user id to base; an empty id leaves base unchanged.
func ScopedKey(base, userID string) string {
	if userID == "" {
		return base
	}
	return base + "_" + userID
}

type Store struct {
	repo   kv.Repository
	db     *sql.DB
	logger logging.Logger
}

// New wraps an existing repository.
func New(repo kv.Repository, logger logging.Logger) *Store {
	return &Store{repo: repo, logger: logger.With("module", "store")}
}

// RunMigrations applies the embedded schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the SQLite file at dsn and migrates it.
// ":memory:" gives a throwaway store.
func Open(ctx context.Context, dsn string, logger logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	s := New(kv.NewSQLiteRepository(db), logger)
	s.db = db
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save encodes value as JSON under key.
func (s *Store) Save(ctx context.Context, key string, value any) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "save panicked", "key", key, "panic", p)
			ok = false
		}
	}()

	b, err := json.Marshal(value)
	if err != nil {
		s.logger.Error(ctx, "encode failed", "key", key, "error", err)
		return false
	}
	if err := s.repo.Set(ctx, key, b); err != nil {
		s.logger.Error(ctx, "write failed", "key", key, "error", err)
		return false
	}
	return true
}

// Remove deletes key. Removing a missing key succeeds.
func (s *Store) Remove(ctx context.Context, key string) bool {
	if err := s.repo.Delete(ctx, key); err != nil {
		s.logger.Error(ctx, "remove failed", "key", key, "error", err)
		return false
	}
	return true
}

// Keys lists the keys beginning with prefix; failures yield nil.
func (s *Store) Keys(ctx context.Context, prefix string) []string {
	m, err := s.repo.List(ctx, prefix)
	if err != nil {
		s.logger.Error(ctx, "list failed", "prefix", prefix, "error", err)
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Load decodes the value under key into a T, returning def when the key is
// missing or unreadable.
func Load[T any](ctx context.Context, s *Store, key string, def T) (out T) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "load panicked", "key", key, "panic", p)
			out = def
		}
	}()

	b, err := s.repo.Get(ctx, key)
	if err != nil {
		s.logger.Error(ctx, "read failed", "key", key, "error", err)
		return def
	}
	if b == nil {
		return def
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		s.logger.Error(ctx, "decode failed", "key", key, "error", err)
		return def
	}
	return v
}

// Scope binds a store to the acting user. The zero-value user id addresses
// the global keys.
type Scope struct {
	store  *Store
	userID string
}

func (s *Store) Scope(userID string) Scope {
	return Scope{store: s, userID: userID}
}

func (sc Scope) UserID() string { return sc.userID }
func (sc Scope) Store() *Store  { return sc.store }

func (sc Scope) Key(base string) string {
	return ScopedKey(base, sc.userID)
}

func (sc Scope) Save(ctx context.Context, base string, value any) bool {
	return sc.store.Save(ctx, sc.Key(base), value)
}

func (sc Scope) Remove(ctx context.Context, base string) bool {
	return sc.store.Remove(ctx, sc.Key(base))
}

// LoadScoped is Load for a user-scoped key.
func LoadScoped[T any](ctx context.Context, sc Scope, base string, def T) T {
	return Load(ctx, sc.store, sc.Key(base), def)
}
