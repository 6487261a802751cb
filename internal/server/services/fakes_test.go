package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/dbx"
	"github.com/dmitrijs2005/weekplanner/internal/server/config"
	"github.com/dmitrijs2005/weekplanner/internal/server/models"
	"github.com/dmitrijs2005/weekplanner/internal/server/repositories/records"
	"github.com/dmitrijs2005/weekplanner/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/weekplanner/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.SessionValidity = time.Hour
	cfg.BcryptCost = 4
	return cfg
}

// fakeUsersRepo keeps users in memory.
type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	seq    int
	getErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, fmt.Errorf("%w: email %s", common.ErrorConflict, u.Email)
		}
	}
	f.seq++
	c := *u
	c.ID = fmt.Sprintf("u%d", f.seq)
	c.CreatedAt = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) UpdateName(ctx context.Context, id, name string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Name = name
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastLoginAt = &at
	return nil
}

type fakeSessionsRepo struct {
	mu        sync.Mutex
	byID      map[string]models.Session
	createErr error
}

func newFakeSessionsRepo() *fakeSessionsRepo {
	return &fakeSessionsRepo{byID: map[string]models.Session{}}
}

func (f *fakeSessionsRepo) Create(ctx context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.byID[s.ID] = *s
	return nil
}

func (f *fakeSessionsRepo) Find(ctx context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeSessionsRepo) DeleteOthers(ctx context.Context, userID, keepID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.byID {
		if s.UserID == userID && id != keepID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.byID {
		if !s.ExpiresAt.After(now) {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

// fakeRecordsRepo is one collection table in memory.
type fakeRecordsRepo struct {
	mu   sync.Mutex
	rows map[string]models.Record // user|id
}

func newFakeRecordsRepo() *fakeRecordsRepo {
	return &fakeRecordsRepo{rows: map[string]models.Record{}}
}

func (f *fakeRecordsRepo) List(ctx context.Context, userID string) ([]*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Record, 0)
	for _, r := range f.rows {
		if r.UserID == userID {
			c := r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeRecordsRepo) Create(ctx context.Context, r *models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := r.UserID + "|" + r.ID
	if _, ok := f.rows[k]; ok {
		return fmt.Errorf("%w: %q", common.ErrorConflict, r.ID)
	}
	f.rows[k] = *r
	return nil
}

func (f *fakeRecordsRepo) Update(ctx context.Context, r *models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := r.UserID + "|" + r.ID
	old, ok := f.rows[k]
	if !ok {
		return fmt.Errorf("%w: %q", common.ErrorNotFound, r.ID)
	}
	old.Data = r.Data
	f.rows[k] = old
	return nil
}

func (f *fakeRecordsRepo) Delete(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := userID + "|" + id
	if _, ok := f.rows[k]; !ok {
		return fmt.Errorf("%w: %q", common.ErrorNotFound, id)
	}
	delete(f.rows, k)
	return nil
}

func (f *fakeRecordsRepo) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, r := range f.rows {
		if r.UserID == userID {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

type fakeRepoManager struct {
	users    *fakeUsersRepo
	sessions *fakeSessionsRepo
	tables   map[records.Table]*fakeRecordsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:    newFakeUsersRepo(),
		sessions: newFakeSessionsRepo(),
		tables: map[records.Table]*fakeRecordsRepo{
			records.Objects:     newFakeRecordsRepo(),
			records.WeekObjects: newFakeRecordsRepo(),
		},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return errors.New("not supported") }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository        { return m.sessions }
func (m *fakeRepoManager) Records(_ dbx.DBTX, t records.Table) records.Repository {
	return m.tables[t]
}
