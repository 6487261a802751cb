package httpapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/server/auth"
)

// fakeAccounts accepts one account and hands out "tok-N" tokens.
type fakeAccounts struct {
	mu       sync.Mutex
	user     models.User
	password string
	tokens   map[string]auth.Identity
	seq      int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{tokens: map[string]auth.Identity{}}
}

func (f *fakeAccounts) issue(userID string) string {
	f.seq++
	tok := fmt.Sprintf("tok-%d", f.seq)
	f.tokens[tok] = auth.Identity{UserID: userID, SessionID: fmt.Sprintf("s%d", f.seq)}
	return tok
}

func (f *fakeAccounts) Register(ctx context.Context, email, password, name string) (models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(password) < common.MinPasswordLength {
		return models.AuthResponse{}, fmt.Errorf("%w: password too short", common.ErrorValidation)
	}
	if f.user.ID != "" {
		return models.AuthResponse{}, fmt.Errorf("%w: email already registered", common.ErrorConflict)
	}
	f.user = models.User{ID: "u1", Email: email, Name: name, CreatedAt: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)}
	f.password = password
	return models.AuthResponse{User: f.user, Token: f.issue("u1")}, nil
}

func (f *fakeAccounts) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user.Email != email || f.password != password {
		return models.AuthResponse{}, fmt.Errorf("%w: invalid email or password", common.ErrorUnauthorized)
	}
	return models.AuthResponse{User: f.user, Token: f.issue(f.user.ID)}, nil
}

func (f *fakeAccounts) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token == "boom" {
		return auth.Identity{}, errors.New("session store down")
	}
	id, ok := f.tokens[token]
	if !ok {
		return auth.Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidToken)
	}
	return id, nil
}

func (f *fakeAccounts) Profile(ctx context.Context, userID string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, nil
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, userID, name string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" {
		return models.User{}, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	f.user.Name = name
	return f.user, nil
}

func (f *fakeAccounts) ChangePassword(ctx context.Context, id auth.Identity, current, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if current != f.password {
		return fmt.Errorf("%w: current password is wrong", common.ErrorUnauthorized)
	}
	f.password = next
	return nil
}

func (f *fakeAccounts) Logout(ctx context.Context, id auth.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for tok, got := range f.tokens {
		if got.SessionID == id.SessionID {
			delete(f.tokens, tok)
		}
	}
	return nil
}

// fakeCollections keeps one ordered slice per user and collection.
type fakeCollections struct {
	mu      sync.Mutex
	objects map[string][]models.Object
	items   map[string][]models.ScheduledItem
	userIDs []string
}

func newFakeCollections() *fakeCollections {
	return &fakeCollections{objects: map[string][]models.Object{}, items: map[string][]models.ScheduledItem{}}
}

func (f *fakeCollections) ListObjects(ctx context.Context, userID string) ([]models.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userIDs = append(f.userIDs, userID)
	return append([]models.Object{}, f.objects[userID]...), nil
}

func (f *fakeCollections) CreateObject(ctx context.Context, userID string, obj models.Object) (models.Object, error) {
	if err := obj.Validate(); err != nil {
		return models.Object{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.objects[userID] {
		if o.GetID() == obj.GetID() {
			return models.Object{}, fmt.Errorf("%w: object %q", common.ErrorConflict, obj.GetID())
		}
	}
	f.objects[userID] = append(f.objects[userID], obj)
	return obj, nil
}

func (f *fakeCollections) UpdateObject(ctx context.Context, userID, id string, obj models.Object) (models.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.objects[userID] {
		if o.GetID() == id {
			f.objects[userID][i] = obj
			return obj, nil
		}
	}
	return models.Object{}, fmt.Errorf("%w: object %q", common.ErrorNotFound, id)
}

func (f *fakeCollections) DeleteObject(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.objects[userID] {
		if o.GetID() == id {
			f.objects[userID] = append(f.objects[userID][:i], f.objects[userID][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: object %q", common.ErrorNotFound, id)
}

func (f *fakeCollections) ReplaceObjects(ctx context.Context, userID string, objects []models.Object) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[userID] = objects
	return len(objects), nil
}

func (f *fakeCollections) ListScheduledItems(ctx context.Context, userID string) ([]models.ScheduledItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ScheduledItem{}, f.items[userID]...), nil
}

func (f *fakeCollections) CreateScheduledItem(ctx context.Context, userID string, item models.ScheduledItem) (models.ScheduledItem, error) {
	if err := item.Validate(); err != nil {
		return models.ScheduledItem{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[userID] = append(f.items[userID], item)
	return item, nil
}

func (f *fakeCollections) UpdateScheduledItem(ctx context.Context, userID, id string, item models.ScheduledItem) (models.ScheduledItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.items[userID] {
		if s.ID == id {
			f.items[userID][i] = item
			return item, nil
		}
	}
	return models.ScheduledItem{}, fmt.Errorf("%w: scheduled item %q", common.ErrorNotFound, id)
}

func (f *fakeCollections) DeleteScheduledItem(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.items[userID] {
		if s.ID == id {
			f.items[userID] = append(f.items[userID][:i], f.items[userID][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: scheduled item %q", common.ErrorNotFound, id)
}

func (f *fakeCollections) ReplaceScheduledItems(ctx context.Context, userID string, items []models.ScheduledItem) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[userID] = items
	return len(items), nil
}

type fakeBackups struct{ err error }

func (f fakeBackups) PresignBackup(ctx context.Context, userID string) (models.BackupTarget, error) {
	if f.err != nil {
		return models.BackupTarget{}, f.err
	}
	return models.BackupTarget{
		Key:       "backups/" + userID + "/k.json.zst",
		URL:       "http://minio/weekplanner/backups/" + userID + "/k.json.zst",
		ExpiresAt: time.Date(2024, 1, 8, 10, 15, 0, 0, time.UTC),
	}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }
