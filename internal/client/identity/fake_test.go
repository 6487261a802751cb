package identity

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/weekplanner/internal/client/client"
	"github.com/dmitrijs2005/weekplanner/internal/client/store"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeAPI implements client.Client for identity tests.
type fakeAPI struct {
	client.Client

	token string

	HealthErr   error
	// HealthOKCalls, when set, makes every probe after that many fail.
	HealthOKCalls int
	LoginResp   models.AuthResponse
	LoginErr    error
	RegisterErr error
	VerifyUser  models.User
	VerifyErr   error
	LogoutErr   error
	ProfileErr  error
	PasswordErr error

	LoginCalls    int
	RegisterCalls int
	LogoutCalls   int
	HealthCalls   int
	VerifiedWith  string
	LastPassword  [2]string
}

func (f *fakeAPI) Token() string         { return f.token }
func (f *fakeAPI) SetToken(token string) { f.token = token }

func (f *fakeAPI) Health(context.Context) error {
	f.HealthCalls++
	if f.HealthOKCalls > 0 && f.HealthCalls > f.HealthOKCalls {
		return client.ErrUnavailable
	}
	return f.HealthErr
}

func (f *fakeAPI) Login(_ context.Context, email, _ string) (models.AuthResponse, error) {
	f.LoginCalls++
	if f.LoginErr != nil {
		return models.AuthResponse{}, f.LoginErr
	}
	resp := f.LoginResp
	resp.User.Email = email
	f.token = resp.Token
	return resp, nil
}

func (f *fakeAPI) Register(_ context.Context, email, _, name string) (models.AuthResponse, error) {
	f.RegisterCalls++
	if f.RegisterErr != nil {
		return models.AuthResponse{}, f.RegisterErr
	}
	resp := models.AuthResponse{User: models.User{ID: "srv-1", Email: email, Name: name}, Token: "srv-token"}
	f.token = resp.Token
	return resp, nil
}

func (f *fakeAPI) Verify(context.Context) (models.User, error) {
	f.VerifiedWith = f.token
	return f.VerifyUser, f.VerifyErr
}

func (f *fakeAPI) UpdateProfile(_ context.Context, name string) (models.User, error) {
	if f.ProfileErr != nil {
		return models.User{}, f.ProfileErr
	}
	u := f.VerifyUser
	u.Name = name
	return u, nil
}

func (f *fakeAPI) ChangePassword(_ context.Context, current, next string) error {
	f.LastPassword = [2]string{current, next}
	return f.PasswordErr
}

func (f *fakeAPI) Logout(context.Context) error {
	f.LogoutCalls++
	f.token = ""
	return f.LogoutErr
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:", logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
