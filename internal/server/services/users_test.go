package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*UserService, *fakeRepoManager, func(begin, commit bool)) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	s := NewUserService(db, rm, testConfig())

	expectTx := func(begin, commit bool) {
		if !begin {
			return
		}
		mock.ExpectBegin()
		if commit {
			mock.ExpectCommit()
		} else {
			mock.ExpectRollback()
		}
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("sql expectations: %v", err)
		}
	})
	return s, rm, expectTx
}

func TestRegister_OpensSession(t *testing.T) {
	s, rm, expectTx := newUserService(t)
	expectTx(true, true)

	resp, err := s.Register(context.Background(), "  Ann@Example.com ", "secret1", " Ann ")
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", resp.User.Email)
	assert.Equal(t, "Ann", resp.User.Name)
	assert.NotEmpty(t, resp.User.ID)

	id, err := auth.ParseToken(resp.Token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, id.UserID)
	_, ok := rm.sessions.byID[id.SessionID]
	assert.True(t, ok, "session row must exist")

	stored := rm.users.byID[resp.User.ID]
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
}

func TestRegister_Validation(t *testing.T) {
	s, _, _ := newUserService(t)
	ctx := context.Background()

	for _, tc := range []struct{ email, password, name string }{
		{"not-an-email", "secret1", "Ann"},
		{"ann@example.com", "short", "Ann"},
		{"ann@example.com", strings.Repeat("x", common.MaxPasswordLength+1), "Ann"},
		{"ann@example.com", "secret1", "   "},
	} {
		_, err := s.Register(ctx, tc.email, tc.password, tc.name)
		require.ErrorIs(t, err, common.ErrorValidation, "%+v", tc)
	}
}

func TestRegister_DuplicateEmailRollsBack(t *testing.T) {
	s, _, expectTx := newUserService(t)
	ctx := context.Background()

	expectTx(true, true)
	_, err := s.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	expectTx(true, false)
	_, err = s.Register(ctx, "ANN@example.com", "secret2", "Other")
	require.ErrorIs(t, err, common.ErrorConflict)
}

func TestRegister_SessionFailureRollsBack(t *testing.T) {
	s, rm, expectTx := newUserService(t)
	rm.sessions.createErr = errBoom{}
	expectTx(true, false)

	_, err := s.Register(context.Background(), "ann@example.com", "secret1", "Ann")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestLogin_Flows(t *testing.T) {
	s, rm, expectTx := newUserService(t)
	ctx := context.Background()

	expectTx(true, true)
	_, err := s.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	_, err = s.Login(ctx, "ghost@example.com", "secret1")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(ctx, "ann@example.com", "wrong-pass")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	resp, err := s.Login(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, resp.User.LastLoginAt)
	assert.Len(t, rm.sessions.byID, 2)

	rm.users.getErr = errBoom{}
	_, err = s.Login(ctx, "ann@example.com", "secret1")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestAuthenticate(t *testing.T) {
	s, rm, expectTx := newUserService(t)
	ctx := context.Background()

	expectTx(true, true)
	resp, err := s.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	id, err := s.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, id.UserID)

	_, err = s.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	// sessions also expire on the server clock
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Authenticate(ctx, resp.Token)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	s.now = time.Now

	require.NoError(t, s.Logout(ctx, id))
	_, err = s.Authenticate(ctx, resp.Token)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Empty(t, rm.sessions.byID)
}

func TestProfile(t *testing.T) {
	s, _, expectTx := newUserService(t)
	ctx := context.Background()

	expectTx(true, true)
	resp, err := s.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	u, err := s.UpdateProfile(ctx, resp.User.ID, "  Annie ")
	require.NoError(t, err)
	assert.Equal(t, "Annie", u.Name)

	_, err = s.UpdateProfile(ctx, resp.User.ID, " ")
	require.ErrorIs(t, err, common.ErrorValidation)

	u, err = s.Profile(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Annie", u.Name)

	_, err = s.Profile(ctx, "nobody")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestChangePassword_RevokesOtherSessions(t *testing.T) {
	s, rm, expectTx := newUserService(t)
	ctx := context.Background()

	expectTx(true, true)
	first, err := s.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)
	second, err := s.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	id, err := s.Authenticate(ctx, second.Token)
	require.NoError(t, err)

	err = s.ChangePassword(ctx, id, "wrong-pass", "secret2")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	err = s.ChangePassword(ctx, id, "secret1", "abc")
	require.ErrorIs(t, err, common.ErrorValidation)

	err = s.ChangePassword(ctx, id, "secret1", strings.Repeat("x", common.MaxPasswordLength+1))
	require.ErrorIs(t, err, common.ErrorValidation)

	expectTx(true, true)
	require.NoError(t, s.ChangePassword(ctx, id, "secret1", "secret2"))

	_, err = s.Authenticate(ctx, first.Token)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = s.Authenticate(ctx, second.Token)
	require.NoError(t, err)
	assert.Len(t, rm.sessions.byID, 1)

	_, err = s.Login(ctx, "ann@example.com", "secret1")
	require.True(t, errors.Is(err, common.ErrorUnauthorized))
	_, err = s.Login(ctx, "ann@example.com", "secret2")
	require.NoError(t, err)
}

func TestPurgeExpiredSessions(t *testing.T) {
	s, rm, expectTx := newUserService(t)
	ctx := context.Background()

	expectTx(true, true)
	_, err := s.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	n, err := s.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = s.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Empty(t, rm.sessions.byID)
}
