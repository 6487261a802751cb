package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := NewHTTPClient(ts.URL+"/", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, ts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewHTTPClient_RejectsBadURL(t *testing.T) {
	_, err := NewHTTPClient("localhost:8080", 0)
	require.Error(t, err)

	c, err := NewHTTPClient("https://planner.example.com/api/", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://planner.example.com/api", c.baseURL)
	assert.Equal(t, DefaultTimeout, c.timeout)
}

func TestLogin_StoresTokenAndSendsBearer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ann@example.com", in.Email)
		assert.Equal(t, "secret1", in.Password)
		assert.Empty(t, r.Header.Get(common.AuthorizationHeaderName))
		writeJSON(w, http.StatusOK, models.AuthResponse{User: models.User{ID: "u1", Email: in.Email}, Token: "tok-1"})
	})
	mux.HandleFunc("GET /auth/verify", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get(common.AuthorizationHeaderName))
		writeJSON(w, http.StatusOK, userEnvelope{User: models.User{ID: "u1", Name: "Ann"}})
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	resp, err := c.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "tok-1", c.Token())

	u, err := c.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
}

func TestLogout_DropsTokenEvenOnFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	c.SetToken("tok")

	require.Error(t, c.Logout(context.Background()))
	assert.Empty(t, c.Token())
}

func TestReplace_SendsExplicitEmptyCollections(t *testing.T) {
	var bodies []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, r.URL.Path+" "+string(b))
		writeJSON(w, http.StatusOK, models.BulkResult{Count: 0})
	}))
	ctx := context.Background()

	n, err := c.ReplaceObjects(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = c.ReplaceScheduledItems(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`/objects/bulk-sync {"objects":[]}`,
		`/week-objects/bulk-sync {"scheduledItems":[]}`,
	}, bodies)
}

func TestListCollections_DecodesVariants(t *testing.T) {
	soup := models.NewObject(&models.Recipe{ID: "r1", Title: "Soup", CreatedAt: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)})
	item := models.NewScheduledItem("s1", soup, timex.MustParseDate("2024-01-08"), models.Morning, 0)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.BulkObjects{Objects: []models.Object{soup}})
	})
	mux.HandleFunc("GET /week-objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.BulkScheduledItems{ScheduledItems: []models.ScheduledItem{item}})
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	objects, err := c.ListObjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Object{soup}, objects)

	items, err := c.ListScheduledItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ScheduledItem{item}, items)
}

func TestEmptyListIsNotNil(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	objects, err := c.ListObjects(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, objects)
	assert.Empty(t, objects)
}

func TestRecordPathsAreEscaped(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	require.NoError(t, c.DeleteScheduledItem(context.Background(), "a/b c"))
	assert.Equal(t, "/week-objects/a%2Fb%20c", gotPath)
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		msg    string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"status":401,"message":"invalid token","ok":false}`, ErrUnauthorized, "invalid token"},
		{"forbidden", http.StatusForbidden, ``, ErrUnauthorized, "Forbidden"},
		{"not found", http.StatusNotFound, `{"status":404,"message":"object \"x\": not found"}`, ErrNotFound, "not found"},
		{"conflict", http.StatusConflict, `{"status":409,"message":"email already registered"}`, ErrConflict, "email already registered"},
		{"validation", http.StatusBadRequest, `{"status":400,"message":"password too short"}`, common.ErrorValidation, "password too short"},
		{"gateway", http.StatusServiceUnavailable, `<html>down</html>`, ErrUnavailable, "Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			err := c.UpdateObject(context.Background(), "x", models.NewObject(&models.TodoList{ID: "x", Title: "t"}))
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	t.Run("other status is generic", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		err := c.Health(context.Background())
		require.Error(t, err)
		for _, s := range []error{ErrUnavailable, ErrUnauthorized, ErrConflict, ErrNotFound, common.ErrorValidation} {
			assert.False(t, errors.Is(err, s), "unexpected sentinel %v", s)
		}
		assert.Contains(t, err.Error(), "500")
	})
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	c, ts := newTestClient(t, http.NotFoundHandler())
	ts.Close()

	err := c.Health(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c, err := NewHTTPClient(ts.URL, 20*time.Millisecond)
	require.NoError(t, err)

	require.ErrorIs(t, c.Health(context.Background()), ErrUnavailable)
}

func TestPresignBackup(t *testing.T) {
	exp := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/backups/presign", r.URL.Path)
		writeJSON(w, http.StatusOK, models.BackupTarget{Key: "backups/u1/k", URL: "https://s3/put", ExpiresAt: exp})
	}))
	target, err := c.PresignBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backups/u1/k", target.Key)
	assert.True(t, exp.Equal(target.ExpiresAt))
}
