package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/weekplanner/internal/client/client"
	"github.com/dmitrijs2005/weekplanner/internal/client/config"
	"github.com/dmitrijs2005/weekplanner/internal/client/identity"
	"github.com/dmitrijs2005/weekplanner/internal/client/store"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/dmitrijs2005/weekplanner/internal/models"
)

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

// newTestApp starts an App against serverURL with an in-memory store.
func newTestApp(t *testing.T, serverURL, stdin string) *App {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, ":memory:", logging.Discard())
	require.NoError(t, err)
	api, err := client.NewHTTPClient(serverURL, time.Second)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerURL = serverURL

	app := newApp(cfg, st, api, &identity.MemorySlot{}, logging.Discard(), strings.NewReader(stdin), &bytes.Buffer{})
	app.now = func() time.Time { return testNow }
	t.Cleanup(func() { _ = app.Close() })

	require.NoError(t, app.Start(ctx))
	return app
}

// offlineURL points at a server that is already gone.
func offlineURL(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	return ts.URL
}

// run parses args like the binary does and executes the command.
func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var root CLI
	parser, err := kong.New(&root, append(Options("test"), kong.Exit(func(code int) {
		t.Fatalf("unexpected exit %d", code)
	}))...)
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	out := app.out.(*bytes.Buffer)
	out.Reset()
	kctx.BindTo(context.Background(), (*context.Context)(nil))
	err = kctx.Run(app)
	return out.String(), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := run(t, app, args...)
	require.NoError(t, err, "weekplanner %s", strings.Join(args, " "))
	return out
}

// stubPasswords makes the terminal prompt return pws in order.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	var mu sync.Mutex
	readPassword = func(int) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		require.NotEmpty(t, pws, "unexpected password prompt")
		pw := pws[0]
		pws = pws[1:]
		return []byte(pw), nil
	}
}

// fakeServer is an in-memory remote entity service for one user.
type fakeServer struct {
	*httptest.Server

	mu          sync.Mutex
	objects     []models.Object
	items       []models.ScheduledItem
	upload      []byte
	uploadType  string
	loggedOut   bool
	bulkBatches int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "secret1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"status": 401, "message": "invalid credentials", "ok": false})
			return
		}
		writeJSON(w, http.StatusOK, models.AuthResponse{
			User:  models.User{ID: "srv-u1", Email: in.Email, Name: "Ann"},
			Token: "tok-1",
		})
	})
	mux.HandleFunc("GET /auth/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": models.User{ID: "srv-u1", Email: "ann@example.com", Name: "Ann"}})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.loggedOut = true
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /objects", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, models.BulkObjects{Objects: f.objects})
	})
	mux.HandleFunc("POST /objects/bulk-sync", func(w http.ResponseWriter, r *http.Request) {
		var in models.BulkObjects
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"status": 400, "message": err.Error()})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.objects = in.Objects
		f.bulkBatches++
		writeJSON(w, http.StatusOK, models.BulkResult{Count: len(in.Objects)})
	})
	mux.HandleFunc("GET /week-objects", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, models.BulkScheduledItems{ScheduledItems: f.items})
	})
	mux.HandleFunc("POST /week-objects/bulk-sync", func(w http.ResponseWriter, r *http.Request) {
		var in models.BulkScheduledItems
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"status": 400, "message": err.Error()})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.items = in.ScheduledItems
		f.bulkBatches++
		writeJSON(w, http.StatusOK, models.BulkResult{Count: len(in.ScheduledItems)})
	})
	mux.HandleFunc("POST /backups/presign", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.BackupTarget{
			Key:       "backups/srv-u1/snapshot.json.zst",
			URL:       f.URL + "/upload",
			ExpiresAt: testNow.Add(15 * time.Minute),
		})
	})
	mux.HandleFunc("PUT /upload", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.upload = b
		f.uploadType = r.Header.Get("Content-Type")
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
