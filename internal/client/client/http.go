package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/models"
)

const DefaultTimeout = 12 * time.Second

type HTTPClient struct {
	baseURL string
	hc      *http.Client
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the service at baseURL. A non-positive
// timeout selects DefaultTimeout.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		hc:      &http.Client{},
		timeout: timeout,
	}, nil
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type userEnvelope struct {
	User models.User `json:"user"`
}

type passwordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Register creates an account and stores the returned token on the client.
func (c *HTTPClient) Register(ctx context.Context, email, password, name string) (models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", credentials{email, password, name}, &resp); err != nil {
		return models.AuthResponse{}, err
	}
	c.SetToken(resp.Token)
	return resp, nil
}

// Login authenticates and stores the returned token on the client.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return models.AuthResponse{}, err
	}
	c.SetToken(resp.Token)
	return resp, nil
}

func (c *HTTPClient) Verify(ctx context.Context) (models.User, error) {
	var resp userEnvelope
	if err := c.do(ctx, http.MethodGet, "/auth/verify", nil, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, name string) (models.User, error) {
	var resp userEnvelope
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPut, "/auth/profile", body, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, http.MethodPut, "/auth/password", passwordChange{current, next}, nil)
}

// Logout revokes the session on the server. The local token is dropped even
// when the call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *HTTPClient) ListObjects(ctx context.Context) ([]models.Object, error) {
	var resp models.BulkObjects
	if err := c.do(ctx, http.MethodGet, "/objects", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Objects == nil {
		resp.Objects = []models.Object{}
	}
	return resp.Objects, nil
}

func (c *HTTPClient) CreateObject(ctx context.Context, obj models.Object) (models.Object, error) {
	var created models.Object
	if err := c.do(ctx, http.MethodPost, "/objects", obj, &created); err != nil {
		return models.Object{}, err
	}
	return created, nil
}

func (c *HTTPClient) UpdateObject(ctx context.Context, id string, obj models.Object) error {
	return c.do(ctx, http.MethodPut, "/objects/"+url.PathEscape(id), obj, nil)
}

func (c *HTTPClient) DeleteObject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/objects/"+url.PathEscape(id), nil, nil)
}

// ReplaceObjects replaces the caller's whole object collection. An empty
// slice clears it.
func (c *HTTPClient) ReplaceObjects(ctx context.Context, objects []models.Object) (int, error) {
	if objects == nil {
		objects = []models.Object{}
	}
	var resp models.BulkResult
	if err := c.do(ctx, http.MethodPost, "/objects/bulk-sync", models.BulkObjects{Objects: objects}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *HTTPClient) ListScheduledItems(ctx context.Context) ([]models.ScheduledItem, error) {
	var resp models.BulkScheduledItems
	if err := c.do(ctx, http.MethodGet, "/week-objects", nil, &resp); err != nil {
		return nil, err
	}
	if resp.ScheduledItems == nil {
		resp.ScheduledItems = []models.ScheduledItem{}
	}
	return resp.ScheduledItems, nil
}

func (c *HTTPClient) CreateScheduledItem(ctx context.Context, item models.ScheduledItem) (models.ScheduledItem, error) {
	var created models.ScheduledItem
	if err := c.do(ctx, http.MethodPost, "/week-objects", item, &created); err != nil {
		return models.ScheduledItem{}, err
	}
	return created, nil
}

func (c *HTTPClient) UpdateScheduledItem(ctx context.Context, id string, item models.ScheduledItem) error {
	return c.do(ctx, http.MethodPut, "/week-objects/"+url.PathEscape(id), item, nil)
}

func (c *HTTPClient) DeleteScheduledItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/week-objects/"+url.PathEscape(id), nil, nil)
}

// ReplaceScheduledItems replaces the caller's whole scheduled item
// collection. An empty slice clears it.
func (c *HTTPClient) ReplaceScheduledItems(ctx context.Context, items []models.ScheduledItem) (int, error) {
	if items == nil {
		items = []models.ScheduledItem{}
	}
	var resp models.BulkResult
	body := models.BulkScheduledItems{ScheduledItems: items}
	if err := c.do(ctx, http.MethodPost, "/week-objects/bulk-sync", body, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *HTTPClient) PresignBackup(ctx context.Context) (models.BackupTarget, error) {
	var target models.BackupTarget
	if err := c.do(ctx, http.MethodPost, "/backups/presign", nil, &target); err != nil {
		return models.BackupTarget{}, err
	}
	return target, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// mapStatus turns a non-2xx response into a sentinel error. The message of a
// structured error body is kept as context.
func mapStatus(resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &eb); err != nil || eb.Message == "" {
		eb.Message = http.StatusText(resp.StatusCode)
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrUnauthorized
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusConflict:
		sentinel = ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = common.ErrorValidation
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		sentinel = ErrUnavailable
	default:
		return fmt.Errorf("server error %d: %s", resp.StatusCode, eb.Message)
	}
	return fmt.Errorf("%w: %s", sentinel, eb.Message)
}
