package identity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// TokenSlot is the fast-access place for the remote session token.
type TokenSlot interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// KeyringSlot keeps the token in the OS keyring.
type KeyringSlot struct {
	service string
	user    string
}

func NewKeyringSlot(service, user string) *KeyringSlot {
	return &KeyringSlot{service: service, user: user}
}

// Get returns "" when no token is stored.
func (k *KeyringSlot) Get() (string, error) {
	token, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token from keyring: %w", err)
	}
	return token, nil
}

func (k *KeyringSlot) Set(token string) error {
	if err := keyring.Set(k.service, k.user, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

func (k *KeyringSlot) Clear() error {
	err := keyring.Delete(k.service, k.user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// Available reports whether the keyring answers at all. Best effort.
func (k *KeyringSlot) Available() bool {
	_, err := keyring.Get(k.service, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// MemorySlot holds the token for the lifetime of the process.
type MemorySlot struct {
	mu    sync.Mutex
	token string
}

func (m *MemorySlot) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemorySlot) Set(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemorySlot) Clear() error { return m.Set("") }

// NewTokenSlot prefers the OS keyring and falls back to memory when it is
// not reachable (headless sessions, containers).
func NewTokenSlot(service, user string) TokenSlot {
	k := NewKeyringSlot(service, user)
	if k.Available() {
		return k
	}
	return &MemorySlot{}
}
