// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for graphwatch.
// It stores the endpoint API token and the Postgres source DSN in the OS
// credential store through github.com/99designs/keyring. On Linux, where a
// desktop secret service is often missing, an encrypted file keyring in the
// XDG state directory is used as the last backend.
package keychain

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"

	"graphwatch/cli/internal/xdg"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "graphwatch"

// Keys used for storing secrets in the OS keychain.
const (
	KeyAPIToken  = "api_token"
	KeySourceDSN = "source_dsn"
)

// EnvFilePassword unlocks the file keyring without prompting.
const EnvFilePassword = "GRAPHWATCH_KEYRING_PASSWORD"

// ErrNotFound is returned when a secret has not been stored.
var ErrNotFound = errors.New("secret not found in keychain")

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// NewManagerWithRing wraps an already opened keyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}

	return globalManager, nil
}

// openRing opens the OS keyring, preferring native platform backends.
func openRing() (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName:              ServiceName,
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
		KeychainTrustApplication: true,
	}

	switch runtime.GOOS {
	case "darwin":
		cfg.AllowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		cfg.AllowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	default:
		dir, err := xdg.StateDir()
		if err != nil {
			return nil, err
		}
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		}
		cfg.FileDir = dir
		cfg.FilePasswordFunc = filePassword
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. Install 'pass' as a fallback: brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

func filePassword(prompt string) (string, error) {
	if pw := os.Getenv(EnvFilePassword); pw != "" {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// SaveAPIToken stores the endpoint API token.
func (m *Manager) SaveAPIToken(token string) error {
	return m.set(KeyAPIToken, token)
}

// LoadAPIToken retrieves the endpoint API token.
func (m *Manager) LoadAPIToken() (string, error) {
	return m.get(KeyAPIToken)
}

// ClearAPIToken removes the endpoint API token.
func (m *Manager) ClearAPIToken() error {
	return m.remove(KeyAPIToken)
}

// SaveSourceDSN stores the Postgres source DSN.
func (m *Manager) SaveSourceDSN(dsn string) error {
	return m.set(KeySourceDSN, dsn)
}

// LoadSourceDSN retrieves the Postgres source DSN.
func (m *Manager) LoadSourceDSN() (string, error) {
	return m.get(KeySourceDSN)
}

// ClearSource removes the Postgres source DSN.
func (m *Manager) ClearSource() error {
	return m.remove(KeySourceDSN)
}

// ClearAll removes all secrets from the keychain.
func (m *Manager) ClearAll() error {
	return errors.Join(m.ClearAPIToken(), m.ClearSource())
}

func (m *Manager) set(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("refusing to store empty " + key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName + " " + key})
}

func (m *Manager) get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, err := m.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if len(it.Data) == 0 {
		return "", ErrNotFound
	}
	return string(it.Data), nil
}

// remove treats a missing key as already removed.
func (m *Manager) remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
