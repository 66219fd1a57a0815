package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManagerWithRing(keyring.NewArrayKeyring(nil))
}

func TestManager_APIToken(t *testing.T) {
	m := newTestManager()

	_, err := m.LoadAPIToken()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.SaveAPIToken("tok_123"))
	got, err := m.LoadAPIToken()
	require.NoError(t, err)
	assert.Equal(t, "tok_123", got)

	require.NoError(t, m.ClearAPIToken())
	_, err = m.LoadAPIToken()
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, m.ClearAPIToken(), "clearing twice is not an error")
}

func TestManager_SourceDSN(t *testing.T) {
	m := newTestManager()

	require.NoError(t, m.SaveSourceDSN("postgresql://app:pw@localhost:5432/chain"))
	require.NoError(t, m.SaveAPIToken("tok"))

	dsn, err := m.LoadSourceDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgresql://app:pw@localhost:5432/chain", dsn)

	require.NoError(t, m.ClearAll())
	_, err = m.LoadSourceDSN()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.LoadAPIToken()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_RejectsEmptySecrets(t *testing.T) {
	m := newTestManager()
	assert.Error(t, m.SaveAPIToken("  "))
	assert.Error(t, m.SaveSourceDSN(""))
}
