package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoltStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	store, err := OpenBoltStore(path, 100*time.Millisecond)
	require.NoError(t, err)
	return store, path
}

func exerciseStorage(t *testing.T, store sdk.Storage) {
	t.Helper()

	_, ok, err := store.Get(sdk.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(sdk.TokenKey, "first"))
	require.NoError(t, store.Set(sdk.TokenKey, "second"))
	v, ok, err := store.Get(sdk.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", v, "last writer wins")

	require.NoError(t, store.Set(sdk.ProfileKey, ""))
	v, ok, err = store.Get(sdk.ProfileKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)

	require.NoError(t, store.Remove(sdk.TokenKey))
	require.NoError(t, store.Remove("never-set"))
	_, ok, err = store.Get(sdk.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBoltStore(t *testing.T) {
	store, _ := newTestBoltStore(t)
	defer store.Close()
	exerciseStorage(t, store)
}

func TestBoltStore_PersistsAcrossOpens(t *testing.T) {
	store, path := newTestBoltStore(t)
	require.NoError(t, store.Set(sdk.AdminUsernameKey, "root"))
	require.NoError(t, store.Close())

	reopened, err := OpenBoltStore(path, 100*time.Millisecond)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(sdk.AdminUsernameKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "root", v)

	keys, err := reopened.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{sdk.AdminUsernameKey}, keys)
}

func TestBoltStore_LockedByAnotherProcess(t *testing.T) {
	store, path := newTestBoltStore(t)
	defer store.Close()

	_, err := OpenBoltStore(path, 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestEnclaveStore(t *testing.T) {
	exerciseStorage(t, NewEnclaveStore())
}

func TestEnclaveStore_KeepsCallerValue(t *testing.T) {
	store := NewEnclaveStore()
	password := "hunter2"
	require.NoError(t, store.Set(sdk.AdminPasswordKey, password))
	assert.Equal(t, "hunter2", password)

	v, ok, err := store.Get(sdk.AdminPasswordKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hunter2", v)
}

func TestSessionOverCLIStores(t *testing.T) {
	durable, path := newTestBoltStore(t)
	env := sdk.Environment{Durable: durable, Ephemeral: NewEnclaveStore(), Bus: sdk.NewStorageBus()}

	s := sdk.NewSession(env)
	require.NoError(t, s.AdminLogin("root", "hunter2", true))
	s.Close()
	require.NoError(t, durable.Close())

	// The next invocation reopens durable storage with fresh ephemeral storage.
	durable, err := OpenBoltStore(path, 100*time.Millisecond)
	require.NoError(t, err)
	defer durable.Close()
	next := sdk.NewSession(sdk.Environment{Durable: durable, Ephemeral: NewEnclaveStore(), Bus: sdk.NewStorageBus()})
	defer next.Close()

	username, ok := next.AdminUsername()
	assert.True(t, ok)
	assert.Equal(t, "root", username)
	assert.False(t, next.AdminAuth().HasBasic(), "password does not survive the process")

	_, stored, err := durable.Get(sdk.AdminPasswordKey)
	require.NoError(t, err)
	assert.False(t, stored)
}
