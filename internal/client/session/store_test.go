package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookkinder/internal/crypto"
)

func ptr[T any](v T) *T { return &v }

func TestStore_WithoutStorage(t *testing.T) {
	s := NewStore(nil)
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.UserName())
	assert.NoError(t, s.InitFromLocal())

	require.NoError(t, s.SetToken(ptr("abc")))
	require.NoError(t, s.SetUser(&User{ID: 1, Name: "Admin bookkinder"}))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "Admin bookkinder", s.UserName())

	require.NoError(t, s.ClearAuth())
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
}

func TestStore_TokenRoundTrip(t *testing.T) {
	storage := NewMemoryStorage()

	first := NewStore(storage)
	require.NoError(t, first.SetToken(ptr("x-token")))
	require.NoError(t, first.SetUser(&User{ID: 7, Name: "Lucía", Email: "lucia@bookkinder.com", Role: "user"}))

	// A fresh store over the same storage stands in for a new process.
	second := NewStore(storage)
	assert.False(t, second.IsAuthenticated())
	require.NoError(t, second.InitFromLocal())

	token, ok := second.Token()
	assert.True(t, ok)
	assert.Equal(t, "x-token", token)
	assert.Equal(t, "Lucía", second.UserName())
	assert.Equal(t, uint(7), second.User().ID)
}

func TestStore_AuthenticatedIsTokenOnly(t *testing.T) {
	s := NewStore(NewMemoryStorage())

	require.NoError(t, s.SetUser(&User{Name: "No token"}))
	assert.False(t, s.IsAuthenticated())

	require.NoError(t, s.SetToken(ptr("")))
	assert.True(t, s.IsAuthenticated(), "an empty token is still a token")

	require.NoError(t, s.SetToken(nil))
	assert.False(t, s.IsAuthenticated())
}

func TestStore_ClearAuthClearsStorage(t *testing.T) {
	storage := NewMemoryStorage()
	s := NewStore(storage)
	require.NoError(t, s.SetToken(ptr("t")))
	require.NoError(t, s.SetUser(&User{Name: "A"}))

	require.NoError(t, s.ClearAuth())

	_, ok, _ := storage.Get(KeyToken)
	assert.False(t, ok)
	_, ok, _ = storage.Get(KeyUser)
	assert.False(t, ok)

	fresh := NewStore(storage)
	require.NoError(t, fresh.InitFromLocal())
	assert.False(t, fresh.IsAuthenticated())
}

func TestStore_CorruptUserIsDropped(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(KeyUser, "{not json"))
	require.NoError(t, storage.Set(KeyToken, "t"))

	s := NewStore(storage)
	assert.Error(t, s.InitFromLocal())
	assert.True(t, s.IsAuthenticated())
	assert.Nil(t, s.User())

	_, ok, _ := storage.Get(KeyUser)
	assert.False(t, ok)
}

func TestStore_UserIsCopied(t *testing.T) {
	s := NewStore(nil)
	u := &User{Name: "Before"}
	require.NoError(t, s.SetUser(u))

	u.Name = "After"
	assert.Equal(t, "Before", s.UserName())

	got := s.User()
	got.Name = "Mutated"
	assert.Equal(t, "Before", s.UserName())
}

func newLocalStorage(t *testing.T, dir, key string) *LocalStorage {
	t.Helper()
	storage, err := NewLocalStorage(LocalStorageConfig{
		Path:          filepath.Join(dir, "session.db"),
		EncryptionKey: key,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestLocalStorage_RoundTripAcrossProcesses(t *testing.T) {
	dir := t.TempDir()

	first := newLocalStorage(t, dir, "")
	store := NewStore(first)
	require.NoError(t, store.SetToken(ptr("persisted-token")))
	require.NoError(t, store.SetUser(&User{ID: 1, Name: "Admin bookkinder"}))
	require.NoError(t, first.Close())

	second := newLocalStorage(t, dir, "")
	restored := NewStore(second)
	require.NoError(t, restored.InitFromLocal())

	token, ok := restored.Token()
	require.True(t, ok)
	assert.Equal(t, "persisted-token", token)
	assert.Equal(t, "Admin bookkinder", restored.UserName())
}

func TestLocalStorage_ValuesAreEncrypted(t *testing.T) {
	storage := newLocalStorage(t, t.TempDir(), "")
	require.NoError(t, storage.Set(KeyToken, "plain-secret"))

	var data []byte
	require.NoError(t, storage.db.QueryRow(`SELECT data FROM sessions WHERE token = ?`, recordToken).Scan(&data))
	assert.NotContains(t, string(data), "plain-secret")
}

func TestLocalStorage_WrongKeyFails(t *testing.T) {
	dir := t.TempDir()
	key1, err := crypto.GenerateKey()
	require.NoError(t, err)
	key2, err := crypto.GenerateKey()
	require.NoError(t, err)

	first := newLocalStorage(t, dir, key1)
	require.NoError(t, first.Set(KeyToken, "secret"))
	require.NoError(t, first.Close())

	second := newLocalStorage(t, dir, key2)
	_, _, err = second.Get(KeyToken)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestLocalStorage_Remove(t *testing.T) {
	storage := newLocalStorage(t, t.TempDir(), "")
	require.NoError(t, storage.Set(KeyToken, "t"))
	require.NoError(t, storage.Remove(KeyToken))

	_, ok, err := storage.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, storage.Remove("never-set"))

	var rows int
	require.NoError(t, storage.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&rows))
	assert.Zero(t, rows, "an empty record is deleted")
}

func TestLocalStorage_KeepsOtherKeys(t *testing.T) {
	storage := newLocalStorage(t, t.TempDir(), "")
	require.NoError(t, storage.Set(KeyToken, "t"))
	require.NoError(t, storage.Set(KeyUser, `{"id":1}`))
	require.NoError(t, storage.Remove(KeyToken))

	v, ok, err := storage.Get(KeyUser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, v)
}
