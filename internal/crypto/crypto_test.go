package crypto

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncryptor(t *testing.T) *Encryptor {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	enc, err := NewEncryptorFromBase64(key)
	require.NoError(t, err)
	return enc
}

func TestNewEncryptor(t *testing.T) {
	t.Run("valid key size", func(t *testing.T) {
		enc, err := NewEncryptor(make([]byte, 32))
		require.NoError(t, err)
		assert.NotNil(t, enc)
	})

	for _, size := range []int{0, 16, 64} {
		enc, err := NewEncryptor(make([]byte, size))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Nil(t, enc)
	}
}

func TestNewEncryptorFromBase64(t *testing.T) {
	t.Run("invalid base64", func(t *testing.T) {
		enc, err := NewEncryptorFromBase64("not-valid-base64!!!")
		assert.Error(t, err)
		assert.Nil(t, enc)
	})

	t.Run("valid base64 but wrong size", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString(make([]byte, 16))
		_, err := NewEncryptorFromBase64(encoded)
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})

	t.Run("surrounding whitespace is ignored", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString(make([]byte, 32))
		_, err := NewEncryptorFromBase64(encoded + "\n")
		assert.NoError(t, err)
	})
}

func TestSealOpen(t *testing.T) {
	enc := newTestEncryptor(t)

	for _, plaintext := range [][]byte{
		[]byte("0123abcd-token"),
		[]byte(`{"id":1,"name":"Admin bookkinder"}`),
		{},
	} {
		sealed, err := enc.Seal(plaintext)
		require.NoError(t, err)
		assert.False(t, len(plaintext) > 0 && bytes.Contains(sealed, plaintext))

		opened, err := enc.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, string(plaintext), string(opened))
	}
}

func TestSeal_UsesFreshNonces(t *testing.T) {
	enc := newTestEncryptor(t)

	a, err := enc.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := enc.Seal([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpenErrors(t *testing.T) {
	enc := newTestEncryptor(t)

	_, err := enc.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	sealed, err := enc.Seal([]byte("secret"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff
	_, err = enc.Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	good, err := enc.Seal([]byte("secret"))
	require.NoError(t, err)
	_, err = newTestEncryptor(t).Open(good)
	assert.ErrorIs(t, err, ErrDecryptionFailed, "different key")
}

func TestGenerateKey(t *testing.T) {
	key1, err := GenerateKey()
	require.NoError(t, err)
	key2, err := GenerateKey()
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2)
	decoded, err := base64.StdEncoding.DecodeString(key1)
	require.NoError(t, err)
	assert.Len(t, decoded, KeySize)
}

func TestResolveKey(t *testing.T) {
	t.Run("explicit key wins", func(t *testing.T) {
		key, created, err := ResolveKey("explicit", filepath.Join(t.TempDir(), "key"))
		require.NoError(t, err)
		assert.Equal(t, "explicit", key)
		assert.False(t, created)
	})

	t.Run("generates then reuses key file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "session.key")

		first, created, err := ResolveKey("", path)
		require.NoError(t, err)
		assert.True(t, created)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		second, created, err := ResolveKey("", path)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first, second)
	})

	t.Run("needs a source", func(t *testing.T) {
		_, _, err := ResolveKey("", "")
		assert.Error(t, err)
	})
}
