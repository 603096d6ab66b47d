package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEncryptor(t *testing.T) {
	t.Run("valid key size", func(t *testing.T) {
		key := make([]byte, 32)
		enc, err := NewEncryptor(key)
		require.NoError(t, err)
		assert.NotNil(t, enc)
	})

	t.Run("invalid key size - too short", func(t *testing.T) {
		enc, err := NewEncryptor(make([]byte, 16))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Nil(t, enc)
	})

	t.Run("invalid key size - too long", func(t *testing.T) {
		enc, err := NewEncryptor(make([]byte, 64))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Nil(t, enc)
	})
}

func TestEncryptor_RoundTrip(t *testing.T) {
	key, err := GenerateKeyBytes()
	require.NoError(t, err)
	enc, err := NewEncryptor(key)
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt([]byte("windmill"))
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), "windmill")

	plaintext, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "windmill", string(plaintext))

	_, err = enc.Decrypt([]byte("short"))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestSealOpen(t *testing.T) {
	payload := []byte(`{"version":1}`)

	sealed, err := Seal("hunter2", payload)
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.False(t, IsSealed(payload))

	t.Run("correct passphrase", func(t *testing.T) {
		opened, err := Open("hunter2", sealed)
		require.NoError(t, err)
		assert.Equal(t, payload, opened)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := Open("hunter3", sealed)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("tampered body", func(t *testing.T) {
		tampered := append([]byte(nil), sealed...)
		tampered[len(tampered)-1] ^= 0xff
		_, err := Open("hunter2", tampered)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("plain data", func(t *testing.T) {
		_, err := Open("hunter2", payload)
		assert.ErrorIs(t, err, ErrNotSealed)
	})

	t.Run("empty passphrase", func(t *testing.T) {
		_, err := Seal("", payload)
		assert.ErrorIs(t, err, ErrEmptyPassphrase)
	})
}

func TestSeal_SaltDiffers(t *testing.T) {
	a, err := Seal("pass", []byte("x"))
	require.NoError(t, err)
	b, err := Seal("pass", []byte("x"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
