package keys

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryption(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	enc, err := NewEncryption(key)
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("sk-my-secret-api-key-12345")
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "sk-my-secret")

	decrypted, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "sk-my-secret-api-key-12345", decrypted)
}

func TestEncryption_NonceIsRandom(t *testing.T) {
	enc, err := NewEncryption(make([]byte, 32))
	require.NoError(t, err)

	a, err := enc.Encrypt("same")
	require.NoError(t, err)
	b, err := enc.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEncryptionFromSecret_IsStable(t *testing.T) {
	first, err := NewEncryptionFromSecret("operator-secret")
	require.NoError(t, err)
	second, err := NewEncryptionFromSecret("operator-secret")
	require.NoError(t, err)

	ciphertext, err := first.Encrypt("sk-test")
	require.NoError(t, err)

	plaintext, err := second.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", plaintext)
}

func TestEncryptionFromSecret_DifferentSecretsDoNotDecrypt(t *testing.T) {
	first, err := NewEncryptionFromSecret("secret-a")
	require.NoError(t, err)
	second, err := NewEncryptionFromSecret("secret-b")
	require.NoError(t, err)

	ciphertext, err := first.Encrypt("sk-test")
	require.NoError(t, err)

	_, err = second.Decrypt(ciphertext)
	assert.True(t, errors.Is(err, ErrDecryption))
}

func TestNewManager_PrefersRawKey(t *testing.T) {
	keyBase64, err := GenerateKey(32)
	require.NoError(t, err)

	fromKey, err := NewManager(keyBase64, "ignored")
	require.NoError(t, err)
	direct, err := NewEncryptionFromBase64(keyBase64)
	require.NoError(t, err)

	ciphertext, err := fromKey.Encrypt("value")
	require.NoError(t, err)
	plaintext, err := direct.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "value", plaintext)
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey(32)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(key)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}

func TestInvalidKeySize(t *testing.T) {
	_, err := NewEncryption([]byte("too-short"))
	assert.Error(t, err)

	_, err = GenerateKey(20)
	assert.Error(t, err)

	_, err = NewEncryptionFromBase64("")
	assert.Error(t, err)

	_, err = NewEncryptionFromSecret("")
	assert.Error(t, err)
}

func TestDecrypt_Garbage(t *testing.T) {
	enc, err := NewEncryption(make([]byte, 32))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "%%%"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("abc"))},
		{"tampered", base64.StdEncoding.EncodeToString(make([]byte, 40))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Decrypt(tt.input)
			assert.True(t, errors.Is(err, ErrDecryption))
		})
	}
}
