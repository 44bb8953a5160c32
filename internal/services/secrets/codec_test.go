package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec("test-secret")
	require.NoError(t, err)
	return codec
}

func TestNewCodec_RequiresSecret(t *testing.T) {
	_, err := NewCodec("")
	assert.Error(t, err)
}

func TestNewCodec_KeyForms(t *testing.T) {
	// 64 hex chars, exactly 32 raw bytes, and an arbitrary passphrase all work
	secrets := []string{
		strings.Repeat("ab", 32),
		strings.Repeat("k", 32),
		"just a passphrase",
	}

	for _, secret := range secrets {
		codec, err := NewCodec(secret)
		require.NoError(t, err, secret)

		encrypted, err := codec.Encrypt("value")
		require.NoError(t, err)
		decrypted, err := codec.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, "value", decrypted)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	plaintexts := []string{
		"",
		"ya29.a0AfH6SMC-short-lived-token",
		"token with spaces and symbols !@#$%^&*()",
		"unicode: knäckebröd € 日本語 🔐",
		strings.Repeat("x", 4096),
	}

	for _, plaintext := range plaintexts {
		encrypted, err := codec.Encrypt(plaintext)
		require.NoError(t, err)

		decrypted, err := codec.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestEncrypt_Format(t *testing.T) {
	codec := newTestCodec(t)

	encrypted, err := codec.Encrypt("secret-value")
	require.NoError(t, err)

	parts := strings.Split(encrypted, ":")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 32, "16-byte nonce as hex")
	assert.Len(t, parts[1], 32, "16-byte tag as hex")
	assert.NotEmpty(t, parts[2])
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	codec := newTestCodec(t)

	first, err := codec.Encrypt("same")
	require.NoError(t, err)
	second, err := codec.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, strings.Split(first, ":")[0], strings.Split(second, ":")[0])
}

func TestDecrypt_TamperFailsClosed(t *testing.T) {
	codec := newTestCodec(t)

	encrypted, err := codec.Encrypt("do not tamper")
	require.NoError(t, err)

	// Flipping any single hex character anywhere in the string must fail
	for i, ch := range encrypted {
		if ch == ':' {
			continue
		}
		flipped := 'f'
		if ch == 'f' {
			flipped = '0'
		}
		tampered := encrypted[:i] + string(flipped) + encrypted[i+1:]

		_, err := codec.Decrypt(tampered)
		assert.Error(t, err, "flip at offset %d must fail", i)
	}
}

func TestDecrypt_FormatErrors(t *testing.T) {
	codec := newTestCodec(t)

	inputs := []string{
		"",
		"deadbeef",
		"aa:bb",
		"aa:bb:cc:dd",
		"zz:bb:cc",
		"not hex at all",
	}

	for _, input := range inputs {
		_, err := codec.Decrypt(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec("a different secret")
	require.NoError(t, err)

	encrypted, err := codec.Encrypt("token")
	require.NoError(t, err)

	_, err = other.Decrypt(encrypted)
	assert.Error(t, err)
}
