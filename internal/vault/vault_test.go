package vault

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	password := []byte("correct horse")
	plaintext := []byte(`{"installed":{"client_id":"x"}}`)

	bundle, err := Encrypt(password, plaintext)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(bundle, magic), "bundle should start with the magic header")

	got, err := Decrypt(password, bundle)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDecryptWrongPassword(t *testing.T) {
	bundle, err := Encrypt([]byte("right"), []byte("secret"))
	require.NoError(t, err)

	_, err = Decrypt([]byte("wrong"), bundle)
	assert.True(t, errors.Is(err, ErrWrongPassword), "got %v", err)
}

func TestDecryptTamperedBundle(t *testing.T) {
	bundle, err := Encrypt([]byte("pw"), []byte("secret"))
	require.NoError(t, err)

	bundle[len(bundle)-1] ^= 0xff
	_, err = Decrypt([]byte("pw"), bundle)
	assert.True(t, errors.Is(err, ErrWrongPassword), "got %v", err)
}

func TestDecryptNotABundle(t *testing.T) {
	_, err := Decrypt([]byte("pw"), []byte(`{"installed":{}}`))
	assert.True(t, errors.Is(err, ErrNotBundle), "got %v", err)

	_, err = Decrypt([]byte("pw"), []byte("short"))
	assert.True(t, errors.Is(err, ErrNotBundle), "got %v", err)
}

func TestEncryptUniqueBundles(t *testing.T) {
	// Fresh salt and nonce every time: identical inputs must not produce
	// identical bundles.
	a, err := Encrypt([]byte("pw"), []byte("secret"))
	require.NoError(t, err)
	b, err := Encrypt([]byte("pw"), []byte("secret"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEncryptEmptyPlaintext(t *testing.T) {
	bundle, err := Encrypt([]byte("pw"), nil)
	require.NoError(t, err)

	got, err := Decrypt([]byte("pw"), bundle)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestZero(t *testing.T) {
	secret := []byte("sensitive")
	Zero(secret)
	assert.Equal(t, make([]byte, len("sensitive")), secret)
}
