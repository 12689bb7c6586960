// Package vault seals the OAuth client-secret bundle with a password so
// it can live on disk encrypted. Decryption happens in memory only; the
// caller is responsible for zeroing the plaintext when the authenticated
// session has been established.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// Bundle layout: magic, scrypt salt, GCM nonce, ciphertext.
var magic = []byte("DMVAULT1")

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32

	// scrypt parameters: interactive-use cost from the x/crypto docs.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ErrWrongPassword is returned when the bundle fails to authenticate:
// either the password is wrong or the bundle was corrupted.
var ErrWrongPassword = errors.New("wrong password or corrupted bundle")

// ErrNotBundle is returned when the input does not look like a vault
// bundle at all.
var ErrNotBundle = errors.New("not an encrypted credentials bundle")

// Encrypt seals plaintext under a password-derived key.
func Encrypt(password, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	aead, err := newAEAD(password, salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(magic)+saltSize+nonceSize+len(plaintext)+aead.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, magic), nil
}

// Decrypt opens a bundle. The returned plaintext lives only in memory;
// zero it with Zero once it has served its purpose.
func Decrypt(password, bundle []byte) ([]byte, error) {
	header := len(magic) + saltSize + nonceSize
	if len(bundle) < header || string(bundle[:len(magic)]) != string(magic) {
		return nil, ErrNotBundle
	}
	salt := bundle[len(magic) : len(magic)+saltSize]
	nonce := bundle[len(magic)+saltSize : header]
	ciphertext := bundle[header:]

	aead, err := newAEAD(password, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, magic)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}

// Zero overwrites a secret in place. Call it on every exit path that is
// done with the plaintext, including failures.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func newAEAD(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	defer Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
