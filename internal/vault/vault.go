// Package vault provides symmetric encryption for credential strings
// before they enter session storage.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/a-steris/paydash/internal/app/domain"
)

const keySize = 32

var kdfSalt = []byte("paydash:credential-vault:v1")

// Vault encrypts and decrypts credential strings with a single AES-256-GCM
// key fixed at construction. Both operations are pure over that key.
type Vault struct {
	key []byte
}

// New derives the vault key from the configured passphrase using Argon2id
// and returns a ready vault.
func New(passphrase string) (*Vault, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("vault passphrase must not be empty")
	}
	key := argon2.IDKey([]byte(passphrase), kdfSalt, 1, 64*1024, 4, keySize)
	return &Vault{key: key}, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext). Empty
// input returns empty output: empty credentials are never encrypted.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed or tampered input returns
// domain.ErrDecryption; callers must treat that identically to
// "credential absent" and force reauthentication.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", domain.ErrDecryption
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	if len(raw) < gcm.NonceSize() {
		return "", domain.ErrDecryption
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", domain.ErrDecryption
	}
	return string(plaintext), nil
}
