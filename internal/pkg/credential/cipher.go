// Package credential stores the generation-service API key encrypted at rest
// and resolves it at runtime.
//
// The encryption keeps the key out of plain sight in the config file. It is
// not a security boundary: the passphrase defaults to a constant shipped with
// the binary unless COMMITWISE_SECRET is set.
package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
)

const (
	// SecretEnv names the variable that seeds the encryption passphrase.
	SecretEnv = "COMMITWISE_SECRET"
	// DefaultPassphrase is used when SecretEnv is unset.
	DefaultPassphrase = "commitwise-local-obfuscation-key"

	ivSize  = 16
	tagSize = 16
)

var errBlobTooShort = errors.New("ciphertext too short")

// DeriveKey derives the 256-bit AES key from a passphrase.
func DeriveKey(passphrase string) [32]byte {
	return sha256.Sum256([]byte(passphrase))
}

// Passphrase returns COMMITWISE_SECRET, or DefaultPassphrase when unset.
func Passphrase() string {
	if secret := os.Getenv(SecretEnv); secret != "" {
		return secret
	}
	return DefaultPassphrase
}

// Cipher encrypts short strings with AES-256-GCM.
// Blobs are base64(iv || tag || ciphertext) with a 16-byte IV.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a cipher keyed from passphrase.
func NewCipher(passphrase string) (*Cipher, error) {
	key := DeriveKey(passphrase)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt encrypts plaintext under a fresh random IV.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	// Seal returns ciphertext || tag.
	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	blob := make([]byte, 0, ivSize+tagSize+len(ct))
	blob = append(blob, iv...)
	blob = append(blob, tag...)
	blob = append(blob, ct...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. Malformed input and tag mismatches return a
// *errors.DecryptionError.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", &apperrors.DecryptionError{Err: err}
	}
	if len(blob) < ivSize+tagSize {
		return "", &apperrors.DecryptionError{Err: errBlobTooShort}
	}

	iv := blob[:ivSize]
	tag := blob[ivSize : ivSize+tagSize]
	ct := blob[ivSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", &apperrors.DecryptionError{Err: err}
	}
	return string(plaintext), nil
}
