// Package credstore provides an AES-256-GCM at-rest encryption helper for
// provider credentials (GitHub PAT, Reddit API creds). The user
// configuration module may use it to store tokens outside of a plaintext
// file at its own option; axol's core treats every credential value as
// opaque regardless of whether it passed through here.
package credstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	ErrInvalidKeyLength  = errors.New("credstore: encryption key must be 32 bytes")
	ErrInvalidCiphertext = errors.New("credstore: invalid ciphertext format")
)

var (
	cachedKey []byte
	keyOnce   sync.Once
	keyErr    error
)

// keyEnvVar is the environment variable axol reads the at-rest encryption
// key from.
const keyEnvVar = "AXOL_ENCRYPTION_KEY"

func getEncryptionKey() ([]byte, error) {
	keyOnce.Do(func() {
		key := os.Getenv(keyEnvVar)
		if key == "" {
			keyErr = fmt.Errorf("%s environment variable not set", keyEnvVar)
			return
		}
		keyBytes := []byte(key)
		if len(keyBytes) != 32 {
			keyErr = fmt.Errorf("%w: got %d bytes, need 32", ErrInvalidKeyLength, len(keyBytes))
			return
		}
		cachedKey = keyBytes
	})
	return cachedKey, keyErr
}

// Encrypt encrypts plaintext using AES-GCM and returns base64-encoded
// ciphertext. Always encrypts, even empty strings; an absent credential
// should be represented by omitting the field entirely, not by an empty
// ciphertext.
func Encrypt(plaintext string) (string, error) {
	key, err := getEncryptionKey()
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("credstore: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("credstore: new gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("credstore: generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts base64-encoded ciphertext produced by Encrypt.
func Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", errors.New("credstore: cannot decrypt empty string")
	}
	key, err := getEncryptionKey()
	if err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("credstore: decode base64: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("credstore: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("credstore: new gcm: %w", err)
	}
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertextBytes := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", fmt.Errorf("credstore: decrypt: %w", err)
	}
	return string(plaintext), nil
}
