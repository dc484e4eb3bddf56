// Package vault encrypts mailbox passwords at rest. Each value is encrypted
// with AES-256-CTR under a fresh random IV and stored as hex(iv):hex(data),
// so every token is decryptable on its own.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const keySize = 32

// ErrCorruptCredential is returned when a stored token cannot be decoded.
// Callers surface this as an account configuration problem rather than a
// connection failure.
var ErrCorruptCredential = errors.New("corrupt credential token")

// Vault performs symmetric encryption with a fixed process-level key.
type Vault struct {
	key []byte
}

// New builds a vault from the configured secret. The secret is zero-padded
// or truncated to the AES-256 key length.
func New(secret string) *Vault {
	key := make([]byte, keySize)
	copy(key, secret)
	return &Vault{key: key}
}

// Encrypt returns an opaque token for plaintext. Two calls with the same
// input produce different tokens because the IV is random per call.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	out := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(out, []byte(plaintext))

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Malformed tokens yield ErrCorruptCredential.
func (v *Vault) Decrypt(token string) (string, error) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: missing iv separator", ErrCorruptCredential)
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: bad iv", ErrCorruptCredential)
	}

	data, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext", ErrCorruptCredential)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	out := make([]byte, len(data))
	cipher.NewCTR(block, iv).XORKeyStream(out, data)

	return string(out), nil
}
