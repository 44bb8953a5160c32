package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSize = 16
	tagSize   = 16
)

// Codec provides authenticated symmetric encryption for secret strings.
// Output is a self-contained nonce:tag:body hex string, safe to store as
// an opaque column value. A single 256-bit key is derived once from the
// configured secret.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives the encryption key and builds the cipher. An empty
// secret is a configuration error; callers treat it as fatal at startup.
// A secret that is exactly 32 raw bytes, or 64 hex characters, is used
// directly; anything else is hashed with SHA-256 to force 32 bytes.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret is not configured")
	}

	key := deriveKey(secret)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

func deriveKey(secret string) []byte {
	if len(secret) == 64 {
		if raw, err := hex.DecodeString(secret); err == nil {
			return raw
		}
	}
	if len(secret) == 32 {
		return []byte(secret)
	}

	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// Encrypt seals the plaintext with a fresh random nonce and returns
// hex(nonce):hex(tag):hex(body).
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)

	// Seal appends the authentication tag to the ciphertext body
	body := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(body),
	), nil
}

// Decrypt opens a nonce:tag:body hex string. Any deviation from the format,
// and any tampering with nonce, tag or body, fails closed.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	parts := strings.Split(ciphertext, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid ciphertext format: expected 3 fields, got %d", len(parts))
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid nonce encoding: %w", err)
	}
	if len(nonce) != nonceSize {
		return "", fmt.Errorf("invalid nonce length: %d", len(nonce))
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("invalid tag encoding: %w", err)
	}

	body, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("invalid body encoding: %w", err)
	}

	plaintext, err := c.aead.Open(nil, nonce, append(body, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}
