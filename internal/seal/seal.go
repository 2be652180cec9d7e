// Package seal encrypts answer text at rest with a key derived per server.
package seal

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const prefix = "v1:"

// ErrMalformed is returned by Open for sealed text that cannot be decoded.
var ErrMalformed = errors.New("malformed sealed text")

// Box seals text with XChaCha20-Poly1305. Each server gets its own key,
// derived from the master key with HKDF-SHA256.
type Box struct {
	master []byte
}

// New builds a Box from a master key of at least 32 bytes.
func New(master []byte) (*Box, error) {
	if len(master) < chacha20poly1305.KeySize {
		return nil, fmt.Errorf("master key must be at least %d bytes", chacha20poly1305.KeySize)
	}
	return &Box{master: append([]byte(nil), master...)}, nil
}

// Seal encrypts plaintext. Empty input stays empty.
func (b *Box) Seal(serverID, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := b.aead(serverID)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := aead.Seal(nonce, nonce, []byte(plaintext), []byte(serverID))
	return prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts text produced by Seal. Text without the sealed prefix is
// returned unchanged so rows written before sealing was enabled stay readable.
func (b *Box) Open(serverID, sealed string) (string, error) {
	if !strings.HasPrefix(sealed, prefix) {
		return sealed, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, prefix))
	if err != nil {
		return "", ErrMalformed
	}
	aead, err := b.aead(serverID)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrMalformed
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(serverID))
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	return string(plain), nil
}

func (b *Box) aead(serverID string) (cipher.AEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, b.master, nil, []byte("playtesting-bot/"+serverID))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return chacha20poly1305.NewX(key)
}

// Plain stores text as-is. It is used when no encryption key is configured.
type Plain struct{}

func (Plain) Seal(_, plaintext string) (string, error) { return plaintext, nil }

func (Plain) Open(_, sealed string) (string, error) { return sealed, nil }
