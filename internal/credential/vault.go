// Package credential stores the Gemini API key, sealed at rest.
package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/mindprep/mindprep/internal/kv"
)

// sealedPrefix marks ciphertext values. Values without it are plaintext keys
// written by older app versions and are read as-is.
const sealedPrefix = "enc:v1:"

// ErrEmptyKey is returned when saving a blank API key.
var ErrEmptyKey = errors.New("credential: API key is empty")

// Vault reads and writes the credential slot of the store. It implements
// gemini.KeySource.
type Vault struct {
	store kv.Store
	aead  interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
	nonceSize int
}

// NewVault creates a vault sealing with a key derived from the device
// secret.
func NewVault(store kv.Store, secret string) (*Vault, error) {
	if secret == "" {
		return nil, fmt.Errorf("credential: device secret is empty")
	}

	key := sha256.Sum256([]byte(secret))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("credential: init cipher: %w", err)
	}

	return &Vault{store: store, aead: aead, nonceSize: chacha20poly1305.NonceSizeX}, nil
}

// APIKey returns the stored Gemini API key, or "" when none is configured.
func (v *Vault) APIKey(ctx context.Context) (string, error) {
	raw, err := v.store.Get(ctx, kv.KeyCredential)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read credential: %w", err)
	}

	if !strings.HasPrefix(raw, sealedPrefix) {
		// Plaintext key from before sealing existed.
		return raw, nil
	}

	blob, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(raw, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("credential: decode sealed key: %w", err)
	}
	if len(blob) < v.nonceSize {
		return "", fmt.Errorf("credential: sealed key too short")
	}

	plain, err := v.aead.Open(nil, blob[:v.nonceSize], blob[v.nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("credential: unseal key: %w", err)
	}
	return string(plain), nil
}

// SetAPIKey seals and stores the key.
func (v *Vault) SetAPIKey(ctx context.Context, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return ErrEmptyKey
	}

	nonce := make([]byte, v.nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("credential: nonce: %w", err)
	}

	sealed := v.aead.Seal(nil, nonce, []byte(apiKey), nil)
	value := sealedPrefix + base64.StdEncoding.EncodeToString(append(nonce, sealed...))

	if err := v.store.Set(ctx, kv.KeyCredential, value); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Clear removes the stored key.
func (v *Vault) Clear(ctx context.Context) error {
	return v.store.Delete(ctx, kv.KeyCredential)
}
