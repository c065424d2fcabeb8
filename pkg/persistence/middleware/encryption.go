package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
)

// envelopePrefix marks encrypted artifact content at rest.
const envelopePrefix = "enc:v1:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.ArtifactStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts artifact content
// at rest using AES-GCM. Summaries stay in the clear so run listings remain
// usable without the key.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.ArtifactStore) ports.ArtifactStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, runID string, phase int, content, summary string) (*domain.Artifact, error) {
	ciphertext, err := encrypt([]byte(content), m.config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt artifact: %w", err)
	}

	sealed := envelopePrefix + base64.StdEncoding.EncodeToString(ciphertext)
	artifact, err := m.next.Save(ctx, runID, phase, sealed, summary)
	if err != nil {
		return nil, err
	}

	// Hand the caller back the plaintext it gave us.
	artifact.Content = content
	return artifact, nil
}

func (m *encryptionMiddleware) Load(ctx context.Context, runID string, phase int) (*domain.Artifact, error) {
	artifact, err := m.next.Load(ctx, runID, phase)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(artifact.Content, envelopePrefix) {
		// Encryption configured but the stored blob is plain. Fail secure
		// rather than guessing.
		return nil, errors.New("artifact is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(artifact.Content, envelopePrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plaintext, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt artifact: %w", err)
	}

	artifact.Content = string(plaintext)
	return artifact, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
