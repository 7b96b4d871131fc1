package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/ports"
)

const secureStoreInfo = "medetech secure store v1"

// ErrInvalidKeyLength is returned when the master secret is too short.
var ErrInvalidKeyLength = errors.New("invalid key length")

// SecureStore encrypts values with AES-GCM before handing them to a backing
// key-value store. Keys are stored in clear.
type SecureStore struct {
	backing ports.KeyValueStore
	aead    cipher.AEAD
}

// NewSecureStore derives the encryption key from secret with HKDF-SHA256.
func NewSecureStore(backing ports.KeyValueStore, secret []byte) (*SecureStore, error) {
	if len(secret) < 16 {
		return nil, ErrInvalidKeyLength
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(secureStoreInfo)), key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SecureStore{backing: backing, aead: aead}, nil
}

// Get implements ports.SecureStore.
func (s *SecureStore) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := s.backing.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := s.open(key, sealed)
	if err != nil {
		return "", false, fmt.Errorf("decrypt %s: %w", key, err)
	}
	return plain, true, nil
}

// Set implements ports.SecureStore.
func (s *SecureStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	return s.backing.Set(ctx, key, sealed)
}

// Delete implements ports.SecureStore.
func (s *SecureStore) Delete(ctx context.Context, key string) error {
	return s.backing.Delete(ctx, key)
}

// Clear implements ports.SecureStore.
func (s *SecureStore) Clear(ctx context.Context) error {
	return s.backing.Clear(ctx)
}

// seal returns base64(nonce || ciphertext). The key name is bound as
// additional data so values cannot be swapped between keys.
func (s *SecureStore) seal(key, value string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	out := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *SecureStore) open(key, sealed string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	ns := s.aead.NonceSize()
	if len(blob) < ns {
		return "", errors.New("ciphertext too short")
	}
	plain, err := s.aead.Open(nil, blob[:ns], blob[ns:], []byte(key))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// LoadOrCreateSecret resolves the master secret: the environment variable wins,
// otherwise a hex-encoded 32-byte secret is read from (or created at) keyFile.
func LoadOrCreateSecret(envVar, keyFile string) ([]byte, error) {
	if envVar != "" {
		if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
			return []byte(value), nil
		}
	}
	data, err := os.ReadFile(keyFile)
	if err == nil {
		secret, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("master key hex decode error: %w", err)
		}
		return secret, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	secret := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(keyFile), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyFile, []byte(hex.EncodeToString(secret)), domain.SecureFilePermissions); err != nil {
		return nil, err
	}
	return secret, nil
}

var _ ports.SecureStore = (*SecureStore)(nil)
