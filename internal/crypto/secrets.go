// Package crypto protects per-user secrets at rest and hashes passwords.
package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/baing/baing/internal/database/sqlc"
)

const (
	// EncryptedPrefix marks encrypted values in the database.
	EncryptedPrefix = "enc:v1:"

	pbkdf2Iterations = 100000
	keyLength        = 32 // AES-256
	saltLength       = 16

	saltSettingKey = "secret_store_salt"
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrEmptyPassphrase   = errors.New("secret store passphrase is empty")
)

// SaltStore persists the key-derivation salt.
type SaltStore interface {
	GetSetting(ctx context.Context, key string) (*sqlc.Setting, error)
	SetSetting(ctx context.Context, arg sqlc.SetSettingParams) error
}

// SecretStore encrypts small secrets such as user-supplied API keys.
type SecretStore struct {
	key []byte
}

// NewSecretStore derives an AES-256 key from passphrase and salt.
func NewSecretStore(passphrase string, salt []byte) *SecretStore {
	return &SecretStore{key: pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keyLength, sha256.New)}
}

// OpenSecretStore loads the persisted salt, creating it on first use, and
// derives the store key from passphrase.
func OpenSecretStore(ctx context.Context, settings SaltStore, passphrase string) (*SecretStore, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	setting, err := settings.GetSetting(ctx, saltSettingKey)
	switch {
	case err == nil && setting.Value != "":
		salt, decErr := hex.DecodeString(setting.Value)
		if decErr != nil {
			return nil, fmt.Errorf("decode stored salt: %w", decErr)
		}
		return NewSecretStore(passphrase, salt), nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("load salt: %w", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	if err := settings.SetSetting(ctx, sqlc.SetSettingParams{Key: saltSettingKey, Value: hex.EncodeToString(salt)}); err != nil {
		return nil, fmt.Errorf("persist salt: %w", err)
	}
	return NewSecretStore(passphrase, salt), nil
}

// GenerateSalt creates a random salt for key derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

func (s *SecretStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with AES-256-GCM and returns it base64 encoded
// behind EncryptedPrefix. Empty input stays empty.
func (s *SecretStore) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values without the prefix are returned unchanged.
func (s *SecretStore) Decrypt(ciphertext string) (string, error) {
	if !IsEncrypted(ciphertext) {
		return ciphertext, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, EncryptedPrefix))
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrInvalidCiphertext
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// IsEncrypted checks if a value has the encryption prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptedPrefix)
}
