// Package crypto seals backup files with AES-256-GCM under a key derived
// from a passphrase with scrypt.
//
// Sealed layout:
//
//	magic (8) | salt (16) | nonce (12) | ciphertext+tag
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// KeySize is the required size for AES-256 keys (32 bytes)
	KeySize = 32
	// NonceSize is the standard size for GCM nonces (12 bytes)
	NonceSize = 12
	SaltSize  = 16

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var magic = []byte("CYPHSEAL")

var (
	ErrInvalidKeySize     = errors.New("encryption key must be 32 bytes for AES-256")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecryptionFailed   = errors.New("decryption failed: wrong passphrase or corrupted data")
	ErrNotSealed          = errors.New("data is not sealed")
	ErrEmptyPassphrase    = errors.New("passphrase must not be empty")
)

// Encryptor handles AES-256-GCM encryption and decryption
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates a new Encryptor with the given key.
// Key must be exactly 32 bytes for AES-256.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Encryptor{aead: gcm}, nil
}

// DeriveKey stretches passphrase into an AES-256 key.
func DeriveKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Encrypt returns nonce || ciphertext.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < e.aead.NonceSize() {
		return nil, ErrCiphertextTooShort
	}
	nonce := ciphertext[:e.aead.NonceSize()]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext[e.aead.NonceSize():], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Seal encrypts plaintext under passphrase with a fresh random salt.
func Seal(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	enc, err := NewEncryptor(key)
	if err != nil {
		return nil, err
	}
	body, err := enc.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(magic)+SaltSize+len(body))
	out = append(out, magic...)
	out = append(out, salt...)
	return append(out, body...), nil
}

// Open decrypts data produced by Seal.
func Open(passphrase string, sealed []byte) ([]byte, error) {
	if !IsSealed(sealed) {
		return nil, ErrNotSealed
	}
	rest := sealed[len(magic):]
	if len(rest) < SaltSize+NonceSize {
		return nil, ErrCiphertextTooShort
	}
	key, err := DeriveKey(passphrase, rest[:SaltSize])
	if err != nil {
		return nil, err
	}
	enc, err := NewEncryptor(key)
	if err != nil {
		return nil, err
	}
	return enc.Decrypt(rest[SaltSize:])
}

// IsSealed reports whether data starts with the sealed-file marker.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// GenerateKeyBytes generates a new random 32-byte key for AES-256.
func GenerateKeyBytes() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}
