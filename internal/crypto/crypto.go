package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	KeySize    = 32 // AES-256 / ChaCha20 key size
	NonceSize  = 12 // Nonce size shared by both AEAD modes
	TagSize    = 16 // Authentication tag size shared by both AEAD modes
	HeaderSize = NonceSize + TagSize
)

// Supported AEAD algorithm identifiers.
const (
	AlgoAESGCM   = "aes-256-gcm"
	AlgoChaCha20 = "chacha20-poly1305"
)

var (
	ErrMalformedContainer = errors.New("malformed container")
	ErrAuthFailed         = errors.New("authentication failed")
	ErrUnknownAlgorithm   = errors.New("unknown algorithm")
)

// NewAEAD creates an AEAD cipher for the given algorithm identifier.
// Both supported algorithms take a 32-byte key, consume a 12-byte nonce
// and produce a 16-byte tag, so containers are interchangeable at the
// framing level.
func NewAEAD(algorithm string, key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}

	switch algorithm {
	case AlgoAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create AES cipher: %w", err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCM: %w", err)
		}
		return aead, nil
	case AlgoChaCha20:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create ChaCha20-Poly1305: %w", err)
		}
		return aead, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

// KnownAlgorithm reports whether the identifier names a supported AEAD mode.
func KnownAlgorithm(algorithm string) bool {
	return algorithm == AlgoAESGCM || algorithm == AlgoChaCha20
}

// GenerateNonce generates a fresh random nonce. A nonce must never be
// reused with the same key.
func GenerateNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

// GenerateKey generates a random 32-byte key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
