package keys

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/illarion/lockdir/internal/crypto"
)

const (
	serviceName = "lockdir"
	keyringUser = "master-key"
)

// Source yields the master secret. The file-backed Keystore is the
// default; KeyringStore is the opt-in OS keyring backend.
type Source interface {
	LoadOrCreate() ([]byte, error)
	Location() string
}

// Location returns the keystore file path for display.
func (k *Keystore) Location() string {
	return k.path
}

// KeyringStore stores the master secret in the OS keyring instead of a
// file. The secret is base64-encoded because keyring backends expect
// string values.
type KeyringStore struct{}

// NewKeyringStore creates an OS-keyring-backed master key source.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// Location returns a display name for the keyring entry.
func (s *KeyringStore) Location() string {
	return "os-keyring:" + serviceName
}

// LoadOrCreate reads the master secret from the OS keyring, generating
// and storing a fresh one if no entry exists.
func (s *KeyringStore) LoadOrCreate() ([]byte, error) {
	encoded, err := keyring.Get(serviceName, keyringUser)
	if err == nil {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(key) != MasterKeySize {
			return nil, fmt.Errorf("%w: corrupt keyring entry", ErrKeystoreUnavailable)
		}
		return key, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
	}
	if err := keyring.Set(serviceName, keyringUser, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
	}
	return key, nil
}
