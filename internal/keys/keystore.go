package keys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/lockdir/internal/crypto"
)

const (
	MasterKeySize  = 32   // Raw master secret size
	FilePermSecure = 0600 // Keystore file: owner rw only
	DirPermSecure  = 0700 // Keystore directory: owner rwx only
)

var ErrKeystoreUnavailable = errors.New("keystore unavailable")

// Keystore loads or creates the 32-byte master secret. It is the sole
// root of all key material; nothing outside this package reads the
// keystore path directly.
type Keystore struct {
	path string
}

// NewKeystore creates a keystore backed by a file at the given path.
func NewKeystore(path string) *Keystore {
	return &Keystore{path: path}
}

// Path returns the keystore file path.
func (k *Keystore) Path() string {
	return k.path
}

// LoadOrCreate reads the master secret from the keystore file, generating
// and persisting a fresh one if the file does not exist yet. The create
// uses O_EXCL so two processes racing to initialize the keystore converge
// on a single key: the loser of the race re-reads the winner's file.
func (k *Keystore) LoadOrCreate() ([]byte, error) {
	key, err := k.read()
	if err == nil {
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
	}

	key, err = crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
	}

	if err := os.MkdirAll(filepath.Dir(k.path), DirPermSecure); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
	}

	f, err := os.OpenFile(k.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FilePermSecure)
	if err != nil {
		if os.IsExist(err) {
			// Another process won the race, use its key.
			crypto.ClearBytes(key)
			key, err = k.read()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
			}
			return key, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
	}

	if _, err := f.Write(key); err != nil {
		f.Close()
		os.Remove(k.path)
		return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(k.path)
		return nil, fmt.Errorf("%w: %v", ErrKeystoreUnavailable, err)
	}

	return key, nil
}

func (k *Keystore) read() ([]byte, error) {
	data, err := os.ReadFile(k.path)
	if err != nil {
		return nil, err
	}
	if len(data) != MasterKeySize {
		return nil, fmt.Errorf("keystore file is %d bytes, want %d", len(data), MasterKeySize)
	}
	return data, nil
}
