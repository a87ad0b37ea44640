package keys

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/scrypt"

	"github.com/illarion/lockdir/internal/crypto"
)

// ScryptParams are the cost parameters for the master key stretch.
type ScryptParams struct {
	N int
	R int
	P int
}

// DefaultScryptParams are interactive-strength scrypt costs. The stretch
// runs once per process, not per file, so heavier settings only delay
// startup.
var DefaultScryptParams = ScryptParams{N: 1 << 15, R: 8, P: 1}

// Deriver computes per-path subkeys from the master secret and caches
// them for the lifetime of one engine run. It is not safe for concurrent
// use; the engine is single-threaded.
type Deriver struct {
	master []byte
	cache  map[string][]byte
}

// NewDeriver stretches the raw master secret through scrypt under the
// given cost parameters and returns a deriver ready for per-path
// derivation. The stretch happens exactly once per run; derivation
// itself is a pure keyed hash.
func NewDeriver(master []byte, params ScryptParams) (*Deriver, error) {
	if len(master) != MasterKeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", MasterKeySize, len(master))
	}

	// The keystore already holds full-entropy random bytes; the stretch
	// exists so that a copied keystore file alone is not immediately
	// usable without also knowing the configured cost parameters.
	stretched, err := scrypt.Key(master, []byte(serviceName), params.N, params.R, params.P, crypto.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to stretch master key: %w", err)
	}

	return &Deriver{
		master: stretched,
		cache:  make(map[string][]byte),
	}, nil
}

// Derive returns the 32-byte subkey for a file path:
//
//	HMAC-SHA256(key = master, message = SHA256(path))
//
// Derivation is deterministic in (master, path); the cache is an
// optimization only. The returned slice is owned by the cache and must
// not be modified.
func (d *Deriver) Derive(path string) []byte {
	if key, ok := d.cache[path]; ok {
		return key
	}

	pathHash := sha256.Sum256([]byte(path))
	mac := hmac.New(sha256.New, d.master)
	mac.Write(pathHash[:])
	key := mac.Sum(nil)

	d.cache[path] = key
	return key
}

// CacheSize returns the number of cached derived keys.
func (d *Deriver) CacheSize() int {
	return len(d.cache)
}

// Close zeroes the master key and all cached subkeys.
func (d *Deriver) Close() {
	crypto.ClearBytes(d.master)
	for _, key := range d.cache {
		crypto.ClearBytes(key)
	}
	d.cache = nil
}
