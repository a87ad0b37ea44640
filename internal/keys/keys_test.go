package keys

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// Fast scrypt costs for tests. Production defaults are heavier.
var testScrypt = ScryptParams{N: 1 << 4, R: 8, P: 1}

func TestKeystoreCreateAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.key")

	ks := NewKeystore(path)
	key1, err := ks.LoadOrCreate()
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if len(key1) != MasterKeySize {
		t.Fatalf("Key length %d, want %d", len(key1), MasterKeySize)
	}

	// A second keystore on the same path simulates a later process.
	key2, err := NewKeystore(path).LoadOrCreate()
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if !bytes.Equal(key1, key2) {
		t.Error("Reloaded key differs from created key")
	}
}

func TestKeystorePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	path := filepath.Join(t.TempDir(), "master.key")
	if _, err := NewKeystore(path).LoadOrCreate(); err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != FilePermSecure {
		t.Errorf("Keystore mode %o, want %o", perm, FilePermSecure)
	}
}

func TestKeystoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "master.key")
	if _, err := NewKeystore(path).LoadOrCreate(); err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Keystore file should exist: %v", err)
	}
}

func TestKeystoreRejectsWrongLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")
	if err := os.WriteFile(path, []byte("too short"), 0600); err != nil {
		t.Fatalf("Failed to write keystore: %v", err)
	}

	_, err := NewKeystore(path).LoadOrCreate()
	if !errors.Is(err, ErrKeystoreUnavailable) {
		t.Errorf("Expected ErrKeystoreUnavailable, got %v", err)
	}
}

func TestKeystoreUnwritableParent(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission checks need a non-root unix user")
	}

	dir := t.TempDir()
	if err := os.Chmod(dir, 0500); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0700) })

	_, err := NewKeystore(filepath.Join(dir, "sub", "master.key")).LoadOrCreate()
	if !errors.Is(err, ErrKeystoreUnavailable) {
		t.Errorf("Expected ErrKeystoreUnavailable, got %v", err)
	}
}

func newTestDeriver(t *testing.T) *Deriver {
	t.Helper()
	master := bytes.Repeat([]byte{0x42}, MasterKeySize)
	d, err := NewDeriver(master, testScrypt)
	if err != nil {
		t.Fatalf("NewDeriver failed: %v", err)
	}
	return d
}

func TestDeriveDistinctPaths(t *testing.T) {
	d := newTestDeriver(t)
	defer d.Close()

	paths := []string{
		"/home/alice/notes.txt",
		"/home/alice/notes.txt.bak",
		"/home/bob/notes.txt",
		"/var/data/report.pdf",
	}

	seen := make(map[string]string)
	for _, p := range paths {
		key := d.Derive(p)
		if len(key) != 32 {
			t.Fatalf("Derived key length %d, want 32", len(key))
		}
		if prev, ok := seen[string(key)]; ok {
			t.Errorf("Paths %q and %q derived the same key", prev, p)
		}
		seen[string(key)] = p
	}
}

func TestDeriveDeterministic(t *testing.T) {
	d := newTestDeriver(t)
	defer d.Close()

	const path = "/opt/app/config.yaml"
	key1 := d.Derive(path)
	key2 := d.Derive(path)
	if !bytes.Equal(key1, key2) {
		t.Error("Repeated derivation returned different keys")
	}
	if d.CacheSize() != 1 {
		t.Errorf("Cache size %d, want 1", d.CacheSize())
	}

	// A fresh deriver over the same master must agree: correctness does
	// not depend on the cache.
	d2 := newTestDeriver(t)
	defer d2.Close()
	if !bytes.Equal(key1, d2.Derive(path)) {
		t.Error("Independent deriver disagrees for the same master and path")
	}
}

func TestDeriveDependsOnScryptParams(t *testing.T) {
	master := bytes.Repeat([]byte{0x42}, MasterKeySize)

	d1, err := NewDeriver(master, testScrypt)
	if err != nil {
		t.Fatalf("NewDeriver failed: %v", err)
	}
	defer d1.Close()

	d2, err := NewDeriver(master, ScryptParams{N: 1 << 5, R: 8, P: 1})
	if err != nil {
		t.Fatalf("NewDeriver failed: %v", err)
	}
	defer d2.Close()

	if bytes.Equal(d1.Derive("/a"), d2.Derive("/a")) {
		t.Error("Different cost parameters should yield different subkeys")
	}
}

func TestNewDeriverRejectsBadMaster(t *testing.T) {
	if _, err := NewDeriver([]byte("short"), testScrypt); err == nil {
		t.Error("Expected error for short master key")
	}
	master := bytes.Repeat([]byte{0x01}, MasterKeySize)
	if _, err := NewDeriver(master, ScryptParams{N: 3, R: 8, P: 1}); err == nil {
		t.Error("Expected error for non-power-of-two scrypt N")
	}
}
