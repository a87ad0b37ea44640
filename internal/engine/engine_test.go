package engine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/illarion/lockdir/internal/config"
	"github.com/illarion/lockdir/internal/crypto"
	"github.com/illarion/lockdir/internal/keys"
	"github.com/illarion/lockdir/internal/logging"
	"github.com/illarion/lockdir/internal/manifest"
)

func newTestEngine(t *testing.T, mutate func(*config.Config)) *Engine {
	t.Helper()

	stateDir := t.TempDir()
	cfg := config.Config{
		KeystorePath:    filepath.Join(stateDir, "master.key"),
		LogPath:         filepath.Join(stateDir, "run.log"),
		ManifestPath:    filepath.Join(stateDir, "manifest.db"),
		ExcludeSuffixes: []string{".enc"},
		Algorithm:       crypto.AlgoAESGCM,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	master, err := keys.NewKeystore(cfg.KeystorePath).LoadOrCreate()
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	deriver, err := keys.NewDeriver(master, keys.ScryptParams{N: 1 << 4, R: 8, P: 1})
	if err != nil {
		t.Fatalf("NewDeriver failed: %v", err)
	}
	t.Cleanup(deriver.Close)

	man, err := manifest.Open(cfg.ManifestPath)
	if err != nil {
		t.Fatalf("Open manifest failed: %v", err)
	}
	t.Cleanup(func() { man.Close() })

	log := logging.New(cfg.LogPath, false)
	t.Cleanup(func() { log.Close() })

	return New(cfg, deriver, man, log)
}

func writeTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	e := newTestEngine(t, nil)
	dir := t.TempDir()

	content := []byte("nothing up my sleeve")
	path := writeTestFile(t, dir, "notes.txt", content)

	if err := e.EncryptFile(path); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}

	encrypted, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(encrypted) != len(content)+crypto.HeaderSize {
		t.Errorf("Encrypted length %d, want %d", len(encrypted), len(content)+crypto.HeaderSize)
	}
	if bytes.Contains(encrypted, content) {
		t.Error("Ciphertext contains plaintext")
	}

	if err := e.DecryptFile(path); err != nil {
		t.Fatalf("DecryptFile failed: %v", err)
	}

	decrypted, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(decrypted, content) {
		t.Errorf("Round trip mismatch: got %q, want %q", decrypted, content)
	}
}

func TestEncryptEmptyFile(t *testing.T) {
	e := newTestEngine(t, nil)
	path := writeTestFile(t, t.TempDir(), "empty", nil)

	if err := e.EncryptFile(path); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}

	encrypted, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(encrypted) != crypto.HeaderSize {
		t.Errorf("Empty file container length %d, want %d", len(encrypted), crypto.HeaderSize)
	}

	if err := e.DecryptFile(path); err != nil {
		t.Fatalf("DecryptFile failed: %v", err)
	}
	decrypted, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(decrypted) != 0 {
		t.Errorf("Expected empty file, got %d bytes", len(decrypted))
	}
}

func TestEncryptPreservesPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	e := newTestEngine(t, nil)
	path := writeTestFile(t, t.TempDir(), "script.sh", []byte("#!/bin/sh\n"))
	if err := os.Chmod(path, 0700); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	if err := e.EncryptFile(path); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("Mode after encrypt %o, want 0700", perm)
	}
}

func TestDecryptTamperedLeavesFileUntouched(t *testing.T) {
	e := newTestEngine(t, nil)
	path := writeTestFile(t, t.TempDir(), "data.bin", []byte("important bytes"))

	if err := e.EncryptFile(path); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}

	encrypted, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	// Flip one bit inside the tag region.
	tampered := append([]byte(nil), encrypted...)
	tampered[crypto.NonceSize] ^= 0x01
	if err := os.WriteFile(path, tampered, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	err = e.DecryptFile(path)
	if !errors.Is(err, crypto.ErrAuthFailed) {
		t.Fatalf("Expected ErrAuthFailed, got %v", err)
	}

	after, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("ReadFile failed: %v", readErr)
	}
	if !bytes.Equal(after, tampered) {
		t.Error("Failed decryption must not alter the file")
	}
}

func TestDecryptShortContainer(t *testing.T) {
	e := newTestEngine(t, nil)
	path := writeTestFile(t, t.TempDir(), "tiny", []byte("short"))

	err := e.DecryptFile(path)
	if !errors.Is(err, crypto.ErrMalformedContainer) {
		t.Errorf("Expected ErrMalformedContainer, got %v", err)
	}
}

func TestEncryptTwiceIsGuarded(t *testing.T) {
	e := newTestEngine(t, nil)
	path := writeTestFile(t, t.TempDir(), "once.txt", []byte("encrypt me once"))

	if err := e.EncryptFile(path); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}
	if err := e.EncryptFile(path); !errors.Is(err, ErrAlreadyEncrypted) {
		t.Errorf("Expected ErrAlreadyEncrypted, got %v", err)
	}
}

func TestEncryptMissingFile(t *testing.T) {
	e := newTestEngine(t, nil)

	err := e.EncryptFile(filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	var terr *TransformError
	if !errors.As(err, &terr) {
		t.Errorf("Expected TransformError, got %T", err)
	}
}
