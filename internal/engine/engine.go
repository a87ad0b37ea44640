package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/lockdir/internal/config"
	"github.com/illarion/lockdir/internal/crypto"
	"github.com/illarion/lockdir/internal/keys"
	"github.com/illarion/lockdir/internal/logging"
	"github.com/illarion/lockdir/internal/manifest"
)

// Op selects the transformation a walk applies. The operation is an
// explicit parameter everywhere; nothing in the engine defaults to
// encryption.
type Op int

const (
	OpEncrypt Op = iota
	OpDecrypt
)

// String returns the operation name for logs and run records.
func (op Op) String() string {
	if op == OpDecrypt {
		return "unlock"
	}
	return "lock"
}

// Engine orchestrates per-file encryption and decryption: read,
// transform, write to a sibling temp file, atomically rename over the
// original. It is single-threaded by design.
type Engine struct {
	cfg     config.Config
	deriver *keys.Deriver
	man     *manifest.Manifest // nil when state tracking is unavailable
	log     *logging.Logger
	policy  *Policy
	runID   string

	// Progress, when set, is called with each path before it is
	// transformed. Used by the CLI spinner.
	Progress func(path string)

	// DecryptAll makes a decrypt walk attempt every eligible file
	// instead of only those the manifest records as encrypted. Useful
	// when the manifest was lost; safe because verification fails
	// before anything is written.
	DecryptAll bool
}

// New creates an engine. The manifest may be nil; the engine then runs
// without the double-encryption guard and without run records.
func New(cfg config.Config, deriver *keys.Deriver, man *manifest.Manifest, log *logging.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		deriver: deriver,
		man:     man,
		log:     log,
		policy:  NewPolicy(cfg.ExcludePrefixes, cfg.ExcludeSuffixes),
	}
}

// Policy returns the engine's selection policy.
func (e *Engine) Policy() *Policy {
	return e.policy
}

// EncryptFile encrypts one file in place. The whole file is buffered in
// memory, sealed under the path's derived key, written to a sibling
// temp file and renamed over the original in a single atomic step. The
// earlier delete-then-rename design had a crash window that lost the
// file; rename-over-target narrows that to a stray temp file at worst.
func (e *Engine) EncryptFile(path string) error {
	if e.man != nil {
		encrypted, err := e.man.IsEncrypted(path)
		if err == nil && encrypted {
			return ErrAlreadyEncrypted
		}
	}

	info, err := os.Lstat(path)
	if err != nil {
		return &TransformError{Op: "encrypt", Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &TransformError{Op: "encrypt", Path: path, Err: ErrNotRegular}
	}

	plaintext, err := os.ReadFile(path)
	if err != nil {
		return &TransformError{Op: "encrypt", Path: path, Err: err}
	}

	aead, err := crypto.NewAEAD(e.cfg.Algorithm, e.deriver.Derive(path))
	if err != nil {
		return &TransformError{Op: "encrypt", Path: path, Err: err}
	}

	container, err := crypto.Seal(aead, plaintext)
	if err != nil {
		return &TransformError{Op: "encrypt", Path: path, Err: err}
	}

	if err := replaceFile(path, container, info.Mode().Perm()); err != nil {
		return &TransformError{Op: "encrypt", Path: path, Err: err}
	}

	if e.man != nil {
		entry := manifest.FileEntry{
			Path:        path,
			Size:        int64(len(plaintext)),
			Algorithm:   e.cfg.Algorithm,
			RunID:       e.runID,
			EncryptedAt: time.Now(),
		}
		if err := e.man.MarkEncrypted(entry); err != nil {
			e.log.Warnf("Encrypted %s but failed to record it: %v", path, err)
		}
	}

	e.log.Infof("Encrypted %s", path)
	return nil
}

// DecryptFile decrypts one file in place. Verification happens before
// any destructive step: a malformed or tampered container leaves the
// original file untouched.
func (e *Engine) DecryptFile(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return &TransformError{Op: "decrypt", Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &TransformError{Op: "decrypt", Path: path, Err: ErrNotRegular}
	}

	container, err := os.ReadFile(path)
	if err != nil {
		return &TransformError{Op: "decrypt", Path: path, Err: err}
	}

	aead, err := crypto.NewAEAD(e.cfg.Algorithm, e.deriver.Derive(path))
	if err != nil {
		return &TransformError{Op: "decrypt", Path: path, Err: err}
	}

	plaintext, err := crypto.Open(aead, container)
	if err != nil {
		return &TransformError{Op: "decrypt", Path: path, Err: err}
	}

	if err := replaceFile(path, plaintext, info.Mode().Perm()); err != nil {
		return &TransformError{Op: "decrypt", Path: path, Err: err}
	}

	if e.man != nil {
		if err := e.man.ClearEncrypted(path); err != nil {
			e.log.Warnf("Decrypted %s but failed to clear its record: %v", path, err)
		}
	}

	e.log.Infof("Decrypted %s", path)
	return nil
}

// replaceFile writes data to a sibling temp file and renames it over
// the target. The rename is atomic on POSIX filesystems; a crash before
// it leaves the original intact plus at most one stray temp file.
func replaceFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".lockdir-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set temp file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
