package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyEncrypted marks a file the manifest records as
	// encrypted; encrypting it again would bury the plaintext under a
	// second layer.
	ErrAlreadyEncrypted = errors.New("file is already encrypted")
	// ErrNotRegular marks directories, symlinks and special files.
	ErrNotRegular = errors.New("not a regular file")
	// ErrNoRoots is returned when a walk has nothing to visit.
	ErrNoRoots = errors.New("no roots to walk")
)

// TransformError wraps a per-file failure with the operation and path.
// All transform failures stop at this boundary: the walker logs them
// and moves to the next file.
type TransformError struct {
	Op   string // "encrypt" or "decrypt"
	Path string
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
