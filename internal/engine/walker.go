package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// WalkResult summarizes one walk.
type WalkResult struct {
	Processed int // Files transformed successfully
	Skipped   int // Files passed over by policy or manifest state
	Failed    int // Files whose transform failed
}

// Walk visits every entry under the given roots, applies the selection
// policy and invokes the operation's transform per eligible file. A
// single file's failure is logged and counted; the walk continues with
// the next file. Roots that do not exist are logged and skipped.
// Cancellation is cooperative: the walk stops before the next file,
// never in the middle of a transform.
func (e *Engine) Walk(ctx context.Context, roots []string, op Op) (*WalkResult, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	if e.man != nil {
		runID, err := e.man.BeginRun(op.String())
		if err != nil {
			e.log.Warnf("Failed to record run start: %v", err)
		} else {
			e.runID = runID
		}
	}

	result := &WalkResult{}
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			e.log.Errorf("Failed %s: %v", root, err)
			result.Failed++
			continue
		}
		if _, err := os.Stat(absRoot); err != nil {
			if os.IsNotExist(err) {
				e.log.Warnf("Skipping missing root %s", absRoot)
			} else {
				e.log.Errorf("Failed %s: %v", absRoot, err)
				result.Failed++
			}
			continue
		}

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			if walkErr != nil {
				e.log.Errorf("Failed %s: %v", path, walkErr)
				result.Failed++
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			if !e.policy.Eligible(path, d.Type()) {
				result.Skipped++
				return nil
			}

			e.transformOne(path, op, result)
			return nil
		})
		if err != nil {
			e.log.Errorf("Failed %s: %v", absRoot, err)
			result.Failed++
		}
	}

	if e.man != nil && e.runID != "" {
		if err := e.man.FinishRun(e.runID, result.Processed, result.Skipped, result.Failed); err != nil {
			e.log.Warnf("Failed to record run end: %v", err)
		}
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

func (e *Engine) transformOne(path string, op Op, result *WalkResult) {
	if e.Progress != nil {
		e.Progress(path)
	}

	var err error
	switch op {
	case OpDecrypt:
		// Without a manifest record the file is assumed plaintext; a
		// wrong guess is harmless because verification fails before
		// anything is written.
		if e.man != nil && !e.DecryptAll {
			encrypted, manErr := e.man.IsEncrypted(path)
			if manErr == nil && !encrypted {
				e.log.Debugf("Skipping %s: not recorded as encrypted", path)
				result.Skipped++
				return
			}
		}
		err = e.DecryptFile(path)
	default:
		err = e.EncryptFile(path)
	}

	switch {
	case err == nil:
		result.Processed++
	case errors.Is(err, ErrAlreadyEncrypted):
		e.log.Debugf("Skipping %s: already encrypted", path)
		result.Skipped++
	default:
		e.log.Errorf("Failed %s: %v", path, err)
		result.Failed++
	}
}
