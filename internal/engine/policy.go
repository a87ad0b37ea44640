package engine

import (
	"io/fs"
	"strings"
)

// Policy decides whether a filesystem path is eligible for
// transformation. It is immutable for a run.
type Policy struct {
	excludePrefixes []string
	excludeSuffixes []string
}

// NewPolicy creates a selection policy from exclusion prefixes and
// filename suffixes. The config layer guarantees the engine's own state
// files (keystore, log, manifest) are among the prefixes.
func NewPolicy(prefixes, suffixes []string) *Policy {
	return &Policy{
		excludePrefixes: prefixes,
		excludeSuffixes: suffixes,
	}
}

// Eligible reports whether a path may be transformed. A path is
// rejected when it starts with an excluded prefix, ends with an
// excluded suffix, or is not a regular file.
//
// In-place replacement preserves filenames, so the suffix check only
// matters for files named that way by the user, never for the engine's
// own output. The manifest, not the filename, is what guards against
// encrypting a file twice.
func (p *Policy) Eligible(path string, mode fs.FileMode) bool {
	for _, prefix := range p.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	for _, suffix := range p.excludeSuffixes {
		if strings.HasSuffix(path, suffix) {
			return false
		}
	}
	return mode.IsRegular()
}
