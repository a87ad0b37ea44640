// Package manifest provides the BBolt database tracking lockdir state.
//
// Database structure uses three buckets:
//   - meta: format version and creation time
//   - files: path -> entry for every file currently encrypted
//   - runs: run ID -> summary of each lock/unlock run
//
// The manifest is advisory. Encryption and decryption are correct
// without it (a decrypt of a plaintext file fails verification and
// leaves the file untouched), but it lets the walker skip
// already-encrypted files and lets the status command report state
// without touching any file contents.
package manifest
