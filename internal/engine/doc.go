// Package engine implements in-place file encryption and decryption.
//
// One file transform is: read the whole file into memory, seal or open
// it under the path's derived key, write the result to a sibling temp
// file and atomically rename it over the original. Decryption verifies
// the authentication tag before any destructive step, so a tampered or
// non-encrypted file is left byte-identical.
//
// The walker visits the configured roots single-threaded, applies the
// selection policy and keeps going past per-file failures: one
// unreadable file costs one error log line, not the run. Peak memory
// scales with the largest file processed; there is no streaming.
package engine
