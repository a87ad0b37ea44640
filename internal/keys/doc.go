// Package keys manages the master secret and per-path key derivation.
//
// The master secret is 32 random bytes held either in a file with
// owner-only permissions (the default) or in the OS keyring. It is
// created once and never rewritten.
//
// Per-file subkeys are derived as HMAC-SHA256 over the SHA-256 digest of
// the file's path, keyed with an scrypt-stretched copy of the master
// secret. Derivation is deterministic: the same keystore, cost
// parameters and path always yield the same subkey, which is what makes
// decryption possible in a later run.
//
// Derived keys are cached per run. The cache is unbounded, which is
// acceptable only because a run walks a bounded filesystem subtree once;
// a long-lived process reusing a Deriver would need eviction.
package keys
