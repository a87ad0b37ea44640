// Package crypto provides the AEAD container codec for lockdir.
//
// Encrypted files use a fixed framing:
//   - 12-byte random nonce (fresh per encryption)
//   - 16-byte authentication tag
//   - ciphertext of plaintext length
//
// Two AEAD modes are supported and interchangeable at the framing level:
//   - AES-256-GCM
//   - ChaCha20-Poly1305
//
// A container shorter than the 28-byte header is rejected as malformed
// before any decryption is attempted. Tag verification failure returns
// ErrAuthFailed without revealing plaintext.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
package crypto
