package crypto

import (
	"crypto/cipher"
	"fmt"
)

// Container is the decoded form of an encrypted file's on-disk bytes.
// The layout is fixed:
//
//	[12-byte nonce][16-byte tag][ciphertext, remaining bytes]
//
// so an encrypted file is always exactly HeaderSize bytes longer than
// its plaintext.
type Container struct {
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
}

// SplitContainer decodes raw container bytes into nonce, tag and
// ciphertext. Anything shorter than the fixed header is malformed.
func SplitContainer(data []byte) (*Container, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedContainer, len(data), HeaderSize)
	}
	return &Container{
		Nonce:      data[:NonceSize],
		Tag:        data[NonceSize:HeaderSize],
		Ciphertext: data[HeaderSize:],
	}, nil
}

// JoinContainer encodes nonce, tag and ciphertext into the on-disk layout.
func JoinContainer(nonce, tag, ciphertext []byte) []byte {
	out := make([]byte, 0, len(nonce)+len(tag)+len(ciphertext))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return out
}

// Seal encrypts plaintext with a fresh random nonce and returns the
// encoded container. Go's AEAD implementations append the tag after the
// ciphertext, so the tag is moved in front to match the container layout.
func Seal(aead cipher.AEAD, plaintext []byte) ([]byte, error) {
	nonce, err := GenerateNonce()
	if err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - TagSize
	return JoinContainer(nonce, sealed[split:], sealed[:split]), nil
}

// Open decodes a container and decrypts-and-verifies its ciphertext.
// Verification failure returns ErrAuthFailed and no plaintext.
func Open(aead cipher.AEAD, data []byte) ([]byte, error) {
	c, err := SplitContainer(data)
	if err != nil {
		return nil, err
	}

	// Reassemble ciphertext||tag, the order Open expects.
	sealed := make([]byte, 0, len(c.Ciphertext)+TagSize)
	sealed = append(sealed, c.Ciphertext...)
	sealed = append(sealed, c.Tag...)

	plaintext, err := aead.Open(nil, c.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}
