//
// gcrypto.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

// Package gcrypto implements the symmetric crypto primitives the garbler
// and evaluator share: label generation under a global offset, a
// content-derived row key, and authenticated encryption of garbled table
// rows.
package gcrypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"
)

// Size is the length in bytes of a label, a Δ offset, and a row key.
const Size = 32

// nonceSize is secretbox's fixed nonce length.
const nonceSize = 24

// ErrEmptyParts is returned by GenerateEncryptionKey when called with no
// input parts; there is nothing to derive a key from.
var ErrEmptyParts = errors.New("gcrypto: at least one part is required")

// ErrDecryptFailed is returned by Decrypt when the authentication tag does
// not verify, i.e. the row was encrypted under a different key or has been
// tampered with.
var ErrDecryptFailed = errors.New("gcrypto: decryption failed")

// Label is a fixed-width wire label. Two labels form a WireKeyPair; under
// Free-XOR, label1 = label0 XOR delta for a garbling pass's global delta.
//
// Labels are carried as raw bytes end to end (see DESIGN.md's Open
// Question resolution); Text/ParseText exist only for the URL-safe
// base64 text form required at debug/print boundaries.
type Label [Size]byte

// NewLabel samples a fresh random label from the OS entropy source.
func NewLabel() (Label, error) {
	var l Label
	if _, err := io.ReadFull(rand.Reader, l[:]); err != nil {
		return Label{}, err
	}
	return l, nil
}

// Text encodes the label in URL-safe base64, matching the source's
// text-carried convention at its module boundary.
func (l Label) Text() string {
	return base64.URLEncoding.EncodeToString(l[:])
}

// ParseText decodes a URL-safe base64-encoded label.
func ParseText(s string) (Label, error) {
	var l Label
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return Label{}, err
	}
	if len(b) != Size {
		return Label{}, errors.New("gcrypto: invalid label length")
	}
	copy(l[:], b)
	return l, nil
}

// Xor returns the byte-wise XOR of l and o.
func (l Label) Xor(o Label) Label {
	var out Label
	for i := range out {
		out[i] = l[i] ^ o[i]
	}
	return out
}

// Equal reports whether l and o carry the same bytes.
func (l Label) Equal(o Label) bool {
	return l == o
}

// BytesXor XORs two equal-length byte buffers and returns a freshly
// allocated result. The caller must supply buffers of identical length.
func BytesXor(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// GenerateKeys samples a fresh label L0 and returns (L0, L0 XOR delta),
// satisfying the Free-XOR Δ-offset invariant for a new wire key pair.
func GenerateKeys(delta Label) (Label, Label, error) {
	l0, err := NewLabel()
	if err != nil {
		return Label{}, Label{}, err
	}
	return l0, l0.Xor(delta), nil
}

// GenerateEncryptionKey derives a row key by keyed hash: the first part is
// the MAC key, subsequent parts are absorbed as message input in order.
// At least one part must be supplied.
func GenerateEncryptionKey(parts ...[]byte) ([]byte, error) {
	if len(parts) == 0 {
		return nil, ErrEmptyParts
	}
	h, err := blake2b.New256(parts[0])
	if err != nil {
		return nil, err
	}
	for _, p := range parts[1:] {
		h.Write(p)
	}
	return h.Sum(nil), nil
}

// Encrypt authenticates and encrypts plaintext under key using a fresh
// random nonce prepended to the ciphertext envelope.
func Encrypt(key []byte, plaintext []byte) ([]byte, error) {
	if len(key) != Size {
		return nil, errors.New("gcrypto: invalid key length")
	}
	var k [Size]byte
	copy(k[:], key)

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &k), nil
}

// Decrypt verifies and decrypts a ciphertext envelope produced by Encrypt.
// It fails cleanly (returns ErrDecryptFailed) on a wrong key or a
// tampered ciphertext; it never panics.
func Decrypt(key []byte, ciphertext []byte) ([]byte, error) {
	if len(key) != Size {
		return nil, errors.New("gcrypto: invalid key length")
	}
	if len(ciphertext) < nonceSize {
		return nil, ErrDecryptFailed
	}
	var k [Size]byte
	copy(k[:], key)

	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, &k)
	if !ok {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}
