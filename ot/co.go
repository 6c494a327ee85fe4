//
// co.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//
// Chou Orlandi OT - The Simplest Protocol for Oblivious Transfer.
//  - https://eprint.iacr.org/2015/267.pdf
//
// Derived from this module's own co.go lineage (originally adapted from
// the EMP Toolkit's co.h), restructured to a single-process Sender/
// Receiver API and renamed to the S/T/R/B vocabulary of the governing
// specification. No wire protocol is defined here: both roles run
// in-process and hand each other curve points directly.

// Package ot implements 1-out-of-2 Chou-Orlandi oblivious transfer over
// the NIST P-256 curve. The sender holds two messages; the receiver holds
// a choice bit and learns exactly one message without revealing the bit
// to the sender.
package ot

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
)

// ErrOTAbort is returned for any OT failure: malformed group elements, an
// invalid choice bit, a message longer than its key, a tag mismatch on
// decryption, or a failed entropy source.
var ErrOTAbort = errors.New("ot: aborted")

var curve = elliptic.P256()

// point is a curve point in affine coordinates.
type point struct {
	x, y *big.Int
}

func basePoint(scalar *big.Int) point {
	x, y := curve.ScalarBaseMult(scalar.Bytes())
	return point{x, y}
}

func (p point) mul(scalar *big.Int) point {
	x, y := curve.ScalarMult(p.x, p.y, scalar.Bytes())
	return point{x, y}
}

func (p point) add(o point) point {
	x, y := curve.Add(p.x, p.y, o.x, o.y)
	return point{x, y}
}

func (p point) sub(o point) point {
	// o^-1 in affine coordinates on a short Weierstrass curve is {x, P-y}.
	negY := new(big.Int).Sub(curve.Params().P, o.y)
	return p.add(point{o.x, negY})
}

func hashPoints(pts ...point) []byte {
	h := sha256.New()
	for _, p := range pts {
		h.Write(p.x.Bytes())
		h.Write(p.y.Bytes())
	}
	return h.Sum(nil)
}

func randomScalar() (*big.Int, error) {
	return rand.Int(rand.Reader, curve.Params().N)
}

func xorBytes(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Sender holds the sender's half of a single Chou-Orlandi transfer: the
// secret scalar y, the published point S = y*B, and the retained point
// T = y*S.
type Sender struct {
	y    *big.Int
	s, t point
}

// NewSender samples a fresh sender scalar and publishes S.
func NewSender() (*Sender, error) {
	y, err := randomScalar()
	if err != nil {
		return nil, ErrOTAbort
	}
	s := basePoint(y)
	t := s.mul(y)
	return &Sender{y: y, s: s, t: t}, nil
}

// S returns the sender's published point, to be handed to the receiver's
// Choose.
func (sn *Sender) S() (x, y []byte) {
	return sn.s.x.Bytes(), sn.s.y.Bytes()
}

// DeriveKeys computes (k0, k1) from the receiver's blinded choice R.
func (sn *Sender) DeriveKeys(rx, ry []byte) (k0, k1 [32]byte, err error) {
	r, ok := unmarshalPoint(rx, ry)
	if !ok {
		return k0, k1, ErrOTAbort
	}
	yr := r.mul(sn.y)
	p0 := yr // yR - 0*T
	p1 := yr.sub(sn.t)

	copy(k0[:], hashPoints(sn.s, r, p0))
	copy(k1[:], hashPoints(sn.s, r, p1))
	return k0, k1, nil
}

// Encrypt one-time-pads m0 under k0 and m1 under k1, appending the first
// 32 bytes of each key as an identification tag the receiver uses to pick
// out the ciphertext matching its derived key.
func (sn *Sender) Encrypt(k0, k1 [32]byte, m0, m1 []byte) (e0, e1 []byte, err error) {
	if len(m0) > len(k0) || len(m1) > len(k1) {
		return nil, nil, ErrOTAbort
	}
	return encryptOne(k0, m0), encryptOne(k1, m1), nil
}

func encryptOne(key [32]byte, m []byte) []byte {
	out := make([]byte, len(m)+32)
	copy(out[:len(m)], xorBytes(m, key[:]))
	copy(out[len(m):], key[:])
	return out
}

// Receiver holds the receiver's half of a single transfer.
type Receiver struct {
	x      *big.Int
	choice int
	s, r   point
}

// Choose samples a fresh receiver scalar x and computes the blinded
// choice R = x*B + c*S for choice bit c.
func Choose(sx, sy []byte, choice int) (*Receiver, error) {
	if choice != 0 && choice != 1 {
		return nil, ErrOTAbort
	}
	s, ok := unmarshalPoint(sx, sy)
	if !ok {
		return nil, ErrOTAbort
	}
	x, err := randomScalar()
	if err != nil {
		return nil, ErrOTAbort
	}
	r := basePoint(x)
	if choice == 1 {
		r = r.add(s)
	}
	return &Receiver{x: x, choice: choice, s: s, r: r}, nil
}

// R returns the receiver's blinded choice, to be handed to the sender's
// DeriveKeys.
func (rv *Receiver) R() (x, y []byte) {
	return rv.r.x.Bytes(), rv.r.y.Bytes()
}

// DeriveKey computes k_c = H(S, R, x*S), which by construction equals the
// sender's k_c without revealing c.
func (rv *Receiver) DeriveKey() [32]byte {
	var k [32]byte
	xs := rv.s.mul(rv.x)
	copy(k[:], hashPoints(rv.s, rv.r, xs))
	return k
}

// Decrypt verifies the trailing tag of the ciphertext matching the
// receiver's choice against k_c and, if it matches, recovers the
// plaintext. It returns ErrOTAbort on a tag mismatch rather than
// panicking.
func (rv *Receiver) Decrypt(kc [32]byte, e0, e1 []byte) ([]byte, error) {
	var chosen []byte
	if rv.choice == 0 {
		chosen = e0
	} else {
		chosen = e1
	}
	if len(chosen) < 32 {
		return nil, ErrOTAbort
	}
	body, tag := chosen[:len(chosen)-32], chosen[len(chosen)-32:]
	if !constantTimeEqual(tag, kc[:]) {
		return nil, ErrOTAbort
	}
	return xorBytes(body, kc[:]), nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

func unmarshalPoint(x, y []byte) (point, bool) {
	px := new(big.Int).SetBytes(x)
	py := new(big.Int).SetBytes(y)
	if !curve.IsOnCurve(px, py) {
		return point{}, false
	}
	return point{px, py}, true
}
