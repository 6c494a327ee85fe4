//
// co_test.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"bytes"
	"testing"
)

func TestTransferChoiceZero(t *testing.T) {
	m0 := bytes.Repeat([]byte{0xaa}, 32)
	m1 := bytes.Repeat([]byte{0xbb}, 32)

	got, err := Transfer(m0, m1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, m0) {
		t.Fatalf("choice 0 got %x, want %x", got, m0)
	}
}

func TestTransferChoiceOne(t *testing.T) {
	m0 := bytes.Repeat([]byte{0xaa}, 32)
	m1 := bytes.Repeat([]byte{0xbb}, 32)

	got, err := Transfer(m0, m1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, m1) {
		t.Fatalf("choice 1 got %x, want %x", got, m1)
	}
}

func TestTransferRejectsInvalidChoice(t *testing.T) {
	sender, err := NewSender()
	if err != nil {
		t.Fatal(err)
	}
	sx, sy := sender.S()
	if _, err := Choose(sx, sy, 2); err == nil {
		t.Fatalf("expected error for out-of-range choice")
	}
}

// TestReceiverRecoversExactlyOneMessage runs the protocol step by step for
// each choice bit, checks that the receiver recovers the chosen message,
// and checks that its derived key does not match the tag of the unchosen
// ciphertext.
func TestReceiverRecoversExactlyOneMessage(t *testing.T) {
	m0 := []byte("message for choice zero, 32B!!!!")
	m1 := []byte("message for choice one., 32B!!!!")

	for choice := 0; choice <= 1; choice++ {
		sender, err := NewSender()
		if err != nil {
			t.Fatal(err)
		}
		sx, sy := sender.S()
		receiver, err := Choose(sx, sy, choice)
		if err != nil {
			t.Fatal(err)
		}
		rx, ry := receiver.R()

		k0, k1, err := sender.DeriveKeys(rx, ry)
		if err != nil {
			t.Fatal(err)
		}
		e0, e1, err := sender.Encrypt(k0, k1, m0, m1)
		if err != nil {
			t.Fatal(err)
		}

		kc := receiver.DeriveKey()
		got, err := receiver.Decrypt(kc, e0, e1)
		if err != nil {
			t.Fatal(err)
		}

		want := m0
		if choice == 1 {
			want = m1
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("choice %d: got %q, want %q", choice, got, want)
		}

		// The key derived for the message the receiver did NOT choose
		// must not verify against the tag of that ciphertext.
		otherCipher := e1
		if choice == 1 {
			otherCipher = e0
		}
		otherTag := otherCipher[len(otherCipher)-32:]
		if constantTimeEqual(kc[:], otherTag) {
			t.Fatalf("derived key matches the tag of the unchosen message")
		}
	}
}

func TestEncryptRejectsOversizedMessage(t *testing.T) {
	sender, err := NewSender()
	if err != nil {
		t.Fatal(err)
	}
	var k0, k1 [32]byte
	oversized := bytes.Repeat([]byte{0x01}, 64)
	if _, _, err := sender.Encrypt(k0, k1, oversized, oversized); err == nil {
		t.Fatalf("expected error for oversized message")
	}
}
