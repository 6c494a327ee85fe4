//
// transfer.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

package ot

// Transfer runs one complete in-process Chou-Orlandi transfer: the sender
// offers (m0, m1), the receiver supplies its choice bit, and the function
// returns the message the receiver is entitled to learn. This is the
// single-process convenience wrapper cmd/mcgarnagle and the root
// integration test use to move Bob's input labels without a network round
// trip; the Sender/Receiver types in co.go remain usable standalone by a
// transport layer.
func Transfer(m0, m1 []byte, choice int) ([]byte, error) {
	sender, err := NewSender()
	if err != nil {
		return nil, err
	}
	sx, sy := sender.S()

	receiver, err := Choose(sx, sy, choice)
	if err != nil {
		return nil, err
	}
	rx, ry := receiver.R()

	k0, k1, err := sender.DeriveKeys(rx, ry)
	if err != nil {
		return nil, err
	}
	e0, e1, err := sender.Encrypt(k0, k1, m0, m1)
	if err != nil {
		return nil, err
	}

	kc := receiver.DeriveKey()
	return receiver.Decrypt(kc, e0, e1)
}
