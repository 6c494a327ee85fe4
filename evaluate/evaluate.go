//
// evaluate.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

// Package evaluate implements the Yao evaluator: given one label per
// input wire and the garbler's garbled gates, it walks the circuit in
// topological order and decrypts exactly one table row per gate that has
// a table (every gate except XOR and CONST_0/CONST_1), never learning Δ, never learning both labels of any wire, and never
// seeing a party's input as a plain bit.
package evaluate

import (
	"errors"
	"fmt"

	"github.com/lermchair/mcgarnagle/garble"
	"github.com/lermchair/mcgarnagle/gcrypto"
	"github.com/lermchair/mcgarnagle/netlist"
)

// ErrLabelMismatch indicates a supplied input label is neither of the two
// known keys for its wire — a sign of protocol corruption upstream.
var ErrLabelMismatch = errors.New("evaluate: label mismatch")

// ErrCorruptGarbling indicates no table row decrypted successfully for a
// gate; the garbled material is inconsistent with the supplied labels.
var ErrCorruptGarbling = errors.New("evaluate: corrupt garbling")

// Evaluator holds the circuit and garbled material needed to evaluate a
// run given one label per input wire.
type Evaluator struct {
	circuit    *netlist.Circuit
	outputs    []netlist.WireID
	wireToKeys map[netlist.WireID]garble.WireKeyPair
	gates      map[netlist.WireID]garble.GarbledGate
}

// New creates an Evaluator for the given circuit, requested output wires,
// and the garbler's wire-to-keys map and garbled gates.
func New(circuit *netlist.Circuit, outputs []netlist.WireID,
	wireToKeys map[netlist.WireID]garble.WireKeyPair,
	gates map[netlist.WireID]garble.GarbledGate) *Evaluator {
	return &Evaluator{
		circuit:    circuit,
		outputs:    outputs,
		wireToKeys: wireToKeys,
		gates:      gates,
	}
}

// Run evaluates the circuit given one label per input wire (from however
// many parties contributed labels) and returns the bit value of every
// requested output wire.
func (e *Evaluator) Run(inputLabels map[netlist.WireID]gcrypto.Label) (map[netlist.WireID]int, error) {
	computed := make(map[netlist.WireID]gcrypto.Label, len(e.wireToKeys))

	for w, label := range inputLabels {
		kp, ok := e.wireToKeys[w]
		if !ok {
			return nil, fmt.Errorf("%w: wire %q has no known key pair", ErrLabelMismatch, w)
		}
		if label != kp.Label0 && label != kp.Label1 {
			return nil, fmt.Errorf("%w: wire %q", ErrLabelMismatch, w)
		}
		computed[w] = label
	}

	order, err := netlist.TopologicalSort(e.circuit)
	if err != nil {
		return nil, err
	}

	wireToBit := make(map[netlist.WireID]int, len(order))

	for _, w := range order {
		gg, ok := e.gates[w]
		if !ok {
			continue
		}

		inLabels := make([]gcrypto.Label, len(gg.InputWireIDs))
		for i, in := range gg.InputWireIDs {
			l, ok := computed[in]
			if !ok {
				return nil, fmt.Errorf("%w: input wire %q not yet computed", ErrCorruptGarbling, in)
			}
			inLabels[i] = l
		}

		var result gcrypto.Label
		switch gg.Kind {
		case netlist.XOR:
			result = inLabels[0].Xor(inLabels[1])
		case netlist.CONST0:
			result = gg.OutputLabels.Label0
		case netlist.CONST1:
			result = gg.OutputLabels.Label1
		default:
			result, err = decryptTable(gg, inLabels)
			if err != nil {
				return nil, err
			}
		}

		bit, err := labelBit(gg.OutputLabels, result)
		if err != nil {
			return nil, err
		}

		computed[w] = result
		wireToBit[w] = bit
	}

	out := make(map[netlist.WireID]int, len(e.outputs))
	for _, w := range e.outputs {
		bit, ok := wireToBit[w]
		if !ok {
			// The output wire may itself be a plain input wire
			// with no garbled gate of its own (e.g. a wired-through output);
			// resolve it from the computed label directly.
			label, ok := computed[w]
			if !ok {
				return nil, fmt.Errorf("%w: output wire %q was never computed", ErrCorruptGarbling, w)
			}
			kp, ok := e.wireToKeys[w]
			if !ok {
				return nil, fmt.Errorf("%w: output wire %q has no known key pair", ErrLabelMismatch, w)
			}
			bit, err = labelBit(kp, label)
			if err != nil {
				return nil, err
			}
		}
		out[w] = bit
	}
	return out, nil
}

// decryptTable tries each table row in order and accepts the first that
// decrypts successfully under the row key derived from inLabels. The
// authentication tag is the sole oracle for "this row is the one."
func decryptTable(gg garble.GarbledGate, inLabels []gcrypto.Label) (gcrypto.Label, error) {
	parts := make([][]byte, len(inLabels))
	for i, l := range inLabels {
		lc := l
		parts[i] = lc[:]
	}
	rowKey, err := gcrypto.GenerateEncryptionKey(parts...)
	if err != nil {
		return gcrypto.Label{}, err
	}

	for _, row := range gg.Table {
		plaintext, err := gcrypto.Decrypt(rowKey, row)
		if err != nil {
			continue
		}
		var label gcrypto.Label
		if len(plaintext) != len(label) {
			continue
		}
		copy(label[:], plaintext)
		return label, nil
	}
	return gcrypto.Label{}, fmt.Errorf("%w: no table row decrypted", ErrCorruptGarbling)
}

// labelBit determines whether result equals Label0 (bit 0) or Label1 (bit
// 1) of a gate's output key pair.
func labelBit(kp garble.WireKeyPair, result gcrypto.Label) (int, error) {
	if result == kp.Label0 {
		return 0, nil
	}
	if result == kp.Label1 {
		return 1, nil
	}
	return 0, fmt.Errorf("%w: decrypted label matches neither output key", ErrCorruptGarbling)
}
