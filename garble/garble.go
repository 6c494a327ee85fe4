//
// garble.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

// Package garble implements the Yao garbler: it assigns Δ-offset label
// pairs to every wire and emits, for each gate, a shuffled ciphertext
// table the evaluator can later decrypt exactly one row of. XOR gates
// use Free-XOR and CONST_0/CONST_1 gates carry a fixed public bit;
// neither needs a table.
package garble

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/lermchair/mcgarnagle/gcrypto"
	"github.com/lermchair/mcgarnagle/netlist"
)

// WireKeyPair is a wire's two labels. Under Free-XOR, Label1 = Label0 XOR
// Δ for the garbling pass's global delta.
type WireKeyPair struct {
	Label0 gcrypto.Label
	Label1 gcrypto.Label
}

// Of returns the label corresponding to bit (0 or 1).
func (p WireKeyPair) Of(bit int) gcrypto.Label {
	if bit == 0 {
		return p.Label0
	}
	return p.Label1
}

// GarbledGate is the garbler's output for one gate: its kind, the input
// wires it reads, its two output labels, and (for every gate except XOR
// and CONST_0/CONST_1) a shuffled ciphertext table.
type GarbledGate struct {
	Kind         netlist.GateKind
	InputWireIDs []netlist.WireID
	OutputLabels WireKeyPair
	Table        [][]byte
}

// Garbler builds garbled gates for a circuit under a single garbling
// pass's global Δ.
type Garbler struct {
	delta        gcrypto.Label
	circuit      *netlist.Circuit
	wireToKeys   map[netlist.WireID]WireKeyPair
	garbledGates map[netlist.WireID]GarbledGate
}

// New creates a Garbler for circuit with a freshly sampled Δ. Every wire
// named in ins or outs is pre-allocated a key pair, matching the source's
// two-pass construction (pre-allocate I/O wires, then walk the circuit).
func New(circuit *netlist.Circuit, ins, outs map[string][]netlist.WireID) (*Garbler, error) {
	delta, err := gcrypto.NewLabel()
	if err != nil {
		return nil, err
	}
	return newWithDelta(delta, circuit, ins, outs)
}

func newWithDelta(delta gcrypto.Label, circuit *netlist.Circuit, ins, outs map[string][]netlist.WireID) (*Garbler, error) {
	g := &Garbler{
		delta:        delta,
		circuit:      circuit,
		wireToKeys:   make(map[netlist.WireID]WireKeyPair),
		garbledGates: make(map[netlist.WireID]GarbledGate),
	}
	for _, wires := range ins {
		for _, w := range wires {
			if err := g.allocate(w); err != nil {
				return nil, err
			}
		}
	}
	for _, wires := range outs {
		for _, w := range wires {
			if err := g.allocate(w); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func (g *Garbler) allocate(w netlist.WireID) error {
	if _, ok := g.wireToKeys[w]; ok {
		return nil
	}
	l0, l1, err := gcrypto.GenerateKeys(g.delta)
	if err != nil {
		return err
	}
	g.wireToKeys[w] = WireKeyPair{l0, l1}
	return nil
}

// Delta returns the garbling pass's global Δ. It must never leave the
// garbler in a real protocol run; tests that assert the Δ-offset
// invariant use it directly.
func (g *Garbler) Delta() gcrypto.Label {
	return g.delta
}

// Build walks the circuit in topological order and garbles every
// non-INPUT gate, returning the final wire-to-keys map and the garbled
// gates. Together with the circuit, this is the only state the evaluator
// needs.
func (g *Garbler) Build() (map[netlist.WireID]WireKeyPair, map[netlist.WireID]GarbledGate, error) {
	order, err := netlist.TopologicalSort(g.circuit)
	if err != nil {
		return nil, nil, err
	}

	for _, w := range order {
		gate, ok := g.circuit.Gates[w]
		if !ok {
			continue
		}
		if gate.Kind == netlist.INPUT {
			if err := g.allocate(w); err != nil {
				return nil, nil, err
			}
			continue
		}

		inKeys := make([]WireKeyPair, len(gate.Inputs))
		for i, in := range gate.Inputs {
			kp, ok := g.wireToKeys[in]
			if !ok {
				return nil, nil, fmt.Errorf("%w: %q", netlist.ErrUnknownWire, in)
			}
			inKeys[i] = kp
		}

		preallocated, hasOut := g.wireToKeys[w]
		var outPtr *WireKeyPair
		if hasOut {
			outPtr = &preallocated
		}

		gg, err := g.garbleGate(gate.Kind, inKeys, outPtr, gate.Inputs)
		if err != nil {
			return nil, nil, err
		}

		g.wireToKeys[w] = gg.OutputLabels
		g.garbledGates[w] = gg
	}

	return g.wireToKeys, g.garbledGates, nil
}

// switchGate implements the standard boolean truth table for every gate
// kind: unary NOT/PASSTHROUGH read only a, and CONST_0/CONST_1 ignore
// both inputs.
func switchGate(kind netlist.GateKind, a, b bool) bool {
	switch kind {
	case netlist.AND:
		return a && b
	case netlist.OR:
		return a || b
	case netlist.NOR:
		return !(a || b)
	case netlist.ORNOT:
		return a || !b
	case netlist.NAND:
		return !(a && b)
	case netlist.ANDNOT:
		return a && !b
	case netlist.XNOR:
		return a == b
	case netlist.XOR:
		return a != b
	case netlist.NOT:
		return !a
	case netlist.PASSTHROUGH:
		return a
	case netlist.CONST0:
		return false
	case netlist.CONST1:
		return true
	default:
		return a
	}
}

// garbleGate garbles a single gate. XOR uses Free-XOR and CONST_0/CONST_1
// publish their fixed output label directly; neither produces a table.
// Remaining unary gates (NOT, PASSTHROUGH) produce a 2-row table; binary
// non-XOR gates produce a shuffled 4-row table.
func (g *Garbler) garbleGate(kind netlist.GateKind, inKeys []WireKeyPair, out *WireKeyPair, inputNames []netlist.WireID) (GarbledGate, error) {
	if len(inKeys) != kind.Arity() {
		return GarbledGate{}, fmt.Errorf("%w: gate %s expects %d inputs, got %d",
			netlist.ErrArityMismatch, kind, kind.Arity(), len(inKeys))
	}

	if kind == netlist.XOR {
		y0 := inKeys[0].Label0.Xor(inKeys[1].Label0)
		y1 := y0.Xor(g.delta)
		return GarbledGate{
			Kind:         kind,
			InputWireIDs: inputNames,
			OutputLabels: WireKeyPair{y0, y1},
		}, nil
	}

	var outputLabels WireKeyPair
	if out != nil {
		outputLabels = *out
	} else {
		l0, l1, err := gcrypto.GenerateKeys(g.delta)
		if err != nil {
			return GarbledGate{}, err
		}
		outputLabels = WireKeyPair{l0, l1}
	}

	// CONST_0/CONST_1 carry no secret — their bit is public by
	// construction — so like XOR they need no garbled table; the
	// evaluator simply reads off the constant's known label.
	if kind == netlist.CONST0 || kind == netlist.CONST1 {
		return GarbledGate{
			Kind:         kind,
			InputWireIDs: inputNames,
			OutputLabels: outputLabels,
		}, nil
	}

	var table [][]byte
	if kind.Arity() == 1 {
		for _, a := range []int{0, 1} {
			aKey := inKeys[0].Of(a)
			v := switchGate(kind, a == 1, false)
			row, err := encryptRow(outputLabels.Of(boolToInt(v)), aKey[:])
			if err != nil {
				return GarbledGate{}, err
			}
			table = append(table, row)
		}
	} else {
		for _, a := range []int{0, 1} {
			aKey := inKeys[0].Of(a)
			for _, b := range []int{0, 1} {
				bKey := inKeys[1].Of(b)
				v := switchGate(kind, a == 1, b == 1)
				row, err := encryptRow(outputLabels.Of(boolToInt(v)), aKey[:], bKey[:])
				if err != nil {
					return GarbledGate{}, err
				}
				table = append(table, row)
			}
		}
	}

	shuffle(table)

	return GarbledGate{
		Kind:         kind,
		InputWireIDs: inputNames,
		OutputLabels: outputLabels,
		Table:        table,
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encryptRow(outLabel gcrypto.Label, keyParts ...[]byte) ([]byte, error) {
	rowKey, err := gcrypto.GenerateEncryptionKey(keyParts...)
	if err != nil {
		return nil, err
	}
	plaintext := outLabel[:]
	return gcrypto.Encrypt(rowKey, plaintext)
}

// shuffle permutes table uniformly at random so row order leaks no
// information about which row corresponds to which input combination.
func shuffle(table [][]byte) {
	for i := len(table) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			// crypto/rand failures are not recoverable in this context;
			// the garbler has no fallback entropy source.
			panic(fmt.Sprintf("garble: entropy source failed: %v", err))
		}
		jInt := int(j.Int64())
		table[i], table[jInt] = table[jInt], table[i]
	}
}
