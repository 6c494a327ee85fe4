//
// pool.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

// Package optimize rewrites a netlist toward cheaper, XOR-dominated
// gates. Each output's cone of the circuit is lifted to an algebraic
// expression over a fixed boolean signature, shared sub-expressions are
// hash-consed into a single DAG (not re-materialized as independent
// trees — see DESIGN.md), rewritten under a fixed identity set, and
// linearized back into a netlist with content-addressed wire reuse.
//
// There is no e-graph library in this module's dependency surface (none
// of this module's examples carry one, and the original implementation's
// "egg" crate has no Go port); per spec.md §9 this falls back to a
// recursive, hash-consed rewrite engine applied during DAG construction.
// Correctness does not depend on this choice — only how much the
// optimizer manages to shrink the circuit.
package optimize

import (
	"fmt"
	"sync"

	"github.com/lermchair/mcgarnagle/netlist"
)

// kind enumerates the optimizer's fixed boolean signature.
type kind int

const (
	kWire kind = iota
	kConst0
	kConst1
	kNot
	kAnd
	kOr
	kXor
	kNand
	kNor
	kXnor
	kAndNot
	kOrNot
)

// node is one DAG entry. a and b are child indices into the pool (-1 when
// unused); wire is populated only for kWire leaves.
type node struct {
	kind kind
	wire netlist.WireID
	a, b int
}

// pool is the shared, hash-consed expression DAG. A single pool is used
// across every output's cone so that identical sub-expressions — within
// one output or across several — are represented exactly once.
//
// Budget bounds how large the DAG may grow before construction stops
// attempting rewrites and falls back to plain (unsimplified but still
// correct) node insertion — the "resource ceiling" spec.md §4.6 allows
// the saturator to hit, after which extraction proceeds from the best
// result found so far.
type pool struct {
	mu      sync.Mutex
	nodes   []node
	index   map[string]int
	budget  int // max nodes before rewrites stop firing; 0 = unbounded
}

func newPool(budget int) *pool {
	return &pool{
		index:  make(map[string]int),
		budget: budget,
	}
}

func (p *pool) get(id int) node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nodes[id]
}

func (p *pool) key(n node) string {
	return fmt.Sprintf("%d|%s|%d|%d", n.kind, n.wire, n.a, n.b)
}

// intern returns the existing id for an identical node, or inserts and
// returns a fresh one. Safe for concurrent use.
func (p *pool) intern(n node) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := p.key(n)
	if id, ok := p.index[k]; ok {
		return id
	}
	id := len(p.nodes)
	p.nodes = append(p.nodes, n)
	p.index[k] = id
	return id
}

func (p *pool) overBudget() bool {
	if p.budget <= 0 {
		return false
	}
	p.mu.Lock()
	n := len(p.nodes)
	p.mu.Unlock()
	return n > p.budget
}

func (p *pool) wire(w netlist.WireID) int {
	return p.intern(node{kind: kWire, wire: w, a: -1, b: -1})
}

func (p *pool) const0() int { return p.intern(node{kind: kConst0, a: -1, b: -1}) }
func (p *pool) const1() int { return p.intern(node{kind: kConst1, a: -1, b: -1}) }

func isConst0(n node) bool { return n.kind == kConst0 }
func isConst1(n node) bool { return n.kind == kConst1 }

// samePair reports whether {n1.a,n1.b} and {n2.a,n2.b} are the same
// unordered pair of child ids.
func samePair(n1, n2 node) bool {
	return (n1.a == n2.a && n1.b == n2.b) || (n1.a == n2.b && n1.b == n2.a)
}

// build1 constructs (or reuses) a unary node, applying local rewrites
// first unless the pool is over its rewrite budget.
func (p *pool) build1(k kind, a int) int {
	if !p.overBudget() {
		if id, ok := p.simplify1(k, a); ok {
			return id
		}
	}
	return p.intern(node{kind: k, a: a, b: -1})
}

// build2 constructs (or reuses) a binary node, applying local rewrites
// first unless the pool is over its rewrite budget.
func (p *pool) build2(k kind, a, b int) int {
	if !p.overBudget() {
		if id, ok := p.simplify2(k, a, b); ok {
			return id
		}
	}
	return p.intern(node{kind: k, a: a, b: b})
}

// size returns the current DAG size, used for Stats reporting.
func (p *pool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nodes)
}
