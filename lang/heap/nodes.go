package heap

import "github.com/metaeducation/cellar/lang/node"

// A Node is a pool-allocated heap entity the collector can own: a Stub
// or a Pairing. Its first byte follows the lang/node discriminator
// convention, so the managed/root/marked bookkeeping is uniform.
type Node interface {
	// nodeBase returns the byte holding the node's discriminator flags.
	nodeBase() *byte
}

// StubRef converts a possibly-nil stub pointer to a Node without ever
// producing an interface around a nil pointer.
func StubRef(s *Stub) Node {
	if s == nil {
		return nil
	}
	return s
}

// PairingRef is the pairing counterpart of StubRef.
func PairingRef(p *Pairing) Node {
	if p == nil {
		return nil
	}
	return p
}

// IsManaged reports whether n's lifetime is governed by the collector.
func IsManaged(n Node) bool { return *n.nodeBase()&node.FlagManaged != 0 }

// Manage promotes n to managed status. A fresh node starts unmanaged and
// owned by the allocating routine; it must be promoted once reachable
// from a managed cell, or freed manually.
func Manage(n Node) { *n.nodeBase() |= node.FlagManaged }

// IsRoot reports whether n is pinned against collection.
func IsRoot(n Node) bool { return *n.nodeBase()&node.FlagRoot != 0 }

// SetRoot pins or unpins n against collection.
func SetRoot(n Node, root bool) {
	if root {
		*n.nodeBase() |= node.FlagRoot
	} else {
		*n.nodeBase() &^= node.FlagRoot
	}
}

func isMarked(n Node) bool { return *n.nodeBase()&node.FlagMarked != 0 }
func setMark(n Node) { *n.nodeBase() |= node.FlagMarked }
func clearMark(n Node) { *n.nodeBase() &^= node.FlagMarked }
func isFreeUnit(n Node) bool { return node.IsFree(*n.nodeBase()) }

// A Slot is one generic pointer-width-ish location: either raw scalar
// bits or a node reference. Whether the reference is visited by the
// collector is decided by the owning cell or stub's track flag, never by
// the slot itself. A tagged pair of fields replaces the raw union of the
// ancestral layout; see DESIGN.md.
type Slot struct {
	bits uint64
	ref  Node
}

// Bits returns the slot's scalar payload.
func (s *Slot) Bits() uint64 { return s.bits }

// SetBits stores scalar bits, dropping any reference.
func (s *Slot) SetBits(b uint64) {
	s.bits = b
	s.ref = nil
}

// Ref returns the slot's node reference, or nil.
func (s *Slot) Ref() Node { return s.ref }

// Stub returns the slot's reference as a stub, or nil if the slot holds
// no reference or a pairing.
func (s *Slot) Stub() *Stub {
	st, _ := s.ref.(*Stub)
	return st
}

// Pairing returns the slot's reference as a pairing, or nil.
func (s *Slot) Pairing() *Pairing {
	p, _ := s.ref.(*Pairing)
	return p
}

// SetRef stores a node reference, dropping any scalar bits.
func (s *Slot) SetRef(n Node) {
	s.bits = 0
	s.ref = n
}

func (s *Slot) clear() {
	s.bits = 0
	s.ref = nil
}
