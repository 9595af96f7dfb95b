package heap

import (
	"fmt"

	"github.com/metaeducation/cellar/lang/node"
)

// Stub flag bits (the two flag bytes of the leader word).
const (
	stubDynamic uint16 = 1 << iota // dynamic content representation active
	stubFixedSize
	stubFrozen
	stubShared // keylist shared copy-on-write across varlists
	stubCanon  // symbol is the canonical spelling of its case ring
)

// embedBytesCap is the physical capacity of the embedded byte buffer.
// Byte-width stubs created at or below the configured embed threshold
// store their content inline and pay no dynamic allocation.
const embedBytesCap = 24

// maxStubCap is the addressable element capacity of a dynamic stub.
// Allocation beyond it is fatal.
const maxStubCap = 1 << 31

// A Stub is the fixed-size heap descriptor behind every growable or
// aggregate object. It shares the node discriminator family with Cell
// but has the cell bit clear. Besides the leader word it carries a Link
// slot and a Misc slot (the two generic collector-trackable references),
// an Info word and a Bonus slot (auxiliary), and one of two content
// representations: a dynamic allocation with used/bias accounting, or a
// small embedded payload (one cell, or a short byte buffer).
//
// The ancestral layout overlaid the two content modes in a union; here
// they are discriminated fields selected by the stubDynamic flag, per
// the redesign note in DESIGN.md. Exactly one is active at a time.
type Stub struct {
	base   byte
	flavor Flavor
	flags  uint16

	link  Slot
	misc  Slot
	info  uint64
	bonus Slot

	used uint32
	bias uint32

	// dynamic content (stubDynamic set): exactly one of cells/bytes is
	// non-nil, per the flavor's element width
	cells []Cell
	bytes []byte

	// embedded content (stubDynamic clear)
	one   [1]Cell
	small [embedBytesCap]byte

	seq uint32  // pool allocation sequence, stable identity for hashing
	pol *policy // owning pool's tuning knobs, set at allocation
}

func (s *Stub) nodeBase() *byte { return &s.base }

// Flavor returns the stub's aggregate kind.
func (s *Stub) Flavor() Flavor { return s.flavor }

// Seq returns the stub's pool-assigned allocation identity.
func (s *Stub) Seq() uint32 { return s.seq }

// IsDynamic reports whether the dynamic content representation is
// active. Callers normally never need to know; every accessor branches
// internally on this flag.
func (s *Stub) IsDynamic() bool { return s.flags&stubDynamic != 0 }

// IsFixedSize reports whether growth operations are forbidden.
func (s *Stub) IsFixedSize() bool { return s.flags&stubFixedSize != 0 }

// SetFixedSize forbids any further growth or shrink operations.
func (s *Stub) SetFixedSize() { s.flags |= stubFixedSize }

// IsFrozen reports whether all mutation is forbidden.
func (s *Stub) IsFrozen() bool { return s.flags&stubFrozen != 0 }

// Freeze permanently forbids mutation of the stub's content.
func (s *Stub) Freeze() { s.flags |= stubFrozen }

// IsShared reports the copy-on-write shared flag.
func (s *Stub) IsShared() bool { return s.flags&stubShared != 0 }

// SetShared sets or clears the copy-on-write shared flag.
func (s *Stub) SetShared(shared bool) {
	if shared {
		s.flags |= stubShared
	} else {
		s.flags &^= stubShared
	}
}

// IsCanon reports whether a symbol stub is its case ring's canonical
// spelling.
func (s *Stub) IsCanon() bool { return s.flags&stubCanon != 0 }

// SetCanon sets or clears the canonical flag. The interning layer moves
// it when the canonical member of a ring is reclaimed.
func (s *Stub) SetCanon(canon bool) {
	if canon {
		s.flags |= stubCanon
	} else {
		s.flags &^= stubCanon
	}
}

// Link returns the stub's Link slot.
func (s *Stub) Link() *Slot { return &s.link }

// Misc returns the stub's Misc slot.
func (s *Stub) Misc() *Slot { return &s.misc }

// Bonus returns the stub's Bonus slot (never collector-visited).
func (s *Stub) Bonus() *Slot { return &s.bonus }

// Info returns the auxiliary info word.
func (s *Stub) Info() uint64 { return s.info }

// SetInfo stores the auxiliary info word.
func (s *Stub) SetInfo(v uint64) { s.info = v }

// LinkTrack reports whether the collector must visit Link's reference.
func (s *Stub) LinkTrack() bool { return s.base&node.FlagTrack1 != 0 }

// MiscTrack reports whether the collector must visit Misc's reference.
func (s *Stub) MiscTrack() bool { return s.base&node.FlagTrack2 != 0 }

// SetLinkRef stores a trackable reference in Link.
func (s *Stub) SetLinkRef(n Node) {
	s.link.SetRef(n)
	s.base |= node.FlagTrack1
}

// SetLinkBits stores untracked scalar bits in Link.
func (s *Stub) SetLinkBits(b uint64) {
	s.link.SetBits(b)
	s.base &^= node.FlagTrack1
}

// SetMiscRef stores a trackable reference in Misc.
func (s *Stub) SetMiscRef(n Node) {
	s.misc.SetRef(n)
	s.base |= node.FlagTrack2
}

// SetMiscBits stores untracked scalar bits in Misc.
func (s *Stub) SetMiscBits(b uint64) {
	s.misc.SetBits(b)
	s.base &^= node.FlagTrack2
}

// Len returns the used element count, in either content mode.
func (s *Stub) Len() int { return int(s.used) }

// Cap returns the element capacity of the current representation.
func (s *Stub) Cap() int {
	if s.flags&stubDynamic == 0 {
		if s.flavor.CellWidth() {
			return 1
		}
		return embedBytesCap
	}
	if s.flavor.CellWidth() {
		return len(s.cells)
	}
	return len(s.bytes)
}

// Bias returns the reclaimed head-room of a dynamic stub.
func (s *Stub) Bias() int {
	if s.flags&stubDynamic == 0 {
		return 0
	}
	return int(s.bias)
}

// At returns the i-th cell of a cell-width stub. The caller must keep
// i < Len(); this is the positional addressing compiled code relies on.
func (s *Stub) At(i int) *Cell {
	if uint32(i) >= s.used {
		panic(fmt.Sprintf("%s stub index %d out of range %d", s.flavor, i, s.used))
	}
	if s.flags&stubDynamic == 0 {
		return &s.one[0]
	}
	return &s.cells[s.bias+uint32(i)]
}

// Head returns the live cells of a cell-width stub. The slice aliases
// the stub's storage and is invalidated by any growth operation.
func (s *Stub) Head() []Cell {
	if s.flags&stubDynamic == 0 {
		return s.one[:s.used]
	}
	return s.cells[s.bias : s.bias+s.used]
}

// Bytes returns the live content of a byte-width stub. The slice aliases
// the stub's storage and is invalidated by any growth operation.
func (s *Stub) Bytes() []byte {
	if s.flags&stubDynamic == 0 {
		return s.small[:s.used]
	}
	return s.bytes[s.bias : s.bias+s.used]
}

// ByteAt returns the i-th content byte of a byte-width stub.
func (s *Stub) ByteAt(i int) byte {
	if uint32(i) >= s.used {
		panic(fmt.Sprintf("%s stub index %d out of range %d", s.flavor, i, s.used))
	}
	if s.flags&stubDynamic == 0 {
		return s.small[i]
	}
	return s.bytes[s.bias+uint32(i)]
}

func (s *Stub) String() string {
	mode := "embedded"
	if s.IsDynamic() {
		mode = "dynamic"
	}
	return fmt.Sprintf("%s stub (%s, used %d)", s.flavor, mode, s.used)
}
