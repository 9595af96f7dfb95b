// Package node defines the shared header-byte convention that lets any
// opaque heap reference be classified from its first byte alone, with no
// side table and no vtable.
//
// Every live heap node (cell or stub) has a first byte whose top two bits
// are 0b10. Bytes of that shape (0x80-0xBF) are illegal as the leading
// byte of a UTF-8 sequence, so a node header can never be confused with
// raw text handed across the interop boundary. Sentinel bytes occupy a
// few of the other illegal UTF-8 lead bytes (0xF5-0xFF).
package node

// Base-byte layout for heap nodes, high bit to low bit:
//
//	1 0 cell managed root marked track1 track2
//
// The two fixed top bits identify a node. The cell bit separates cells
// from stubs. The track bits are authoritative for the collector: track1
// covers a cell's first payload slot (a stub's Link), track2 covers the
// second payload slot (a stub's Misc).
const (
	FlagNode    byte = 0x80 // always set on a live node
	FlagStale   byte = 0x40 // always clear on a live node
	FlagCell    byte = 0x20
	FlagManaged byte = 0x10
	FlagRoot    byte = 0x08
	FlagMarked  byte = 0x04
	FlagTrack1  byte = 0x02
	FlagTrack2  byte = 0x01

	// BaseCell and BaseStub are the minimal base bytes of a fresh,
	// unmanaged, unmarked node of each kind.
	BaseCell byte = FlagNode | FlagCell
	BaseStub byte = FlagNode
)

// Sentinel bytes. These occupy lead-byte values that are illegal in UTF-8
// (0xF5-0xFF) and also carry the 0x40 bit, so they can never be mistaken
// for a live node header or for text.
const (
	Wildcard  byte = 0xF5 // matches-anything signal in scan routines
	FreeUnit  byte = 0xF6 // stamped on a pool unit when it is freed
	EndSignal byte = 0xF7 // end-of-sequence marker
)

// Kind is the classification of an opaque reference's first byte.
type Kind uint8

const (
	KindText Kind = iota // a legal UTF-8 lead byte, not a node
	KindCell
	KindStub
	KindSentinel
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCell:
		return "cell"
	case KindStub:
		return "stub"
	case KindSentinel:
		return "sentinel"
	}
	return "invalid"
}

// Classify determines what b is the first byte of. It costs a few bit
// tests; there is no lookup table.
func Classify(b byte) Kind {
	if b&(FlagNode|FlagStale) == FlagNode {
		if b&FlagCell != 0 {
			return KindCell
		}
		return KindStub
	}
	switch b {
	case Wildcard, FreeUnit, EndSignal:
		return KindSentinel
	}
	return KindText
}

// IsNode reports whether b is the base byte of a live cell or stub.
func IsNode(b byte) bool { return b&(FlagNode|FlagStale) == FlagNode }

// IsFree reports whether b marks a recycled pool unit.
func IsFree(b byte) bool { return b == FreeUnit }
