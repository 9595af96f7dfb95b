package heap

import (
	"fmt"
	"math"

	"github.com/brickingsoft/errors"
	"github.com/metaeducation/cellar/lang/node"
)

// A Cell is the fixed-shape tagged value slot, the atomic unit of value
// representation. Its four header bytes are:
//
//	base   node discriminator + managed/root/marked + slot track flags
//	kind   heart (low 6 bits) packed with the sigil (top 2 bits)
//	lift   quoting depth and antiform/quasiform state
//	flags  per-type flags (const, protected, note, newline, 2 spare)
//
// followed by one auxiliary slot and two generic payload slots. The
// ancestral layout squeezed this into 4 pointer widths; the Go shape is
// wider (each slot is a tagged bits/ref pair) but keeps the same fixed
// set of locations, which is what the derived-type accessors rely on.
type Cell struct {
	base  byte
	kind  byte
	lift  byte
	flags byte

	aux   Slot
	slot1 Slot
	slot2 Slot
}

// Per-type flag bits (the fourth header byte).
const (
	FlagConst     byte = 0x01
	FlagProtected byte = 0x02
	FlagNote      byte = 0x04
	FlagNewline   byte = 0x08
	FlagTypeA     byte = 0x10 // meaning assigned per heart
	FlagTypeB     byte = 0x20
)

// persistMask are the base-byte bits that belong to the cell's location,
// not its value: a copy never transfers them. The marked bit is sticky;
// ordinary writes must not clear it.
const persistMask = node.FlagManaged | node.FlagRoot | node.FlagMarked

// noCopyFlags are value flags that protect a particular cell, not the
// value itself; they are stripped from the copied bits.
const noCopyFlags = FlagProtected | FlagNote

// Lift-byte encoding: zero is the unstable antiform state; otherwise the
// low bit distinguishes quasiform from plain and the remaining magnitude
// encodes quote depth, saturating at MaxQuoteDepth.
const (
	liftAntiform byte = 0
	liftPlain    byte = 2
	liftQuasi    byte = 3

	// MaxQuoteDepth is the deepest quoting the lift byte can represent.
	MaxQuoteDepth = 126
)

// Heart returns the cell's fundamental datatype.
func (c *Cell) Heart() Heart { return Heart(c.kind & heartMask) }

// Sigil returns the cell's decoration.
func (c *Cell) Sigil() Sigil { return Sigil(c.kind >> 6) }

// SetSigil replaces the cell's decoration.
func (c *Cell) SetSigil(s Sigil) { c.kind = c.kind&heartMask | byte(s)<<6 }

// Flags returns the per-type flags byte.
func (c *Cell) Flags() byte { return c.flags }

// HasFlag reports whether all bits of f are set.
func (c *Cell) HasFlag(f byte) bool { return c.flags&f == f }

// SetFlag sets the given flag bits.
func (c *Cell) SetFlag(f byte) { c.flags |= f }

// ClearFlag clears the given flag bits.
func (c *Cell) ClearFlag(f byte) { c.flags &^= f }

// Protect marks the cell so that writes through it fail.
func (c *Cell) Protect() { c.flags |= FlagProtected }

// Unprotect clears the protection flag.
func (c *Cell) Unprotect() { c.flags &^= FlagProtected }

// checkWritable returns ErrProtected if the cell must not be written.
func (c *Cell) checkWritable() error {
	if c.flags&FlagProtected != 0 {
		return errors.New("cannot modify value", errors.WithWrap(ErrProtected))
	}
	return nil
}

// --- quoting ---

// IsAntiform reports the unstable antiform state.
func (c *Cell) IsAntiform() bool { return c.lift == liftAntiform }

// IsQuasiform reports whether the cell is a quasiform.
func (c *Cell) IsQuasiform() bool { return c.lift != liftAntiform && c.lift&1 == 1 }

// QuoteDepth returns the number of quoting levels (0 for antiforms).
func (c *Cell) QuoteDepth() int {
	if c.lift == liftAntiform {
		return 0
	}
	return int(c.lift>>1) - 1
}

// Quotify adds n quoting levels. Exceeding MaxQuoteDepth is a checked
// error, not silent wraparound.
func (c *Cell) Quotify(n int) error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	if c.lift == liftAntiform {
		return errors.New("cannot quote an unstable antiform", errors.WithWrap(ErrQuoteDepth))
	}
	if n < 0 || c.QuoteDepth()+n > MaxQuoteDepth {
		return errors.New(fmt.Sprintf("quote depth above %d", MaxQuoteDepth),
			errors.WithWrap(ErrQuoteDepth))
	}
	c.lift += byte(2 * n)
	return nil
}

// Unquotify removes n quoting levels.
func (c *Cell) Unquotify(n int) error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	if n < 0 || c.QuoteDepth() < n {
		return errors.New("unquote below zero depth", errors.WithWrap(ErrQuoteDepth))
	}
	c.lift -= byte(2 * n)
	return nil
}

// SetAntiform puts the cell in the unstable antiform state. Only legal
// at quote depth zero.
func (c *Cell) SetAntiform() error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	if c.QuoteDepth() != 0 {
		return errors.New("antiform of quoted value", errors.WithWrap(ErrQuoteDepth))
	}
	c.lift = liftAntiform
	return nil
}

// SetQuasiform marks or unmarks the quasiform bit at the current depth.
func (c *Cell) SetQuasiform(quasi bool) error {
	if err := c.checkWritable(); err != nil {
		return err
	}
	if c.lift == liftAntiform {
		c.lift = liftQuasi // stabilizing an antiform yields its quasiform
		return nil
	}
	if quasi {
		c.lift |= 1
	} else {
		c.lift &^= 1
	}
	return nil
}

// --- generic slots ---

// Slot1 returns the first generic payload slot. The collector consults
// Track1, not the slot, to decide whether its reference is live.
func (c *Cell) Slot1() *Slot { return &c.slot1 }

// Slot2 returns the second generic payload slot.
func (c *Cell) Slot2() *Slot { return &c.slot2 }

// Track1 reports whether the collector must visit slot 1's reference.
func (c *Cell) Track1() bool { return c.base&node.FlagTrack1 != 0 }

// Track2 reports whether the collector must visit slot 2's reference.
func (c *Cell) Track2() bool { return c.base&node.FlagTrack2 != 0 }

// SetSlot1Ref stores a trackable reference in slot 1.
func (c *Cell) SetSlot1Ref(n Node) {
	c.slot1.SetRef(n)
	c.base |= node.FlagTrack1
}

// SetSlot1Bits stores untracked scalar bits in slot 1.
func (c *Cell) SetSlot1Bits(b uint64) {
	c.slot1.SetBits(b)
	c.base &^= node.FlagTrack1
}

// SetSlot2Ref stores a trackable reference in slot 2.
func (c *Cell) SetSlot2Ref(n Node) {
	c.slot2.SetRef(n)
	c.base |= node.FlagTrack2
}

// SetSlot2Bits stores untracked scalar bits in slot 2.
func (c *Cell) SetSlot2Bits(b uint64) {
	c.slot2.SetBits(b)
	c.base &^= node.FlagTrack2
}

// --- auxiliary slot ---

// Binding returns the binding reference of a bindable cell, or nil.
func (c *Cell) Binding() Node {
	if !c.Heart().Bindable() {
		return nil
	}
	return c.aux.Ref()
}

// SetBinding attaches binding information. The heart must be bindable;
// the collector visits the binding of bindable hearts unconditionally.
func (c *Cell) SetBinding(n Node) {
	if !c.Heart().Bindable() {
		panic(fmt.Sprintf("SetBinding on non-bindable heart %s", c.Heart()))
	}
	c.aux.SetRef(n)
}

// Aux returns the auxiliary slot for hearts that use it as scalar space.
func (c *Cell) Aux() *Slot { return &c.aux }

// --- initializers ---
//
// Initializers are for fresh or caller-owned cells: they write the whole
// header at once, preserving only the location bits (persist mask).
// Writes through cells already visible to the language go through Copy,
// which honors protection.

func (c *Cell) resetHeader(h Heart, track1, track2 bool) {
	b := node.BaseCell | c.base&persistMask
	if track1 {
		b |= node.FlagTrack1
	}
	if track2 {
		b |= node.FlagTrack2
	}
	c.base = b
	c.kind = byte(h)
	c.lift = liftPlain
	c.flags = 0
	c.aux.clear()
	c.slot1.clear()
	c.slot2.clear()
}

// InitBlank makes c a blank cell.
func InitBlank(c *Cell) *Cell {
	c.resetHeader(HeartBlank, false, false)
	return c
}

// InitLogic makes c a logic cell.
func InitLogic(c *Cell, v bool) *Cell {
	c.resetHeader(HeartLogic, false, false)
	if v {
		c.slot1.SetBits(1)
	}
	return c
}

// InitInteger makes c an integer cell.
func InitInteger(c *Cell, i int64) *Cell {
	c.resetHeader(HeartInteger, false, false)
	c.slot1.SetBits(uint64(i))
	return c
}

// Int returns the payload of an integer cell.
func (c *Cell) Int() int64 { return int64(c.slot1.Bits()) }

// InitDecimal makes c a decimal cell.
func InitDecimal(c *Cell, f float64) *Cell {
	c.resetHeader(HeartDecimal, false, false)
	c.slot1.SetBits(math.Float64bits(f))
	return c
}

// Decimal returns the payload of a decimal cell.
func (c *Cell) Decimal() float64 { return math.Float64frombits(c.slot1.Bits()) }

// InitRune makes c a rune cell.
func InitRune(c *Cell, r rune) *Cell {
	c.resetHeader(HeartRune, false, false)
	c.slot1.SetBits(uint64(uint32(r)))
	return c
}

// InitPair makes c a pair cell referencing a pairing node.
func InitPair(c *Cell, p *Pairing) *Cell {
	c.resetHeader(HeartPair, true, false)
	c.slot1.SetRef(PairingRef(p))
	return c
}

// InitList makes c a list cell (block, group, fence...) positioned at
// index within the array stub.
func InitList(c *Cell, h Heart, arr *Stub, index int) *Cell {
	c.resetHeader(h, true, false)
	c.slot1.SetRef(StubRef(arr))
	c.slot2.SetBits(uint64(index))
	return c
}

// InitText makes c a text-family cell (text, file, email, url, tag)
// positioned at index within the strand stub.
func InitText(c *Cell, h Heart, strand *Stub, index int) *Cell {
	c.resetHeader(h, true, false)
	c.slot1.SetRef(StubRef(strand))
	c.slot2.SetBits(uint64(index))
	return c
}

// InitWord makes c a word cell spelling the given symbol.
func InitWord(c *Cell, sym *Stub) *Cell {
	c.resetHeader(HeartWord, true, false)
	c.slot1.SetRef(StubRef(sym))
	return c
}

// InitParameter makes c a parameter descriptor cell: the spelled symbol
// plus a class word of packed parameter bits.
func InitParameter(c *Cell, sym *Stub, class uint64) *Cell {
	c.resetHeader(HeartParameter, true, false)
	c.slot1.SetRef(StubRef(sym))
	c.slot2.SetBits(class)
	return c
}

// InitContext makes c a context cell (object, module, frame) referencing
// its variable store.
func InitContext(c *Cell, h Heart, varlist *Stub) *Cell {
	c.resetHeader(h, true, false)
	c.slot1.SetRef(StubRef(varlist))
	return c
}

// ListIndex returns the position payload of a list or text cell.
func (c *Cell) ListIndex() int { return int(c.slot2.Bits()) }

// Copy transfers src's value into c: payload, auxiliary slot, and all
// header bits except c's persist mask. Protection and transient notes do
// not travel with the value. Copying a cell into itself is a no-op.
func (c *Cell) Copy(src *Cell) error {
	if c == src {
		return nil
	}
	if err := c.checkWritable(); err != nil {
		return err
	}
	c.base = src.base&^persistMask | c.base&persistMask
	c.kind = src.kind
	c.lift = src.lift
	c.flags = src.flags &^ noCopyFlags
	c.aux = src.aux
	c.slot1 = src.slot1
	c.slot2 = src.slot2
	return nil
}

func (c *Cell) String() string {
	return fmt.Sprintf("%s cell (lift %d)", c.Heart(), c.lift)
}
