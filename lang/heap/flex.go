package heap

import (
	"fmt"

	"github.com/brickingsoft/errors"
)

// Dynamic growth engine. A stub's content behaves as a double-ended
// queue: tail insertion extends the used count; head removal raises the
// bias (reclaimed head-room) without moving data, so a later head
// insertion reuses it for free. Bias past the configured window forces a
// re-centering pass. Shrinking to zero keeps the allocation.

// minDynCap is the smallest dynamic allocation, in elements.
const minDynCap = 4

func (s *Stub) ensureMutable(grow bool) error {
	if s.flags&stubFrozen != 0 {
		return errors.New(fmt.Sprintf("%s is frozen", s.flavor), errors.WithWrap(ErrFrozen))
	}
	if grow && s.flags&stubFixedSize != 0 {
		return errors.New(fmt.Sprintf("%s is fixed-size", s.flavor), errors.WithWrap(ErrFixedSize))
	}
	return nil
}

// growCap picks the new element capacity for an expansion. Beyond the
// addressable range the failure is fatal, not an error.
func growCap(need, have int) int {
	if need > maxStubCap {
		panic(fmt.Sprintf("series capacity %d beyond addressable range", need))
	}
	c := have * 2
	if c < minDynCap {
		c = minDynCap
	}
	if c < need {
		c = need
	}
	if c > maxStubCap {
		c = maxStubCap
	}
	return c
}

// mustBytes / mustCells guard against using an accessor of the wrong
// width; that is a caller bug, not a runtime condition.
func (s *Stub) mustBytes() {
	if s.flavor.CellWidth() {
		panic(fmt.Sprintf("byte accessor on %s stub", s.flavor))
	}
}

func (s *Stub) mustCells() {
	if !s.flavor.CellWidth() {
		panic(fmt.Sprintf("cell accessor on %s stub", s.flavor))
	}
}

// reserveTailBytes guarantees room for n more bytes after the live
// window, promoting an embedded stub to dynamic when its physical
// capacity is exceeded.
func (s *Stub) reserveTailBytes(n int) {
	if s.flags&stubDynamic == 0 {
		if int(s.used)+n <= embedBytesCap {
			return
		}
		buf := make([]byte, growCap(int(s.used)+n, embedBytesCap))
		copy(buf, s.small[:s.used])
		s.bytes = buf
		s.flags |= stubDynamic
		s.pol.expansions++
		return
	}
	if int(s.bias)+int(s.used)+n <= len(s.bytes) {
		return
	}
	buf := make([]byte, growCap(int(s.used)+n, len(s.bytes)))
	copy(buf, s.bytes[s.bias:s.bias+s.used])
	s.bytes = buf
	s.bias = 0
	s.pol.expansions++
}

func (s *Stub) reserveTailCells(n int) {
	if s.flags&stubDynamic == 0 {
		if int(s.used)+n <= 1 {
			return
		}
		buf := make([]Cell, growCap(int(s.used)+n, 1))
		copy(buf, s.one[:s.used])
		s.cells = buf
		s.flags |= stubDynamic
		s.pol.expansions++
		return
	}
	if int(s.bias)+int(s.used)+n <= len(s.cells) {
		return
	}
	buf := make([]Cell, growCap(int(s.used)+n, len(s.cells)))
	copy(buf, s.cells[s.bias:s.bias+s.used])
	s.cells = buf
	s.bias = 0
	s.pol.expansions++
}

// recenter moves the live window back to the start of the allocation,
// resetting the bias.
func (s *Stub) recenter() {
	if s.flags&stubDynamic == 0 || s.bias == 0 {
		return
	}
	if s.flavor.CellWidth() {
		copy(s.cells, s.cells[s.bias:s.bias+s.used])
	} else {
		copy(s.bytes, s.bytes[s.bias:s.bias+s.used])
	}
	s.bias = 0
	s.pol.recenters++
}

// AppendBytes inserts b at the tail of a byte-width stub.
func (s *Stub) AppendBytes(b []byte) error {
	s.mustBytes()
	if err := s.ensureMutable(true); err != nil {
		return err
	}
	s.reserveTailBytes(len(b))
	if s.flags&stubDynamic == 0 {
		copy(s.small[s.used:], b)
	} else {
		copy(s.bytes[s.bias+s.used:], b)
	}
	s.used += uint32(len(b))
	return nil
}

// PushTail appends one blank cell to a cell-width stub and returns it
// for the caller to initialize.
func (s *Stub) PushTail() (*Cell, error) {
	s.mustCells()
	if err := s.ensureMutable(true); err != nil {
		return nil, err
	}
	s.reserveTailCells(1)
	var c *Cell
	if s.flags&stubDynamic == 0 {
		c = &s.one[0]
	} else {
		c = &s.cells[s.bias+s.used]
	}
	s.used++
	return InitBlank(c), nil
}

// InsertHeadBytes inserts b before the head of a byte-width stub. When
// enough bias has accumulated the insertion is free; otherwise the data
// is shifted or reallocated with the needed head-room.
func (s *Stub) InsertHeadBytes(b []byte) error {
	s.mustBytes()
	if err := s.ensureMutable(true); err != nil {
		return err
	}
	n := uint32(len(b))
	if s.flags&stubDynamic != 0 && s.bias >= n {
		s.bias -= n
		copy(s.bytes[s.bias:], b)
		s.used += n
		return nil
	}
	s.reserveTailBytes(len(b))
	if s.flags&stubDynamic == 0 {
		copy(s.small[n:], s.small[:s.used])
		copy(s.small[:], b)
	} else {
		w := s.bytes[s.bias:]
		copy(w[n:], w[:s.used])
		copy(w, b)
	}
	s.used += n
	return nil
}

// InsertHeadCells makes room for n blank cells before the head of a
// cell-width stub; the caller initializes them via At.
func (s *Stub) InsertHeadCells(n int) error {
	s.mustCells()
	if err := s.ensureMutable(true); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	un := uint32(n)
	if s.flags&stubDynamic != 0 && s.bias >= un {
		s.bias -= un
		for i := 0; i < n; i++ {
			InitBlank(&s.cells[s.bias+uint32(i)])
		}
		s.used += un
		return nil
	}
	s.reserveTailCells(n)
	if s.flags&stubDynamic == 0 {
		// capacity one: room was reserved, so used must have been zero
		InitBlank(&s.one[0])
	} else {
		w := s.cells[s.bias:]
		copy(w[un:], w[:s.used])
		for i := 0; i < n; i++ {
			InitBlank(&w[i])
		}
	}
	s.used += un
	return nil
}

// RemoveHead drops n elements from the head. On a dynamic stub this
// only raises the bias; no data moves unless the bias window is
// exceeded.
func (s *Stub) RemoveHead(n int) error {
	if err := s.ensureMutable(true); err != nil {
		return err
	}
	if uint32(n) > s.used {
		panic(fmt.Sprintf("remove %d from %s of length %d", n, s.flavor, s.used))
	}
	if s.flags&stubDynamic == 0 {
		if s.flavor.CellWidth() {
			// capacity one: removing the head empties the stub
		} else {
			copy(s.small[:], s.small[n:s.used])
		}
		s.used -= uint32(n)
		return nil
	}
	s.bias += uint32(n)
	s.used -= uint32(n)
	if int(s.bias) > s.pol.biasWindow {
		s.recenter()
	}
	return nil
}

// TakeHeadBytes copies out and removes the first n bytes.
func (s *Stub) TakeHeadBytes(n int) ([]byte, error) {
	s.mustBytes()
	if err := s.ensureMutable(true); err != nil {
		return nil, err
	}
	if uint32(n) > s.used {
		panic(fmt.Sprintf("take %d from %s of length %d", n, s.flavor, s.used))
	}
	out := make([]byte, n)
	copy(out, s.Bytes()[:n])
	if err := s.RemoveHead(n); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveTail drops n elements from the tail. Shrinking to zero does not
// release the allocation.
func (s *Stub) RemoveTail(n int) error {
	if err := s.ensureMutable(true); err != nil {
		return err
	}
	if uint32(n) > s.used {
		panic(fmt.Sprintf("remove %d from %s of length %d", n, s.flavor, s.used))
	}
	s.used -= uint32(n)
	return nil
}

// SetByteAt overwrites the i-th content byte.
func (s *Stub) SetByteAt(i int, b byte) error {
	s.mustBytes()
	if err := s.ensureMutable(false); err != nil {
		return err
	}
	if uint32(i) >= s.used {
		panic(fmt.Sprintf("%s stub index %d out of range %d", s.flavor, i, s.used))
	}
	if s.flags&stubDynamic == 0 {
		s.small[i] = b
	} else {
		s.bytes[s.bias+uint32(i)] = b
	}
	return nil
}
