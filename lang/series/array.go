// Package series implements the derived aggregate types of the runtime:
// arrays, strands, interned symbols, key/variable lists, action pairs,
// maps, and the sparse per-module variable store. Each is a heap stub
// differentiated only by flavor and by which accessors are used on its
// slots; there is no separate physical layout per type.
package series

import "github.com/metaeducation/cellar/lang/heap"

// An Array is a cell-width stub. Its Link slot may carry the filename
// strand and its Misc slot the line number of the source that produced
// it.
type Array struct {
	S *heap.Stub
}

// NewArray allocates an unmanaged array with room for capacity cells.
func NewArray(p *heap.Pool, capacity int) Array {
	return Array{S: p.AllocStub(heap.FlavorArray, capacity, false)}
}

// Len returns the number of cells.
func (a Array) Len() int { return a.S.Len() }

// At returns the i-th cell.
func (a Array) At(i int) *heap.Cell { return a.S.At(i) }

// Push appends a blank cell and returns it for initialization.
func (a Array) Push() (*heap.Cell, error) { return a.S.PushTail() }

// Append appends a copy of src.
func (a Array) Append(src *heap.Cell) error {
	c, err := a.S.PushTail()
	if err != nil {
		return err
	}
	return c.Copy(src)
}

// SetSource records where the array came from.
func (a Array) SetSource(file Strand, line int) {
	a.S.SetLinkRef(heap.StubRef(file.S))
	a.S.SetMiscBits(uint64(line))
}

// Source returns the recorded origin, if any.
func (a Array) Source() (file Strand, line int, ok bool) {
	fs := a.S.Link().Stub()
	if fs == nil {
		return Strand{}, 0, false
	}
	return Strand{S: fs}, int(a.S.Misc().Bits()), true
}
