package series

import "github.com/metaeducation/cellar/lang/heap"

// A Bitset is a byte-width stub used as a growable bit array, as needed
// by character classes. Bits beyond the current content read as unset;
// setting one grows the content to cover it.
type Bitset struct {
	S *heap.Stub
}

// NewBitset allocates an unmanaged bitset with room for bits positions.
func NewBitset(p *heap.Pool, bits int) Bitset {
	return Bitset{S: p.AllocStub(heap.FlavorBitset, (bits+7)/8, false)}
}

// Test reports whether bit i is set.
func (b Bitset) Test(i int) bool {
	if i/8 >= b.S.Len() {
		return false
	}
	return b.S.ByteAt(i/8)&(1<<(i%8)) != 0
}

// Set sets or clears bit i, growing the content as needed.
func (b Bitset) Set(i int, on bool) error {
	for b.S.Len() <= i/8 {
		if err := b.S.AppendBytes([]byte{0}); err != nil {
			return err
		}
	}
	v := b.S.ByteAt(i / 8)
	if on {
		v |= 1 << (i % 8)
	} else {
		v &^= 1 << (i % 8)
	}
	return b.S.SetByteAt(i/8, v)
}
