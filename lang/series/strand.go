package series

import (
	"unicode/utf8"

	"github.com/metaeducation/cellar/lang/heap"
)

// A Strand is a byte-width stub holding UTF-8 text. Its Misc slot caches
// the rune count so repeated length queries do not rescan the content;
// any mutation drops the cache. The cache encoding reserves zero for
// "unknown" so a fresh stub needs no initialization.
type Strand struct {
	S *heap.Stub
}

// NewStrand allocates an unmanaged strand holding text. Short strands
// stay embedded in the stub.
func NewStrand(p *heap.Pool, text string) (Strand, error) {
	s := Strand{S: p.AllocStub(heap.FlavorStrand, len(text), false)}
	if err := s.Append(text); err != nil {
		return Strand{}, err
	}
	return s, nil
}

// Len returns the encoded size in bytes.
func (s Strand) Len() int { return s.S.Len() }

// String returns the content as a Go string.
func (s Strand) String() string { return string(s.S.Bytes()) }

// RuneCount returns the number of codepoints, scanning at most once
// between mutations.
func (s Strand) RuneCount() int {
	if v := s.S.Misc().Bits(); v != 0 {
		return int(v - 1)
	}
	n := utf8.RuneCount(s.S.Bytes())
	s.S.SetMiscBits(uint64(n) + 1)
	return n
}

func (s Strand) dropCache() { s.S.SetMiscBits(0) }

// Append inserts text at the tail.
func (s Strand) Append(text string) error {
	if err := s.S.AppendBytes([]byte(text)); err != nil {
		return err
	}
	s.dropCache()
	return nil
}

// InsertHead inserts text before the head.
func (s Strand) InsertHead(text string) error {
	if err := s.S.InsertHeadBytes([]byte(text)); err != nil {
		return err
	}
	s.dropCache()
	return nil
}

// TakeHead removes and returns the first n bytes. The caller is
// responsible for keeping the cut on a codepoint boundary.
func (s Strand) TakeHead(n int) (string, error) {
	b, err := s.S.TakeHeadBytes(n)
	if err != nil {
		return "", err
	}
	s.dropCache()
	return string(b), nil
}

// RemoveTail drops the last n bytes.
func (s Strand) RemoveTail(n int) error {
	if err := s.S.RemoveTail(n); err != nil {
		return err
	}
	s.dropCache()
	return nil
}

// A Blob is a byte-width stub of raw binary content. It shares the
// strand's deque behavior but has no codepoint semantics.
type Blob struct {
	S *heap.Stub
}

// NewBlob allocates an unmanaged blob holding data.
func NewBlob(p *heap.Pool, data []byte) (Blob, error) {
	b := Blob{S: p.AllocStub(heap.FlavorBlob, len(data), false)}
	if err := b.S.AppendBytes(data); err != nil {
		return Blob{}, err
	}
	return b, nil
}

// Len returns the content size in bytes.
func (b Blob) Len() int { return b.S.Len() }

// Bytes returns the live content. The slice aliases the stub's storage.
func (b Blob) Bytes() []byte { return b.S.Bytes() }

// Append inserts data at the tail.
func (b Blob) Append(data []byte) error { return b.S.AppendBytes(data) }
