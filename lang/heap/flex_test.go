package heap

import (
	"testing"

	"github.com/brickingsoft/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteDequeRoundTrip(t *testing.T) {
	// dynamic stub of byte-width 1, capacity 4; append "ab"; take 1 from
	// head; append "cd" -> used==3, content=="bcd", no reallocation
	p := NewPool(DefaultConfig())
	s := p.AllocStub(FlavorStrand, 4, true)
	before := p.Stats().Expansions

	require.NoError(t, s.AppendBytes([]byte("ab")))
	taken, err := s.TakeHeadBytes(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), taken)
	require.NoError(t, s.AppendBytes([]byte("cd")))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []byte("bcd"), s.Bytes())
	assert.Equal(t, before, p.Stats().Expansions, "bias head-room must absorb the growth")
	assert.Equal(t, 1, s.Bias())
}

func TestByteDequeInterleaved(t *testing.T) {
	p := NewPool(DefaultConfig())
	s := p.AllocStub(FlavorStrand, 0, true)

	var want []byte
	push := func(b []byte) {
		require.NoError(t, s.AppendBytes(b))
		want = append(want, b...)
	}
	take := func(n int) {
		_, err := s.TakeHeadBytes(n)
		require.NoError(t, err)
		want = want[n:]
	}

	push([]byte("hello"))
	take(2)
	push([]byte(" world"))
	take(4)
	require.NoError(t, s.InsertHeadBytes([]byte(">>")))
	want = append([]byte(">>"), want...)
	push([]byte("!"))
	take(1)

	assert.Equal(t, len(want), s.Len())
	assert.Equal(t, want, s.Bytes())
}

func TestHeadInsertReusesBias(t *testing.T) {
	p := NewPool(DefaultConfig())
	s := p.AllocStub(FlavorStrand, 8, true)
	require.NoError(t, s.AppendBytes([]byte("abcdef")))
	require.NoError(t, s.RemoveHead(3))
	assert.Equal(t, 3, s.Bias())

	before := p.Stats().Expansions
	require.NoError(t, s.InsertHeadBytes([]byte("xy")))
	assert.Equal(t, before, p.Stats().Expansions)
	assert.Equal(t, 1, s.Bias())
	assert.Equal(t, []byte("xydef"), s.Bytes())
}

func TestBiasWindowForcesRecenter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BiasWindow = 4
	p := NewPool(cfg)
	s := p.AllocStub(FlavorStrand, 16, true)
	require.NoError(t, s.AppendBytes([]byte("0123456789")))

	require.NoError(t, s.RemoveHead(4))
	assert.Equal(t, 4, s.Bias())
	assert.Zero(t, p.Stats().Recenters)

	require.NoError(t, s.RemoveHead(1))
	assert.Zero(t, s.Bias(), "bias past the window re-centers the data")
	assert.EqualValues(t, 1, p.Stats().Recenters)
	assert.Equal(t, []byte("56789"), s.Bytes())
}

func TestEmbeddedDynamicTransparency(t *testing.T) {
	p := NewPool(DefaultConfig())
	small := p.AllocStub(FlavorStrand, 4, false)
	big := p.AllocStub(FlavorStrand, 200, false)
	assert.False(t, small.IsDynamic())
	assert.True(t, big.IsDynamic())

	for _, s := range []*Stub{small, big} {
		require.NoError(t, s.AppendBytes([]byte("abc")))
		require.NoError(t, s.InsertHeadBytes([]byte(">")))
		require.NoError(t, s.RemoveHead(1))
		require.NoError(t, s.SetByteAt(0, 'A'))
	}

	assert.Equal(t, small.Len(), big.Len())
	assert.Equal(t, small.Bytes(), big.Bytes())
	assert.Equal(t, byte('b'), small.ByteAt(1))
	assert.Equal(t, byte('b'), big.ByteAt(1))
}

func TestEmbeddedPromotesOnOverflow(t *testing.T) {
	p := NewPool(DefaultConfig())
	s := p.AllocStub(FlavorStrand, 4, false)
	require.False(t, s.IsDynamic())

	long := make([]byte, embedBytesCap+10)
	for i := range long {
		long[i] = byte('a' + i%26)
	}
	require.NoError(t, s.AppendBytes(long))
	assert.True(t, s.IsDynamic())
	assert.Equal(t, long, s.Bytes())
}

func TestCellDeque(t *testing.T) {
	p := NewPool(DefaultConfig())
	s := p.AllocStub(FlavorArray, 2, false)

	for i := 0; i < 5; i++ {
		c, err := s.PushTail()
		require.NoError(t, err)
		InitInteger(c, int64(i))
	}
	require.NoError(t, s.RemoveHead(2))
	require.NoError(t, s.InsertHeadCells(1))
	InitInteger(s.At(0), -1)

	want := []int64{-1, 2, 3, 4}
	require.Equal(t, len(want), s.Len())
	for i, w := range want {
		assert.Equal(t, w, s.At(i).Int(), "index %d", i)
	}
}

func TestShrinkToZeroKeepsAllocation(t *testing.T) {
	p := NewPool(DefaultConfig())
	s := p.AllocStub(FlavorStrand, 64, true)
	require.NoError(t, s.AppendBytes([]byte("data")))
	capBefore := s.Cap()

	require.NoError(t, s.RemoveTail(2))
	require.NoError(t, s.RemoveHead(2))
	assert.Zero(t, s.Len())
	assert.Equal(t, capBefore, s.Cap(), "shrinking to zero does not deallocate")

	require.NoError(t, s.AppendBytes([]byte("x")))
	assert.Equal(t, []byte("x"), s.Bytes())
}

func TestFixedSizeViolation(t *testing.T) {
	p := NewPool(DefaultConfig())
	s := p.AllocStub(FlavorStrand, 8, true)
	require.NoError(t, s.AppendBytes([]byte("ab")))
	s.SetFixedSize()

	err := s.AppendBytes([]byte("c"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFixedSize))
	require.Error(t, s.RemoveHead(1))
	require.Error(t, s.RemoveTail(1))

	// non-structural writes are still allowed
	require.NoError(t, s.SetByteAt(0, 'A'))
	assert.Equal(t, []byte("Ab"), s.Bytes())
}

func TestFrozenViolation(t *testing.T) {
	p := NewPool(DefaultConfig())
	s := p.AllocStub(FlavorStrand, 8, true)
	require.NoError(t, s.AppendBytes([]byte("ab")))
	s.Freeze()

	err := s.SetByteAt(0, 'A')
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrozen))
	require.Error(t, s.AppendBytes([]byte("c")))
}

func TestTakeHeadChecksBeforeCopy(t *testing.T) {
	p := NewPool(DefaultConfig())
	s := p.AllocStub(FlavorStrand, 8, true)
	require.NoError(t, s.AppendBytes([]byte("abc")))

	assert.Panics(t, func() { s.TakeHeadBytes(4) }, "oversized take is a length panic, not a slice fault")
	assert.EqualValues(t, 3, s.Len())

	s.Freeze()
	_, err := s.TakeHeadBytes(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrozen))
	assert.Equal(t, []byte("abc"), s.Bytes(), "frozen content is untouched")
}

func TestCapacityOverflowFatal(t *testing.T) {
	p := NewPool(DefaultConfig())
	assert.Panics(t, func() { p.AllocStub(FlavorStrand, maxStubCap+1, true) })
}
