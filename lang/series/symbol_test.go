package series

import (
	"testing"

	"github.com/metaeducation/cellar/lang/heap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternIdentity(t *testing.T) {
	p := heap.NewPool(heap.DefaultConfig())
	tbl := NewInterns(p)

	a := tbl.Intern("append")
	b := tbl.Intern("append")
	assert.Same(t, a.S, b.S, "one stub per exact spelling")
	assert.Equal(t, "append", a.Spelling())
	assert.Equal(t, 1, tbl.Count())

	got, ok := tbl.Lookup("append")
	require.True(t, ok)
	assert.Same(t, a.S, got.S)
	_, ok = tbl.Lookup("prepend")
	assert.False(t, ok)
}

func TestCaseRing(t *testing.T) {
	p := heap.NewPool(heap.DefaultConfig())
	tbl := NewInterns(p)

	lower := tbl.Intern("foo")
	upper := tbl.Intern("FOO")
	mixed := tbl.Intern("Foo")

	assert.NotSame(t, lower.S, upper.S, "exact spellings stay distinct")
	assert.True(t, lower.IsCanon(), "first spelling seen is canonical")
	assert.False(t, upper.IsCanon())
	assert.False(t, mixed.IsCanon())

	assert.True(t, lower.SameFold(upper))
	assert.True(t, upper.SameFold(mixed))
	assert.Same(t, lower.S, upper.Canon().S)
	assert.Same(t, lower.S, mixed.Canon().S)

	// the ring is circular and covers all three members
	seen := map[*heap.Stub]bool{}
	s := lower
	for i := 0; i < 3; i++ {
		seen[s.S] = true
		s = s.NextCase()
	}
	assert.Same(t, lower.S, s.S, "ring closes after all members")
	assert.Len(t, seen, 3)

	other := tbl.Intern("bar")
	assert.False(t, other.SameFold(lower))
	assert.Same(t, other.S, other.NextCase().S, "singleton ring is its own neighbor")
}

func TestSymbolsAreWeak(t *testing.T) {
	p := heap.NewPool(heap.DefaultConfig())
	gc := heap.NewCollector(p)
	tbl := NewInterns(p)
	gc.AddRootSource(tbl)
	gc.SetCleanup(heap.FlavorSymbol, tbl.CleanupSymbol)

	tbl.Intern("ephemeral")
	tbl.Intern("EPHEMERAL")
	require.Equal(t, 2, tbl.Count())

	gc.Collect()
	assert.Zero(t, tbl.Count(), "unreferenced spellings are reclaimed")
	assert.Zero(t, p.Stats().LiveStubs)

	// the table stays usable; re-interning builds a fresh ring
	s := tbl.Intern("ephemeral")
	assert.True(t, s.IsCanon())
}

func TestReferencedSymbolSurvives(t *testing.T) {
	p := heap.NewPool(heap.DefaultConfig())
	gc := heap.NewCollector(p)
	tbl := NewInterns(p)
	gc.AddRootSource(tbl)
	gc.SetCleanup(heap.FlavorSymbol, tbl.CleanupSymbol)

	sym := tbl.Intern("kept")
	tbl.Intern("dropped")

	holder := p.AllocStub(heap.FlavorArray, 1, false)
	heap.Manage(holder)
	heap.SetRoot(holder, true)
	c, err := holder.PushTail()
	require.NoError(t, err)
	heap.InitWord(c, sym.S)

	gc.Collect()
	assert.Equal(t, 1, tbl.Count())
	got, ok := tbl.Lookup("kept")
	require.True(t, ok)
	assert.Same(t, sym.S, got.S)
}

func TestCaseRingReclaimedWhole(t *testing.T) {
	p := heap.NewPool(heap.DefaultConfig())
	gc := heap.NewCollector(p)
	tbl := NewInterns(p)
	gc.AddRootSource(tbl)
	gc.SetCleanup(heap.FlavorSymbol, tbl.CleanupSymbol)

	canon := tbl.Intern("word")
	variant := tbl.Intern("WORD")
	require.True(t, canon.IsCanon())

	// ring members keep each other alive, so referencing the variant
	// keeps the whole ring
	holder := p.AllocStub(heap.FlavorArray, 1, false)
	heap.Manage(holder)
	heap.SetRoot(holder, true)
	c, err := holder.PushTail()
	require.NoError(t, err)
	heap.InitWord(c, variant.S)

	gc.Collect()
	assert.Equal(t, 2, tbl.Count(), "a live variant pins its ring")

	// drop everything: the whole ring goes, and the fold index with it
	heap.SetRoot(holder, false)
	gc.Collect()
	assert.Zero(t, tbl.Count())

	fresh := tbl.Intern("WORD")
	assert.True(t, fresh.IsCanon(), "fold class restarts with the new spelling")
}
