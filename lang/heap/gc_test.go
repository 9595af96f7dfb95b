package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rootList is a minimal RootSource for tests.
type rootList struct {
	nodes []Node
}

func (r *rootList) VisitRoots(visit func(Node)) {
	for _, n := range r.nodes {
		visit(n)
	}
}

// buildChain allocates n managed arrays, each referencing the next from
// its first cell, and returns the head.
func buildChain(t *testing.T, p *Pool, n int) (*Stub, []*Stub) {
	t.Helper()
	var all []*Stub
	var next *Stub
	for i := 0; i < n; i++ {
		s := p.AllocStub(FlavorArray, 2, false)
		Manage(s)
		if next != nil {
			c, err := s.PushTail()
			require.NoError(t, err)
			InitList(c, HeartBlock, next, 0)
		}
		next = s
		all = append(all, s)
	}
	return next, all
}

func TestLivenessChainWithCycle(t *testing.T) {
	p := NewPool(DefaultConfig())
	gc := NewCollector(p)

	head, all := buildChain(t, p, 5)

	// add a self-referential cycle at the head
	c, err := head.PushTail()
	require.NoError(t, err)
	InitList(c, HeartBlock, head, 0)

	roots := &rootList{nodes: []Node{head}}
	gc.AddRootSource(roots)

	st := gc.Collect()
	assert.Zero(t, st.SweptStubs, "everything reachable from the root survives")
	assert.Equal(t, 5, p.Stats().LiveStubs)
	for _, s := range all {
		assert.False(t, isMarked(s), "mark bits are cleared for the next epoch")
	}

	// drop the root: the whole structure, cycle included, is reclaimed
	// exactly once
	roots.nodes = nil
	st = gc.Collect()
	assert.Equal(t, 5, st.SweptStubs)
	assert.Zero(t, p.Stats().LiveStubs)
	assert.EqualValues(t, 5, p.Stats().TotalFrees, "no double-free")
}

func TestUnmanagedSurvivesCollection(t *testing.T) {
	p := NewPool(DefaultConfig())
	gc := NewCollector(p)

	s := p.AllocStub(FlavorArray, 2, false) // fresh: unmanaged, unreferenced
	gc.Collect()
	assert.Equal(t, 1, p.Stats().LiveStubs, "manually owned stubs are exempt")

	Manage(s)
	gc.Collect()
	assert.Zero(t, p.Stats().LiveStubs, "once managed and unreachable, it goes")
}

func TestGuardList(t *testing.T) {
	p := NewPool(DefaultConfig())
	gc := NewCollector(p)

	s := p.AllocStub(FlavorArray, 2, false)
	Manage(s)

	gc.Guard(s)
	gc.Collect()
	assert.Equal(t, 1, p.Stats().LiveStubs, "guarded stubs survive")

	gc.Unguard(s)
	gc.Collect()
	assert.Zero(t, p.Stats().LiveStubs)
}

func TestGuardOrder(t *testing.T) {
	p := NewPool(DefaultConfig())
	gc := NewCollector(p)
	a := p.AllocStub(FlavorArray, 0, false)
	b := p.AllocStub(FlavorArray, 0, false)
	gc.Guard(a)
	gc.Guard(b)
	assert.Panics(t, func() { gc.Unguard(a) }, "guards nest")
	gc.Unguard(b)
	gc.Unguard(a)
	assert.Zero(t, gc.GuardDepth())
}

func TestRootBitPins(t *testing.T) {
	p := NewPool(DefaultConfig())
	gc := NewCollector(p)

	s := p.AllocStub(FlavorArray, 2, false)
	Manage(s)
	child := p.AllocStub(FlavorStrand, 0, false)
	Manage(child)
	c, err := s.PushTail()
	require.NoError(t, err)
	InitText(c, HeartText, child, 0)

	SetRoot(s, true)
	gc.Collect()
	assert.Equal(t, 2, p.Stats().LiveStubs, "a rooted node keeps its children")

	SetRoot(s, false)
	gc.Collect()
	assert.Zero(t, p.Stats().LiveStubs)
}

func TestPairingTraversal(t *testing.T) {
	p := NewPool(DefaultConfig())
	gc := NewCollector(p)

	inner := p.AllocStub(FlavorStrand, 0, false)
	Manage(inner)
	pr := p.AllocPairing()
	Manage(pr)
	InitText(pr.Second(), HeartText, inner, 0)

	roots := &rootList{nodes: []Node{pr}}
	gc.AddRootSource(roots)
	gc.Collect()
	assert.Equal(t, 1, p.Stats().LiveStubs)
	assert.Equal(t, 1, p.Stats().LivePairings)

	roots.nodes = nil
	st := gc.Collect()
	assert.Equal(t, 1, st.SweptStubs)
	assert.Equal(t, 1, st.SweptPairings)
}

func TestBindingIsTraced(t *testing.T) {
	p := NewPool(DefaultConfig())
	gc := NewCollector(p)

	sym := p.AllocStub(FlavorSymbol, 0, false)
	Manage(sym)
	ctx := p.AllocStub(FlavorVarList, 2, false)
	Manage(ctx)

	holder := p.AllocStub(FlavorArray, 1, false)
	Manage(holder)
	c, err := holder.PushTail()
	require.NoError(t, err)
	InitWord(c, sym)
	c.SetBinding(ctx)

	roots := &rootList{nodes: []Node{holder}}
	gc.AddRootSource(roots)
	gc.Collect()
	assert.Equal(t, 3, p.Stats().LiveStubs, "word payload and binding both survive")
}

func TestCleanupHookRunsOncePerReclaim(t *testing.T) {
	p := NewPool(DefaultConfig())
	gc := NewCollector(p)

	var cleaned []*Stub
	gc.SetCleanup(FlavorSymbol, func(s *Stub) { cleaned = append(cleaned, s) })

	sym := p.AllocStub(FlavorSymbol, 0, false)
	Manage(sym)
	keep := p.AllocStub(FlavorSymbol, 0, false)
	Manage(keep)
	gc.AddRootSource(&rootList{nodes: []Node{keep}})

	gc.Collect()
	require.Len(t, cleaned, 1)
	assert.Same(t, sym, cleaned[0])

	gc.Collect()
	assert.Len(t, cleaned, 1, "hook must not fire again for an already-freed unit")
}

func TestUntrackedSlotIsNotFollowed(t *testing.T) {
	p := NewPool(DefaultConfig())
	gc := NewCollector(p)

	child := p.AllocStub(FlavorStrand, 0, false)
	Manage(child)

	holder := p.AllocStub(FlavorArray, 1, false)
	Manage(holder)
	c, err := holder.PushTail()
	require.NoError(t, err)
	InitInteger(c, 1)
	// stash an untracked reference; the flags are authoritative
	c.Slot2().SetRef(child)
	require.False(t, c.Track2())

	gc.AddRootSource(&rootList{nodes: []Node{holder}})
	gc.Collect()
	assert.Equal(t, 1, p.Stats().LiveStubs, "untracked references do not pin")
}
