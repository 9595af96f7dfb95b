package series

import (
	"github.com/metaeducation/cellar/lang/heap"
	"golang.org/x/exp/slices"
)

// A Sea is a module's variable space. Unlike an object context, which
// packs its variables into one positionally addressed varlist, a module
// holds each variable in its own patch stub, and the patches for one
// spelling across all modules form the spelling's hitch ring:
//
//	symbol.Link -> patch -> patch -> ... -> symbol
//
// Looking a word up in a module therefore walks the word's ring, not
// the module, so the cost scales with how many modules define the word
// rather than with the module's size. The sea stub itself only carries
// the module archetype cell; membership of a patch is recorded in the
// patch's Misc slot.
type Sea struct {
	S *heap.Stub
}

// NewSea allocates an unmanaged module variable space.
func NewSea(p *heap.Pool) (Sea, error) {
	s := p.AllocStub(heap.FlavorSea, 1, false)
	arch, err := s.PushTail()
	if err != nil {
		return Sea{}, err
	}
	heap.InitContext(arch, heap.HeartModule, s)
	return Sea{S: s}, nil
}

// Archetype returns the module's self-referencing cell.
func (sea Sea) Archetype() *heap.Cell { return sea.S.At(0) }

// A Patch is the single-variable stub holding one module-level
// variable. Its one embedded cell is the variable; Link is the next
// node of the hitch ring and Misc the owning sea. Word cells bound to a
// module variable bind directly to its patch.
type Patch struct {
	S *heap.Stub
}

// Cell returns the variable cell.
func (p Patch) Cell() *heap.Cell { return p.S.At(0) }

// Sea returns the module the variable belongs to.
func (p Patch) Sea() Sea { return Sea{S: p.S.Misc().Stub()} }

// Symbol walks the hitch ring to the spelling the patch is attached to.
// An unhitched patch has no spelling anymore.
func (p Patch) Symbol() (Symbol, bool) {
	n := p.S.Link().Stub()
	for n != p.S && n.Flavor() == heap.FlavorPatch {
		n = n.Link().Stub()
	}
	if n == p.S {
		return Symbol{}, false
	}
	return Symbol{S: n}, true
}

// findPatch walks sym's hitch ring for the patch belonging to sea.
func (sea Sea) findPatch(sym Symbol) (Patch, bool) {
	n := sym.S.Link().Stub()
	for n != sym.S {
		if n.Misc().Stub() == sea.S {
			return Patch{S: n}, true
		}
		n = n.Link().Stub()
	}
	return Patch{}, false
}

// Attach returns the patch for sym in this module, splicing a fresh one
// with a blank variable into the spelling's hitch ring if the module
// has no such variable yet. Creating the first patch of a ring is what
// makes the symbol a collector root.
func (sea Sea) Attach(p *heap.Pool, sym Symbol) (Patch, error) {
	if pt, ok := sea.findPatch(sym); ok {
		return pt, nil
	}
	s := p.AllocStub(heap.FlavorPatch, 1, false)
	if _, err := s.PushTail(); err != nil {
		return Patch{}, err
	}
	s.SetFixedSize()
	s.SetMiscRef(sea.S)
	s.SetLinkRef(sym.S.Link().Ref())
	sym.S.SetLinkRef(s)
	heap.Manage(s)
	return Patch{S: s}, nil
}

// Set copies val into the module variable spelled sym, creating it if
// needed, and returns its cell.
func (sea Sea) Set(p *heap.Pool, sym Symbol, val *heap.Cell) (*heap.Cell, error) {
	pt, err := sea.Attach(p, sym)
	if err != nil {
		return nil, err
	}
	if err := pt.Cell().Copy(val); err != nil {
		return nil, err
	}
	return pt.Cell(), nil
}

// Get returns the module variable cell spelled sym, or nil.
func (sea Sea) Get(sym Symbol) *heap.Cell {
	if pt, ok := sea.findPatch(sym); ok {
		return pt.Cell()
	}
	return nil
}

// Remove unhitches sym's variable from the module, reporting whether it
// existed. Words still bound to the patch keep the cell alive; the
// patch just stops being reachable through the spelling.
func (sea Sea) Remove(sym Symbol) bool {
	pt, ok := sea.findPatch(sym)
	if !ok {
		return false
	}
	unhitch(pt.S)
	return true
}

// unhitch splices a patch out of its ring. The predecessor is found by
// walking around; rings are short (one member per module defining the
// spelling).
func unhitch(patch *heap.Stub) {
	prev := patch.Link().Stub()
	for prev.Link().Stub() != patch {
		prev = prev.Link().Stub()
	}
	prev.SetLinkRef(patch.Link().Ref())
	patch.SetLinkRef(patch) // no longer in any ring
}

// CleanupPatch is the collector hook for reclaimed patches. A patch
// normally dies already unhitched; if the whole module went down with
// roots dropped wholesale, the patch may still sit in its ring and must
// be spliced out so the surviving spelling does not point at a freed
// unit.
func CleanupPatch(patch *heap.Stub) {
	if patch.Link().Stub() == patch {
		return
	}
	unhitch(patch)
}

// Enumerate returns the symbols with a variable in this module, sorted
// by spelling. The sea keeps no member list, so this scans the symbol
// table and tests each ring.
func (sea Sea) Enumerate(t *Interns) []Symbol {
	var syms []Symbol
	t.bySpelling.Iter(func(_ string, s *heap.Stub) bool {
		if _, ok := sea.findPatch(Symbol{S: s}); ok {
			syms = append(syms, Symbol{S: s})
		}
		return false
	})
	slices.SortFunc(syms, func(a, b Symbol) int {
		switch as, bs := a.Spelling(), b.Spelling(); {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
		return 0
	})
	return syms
}

// Destroy unhitches every variable of the module. A sea that is merely
// dropped without Destroy stays alive through its hitched spellings
// until the collector's patch cleanup runs.
func (sea Sea) Destroy(t *Interns) {
	for _, sym := range sea.Enumerate(t) {
		sea.Remove(sym)
	}
}
