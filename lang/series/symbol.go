package series

import (
	"strings"

	"github.com/dolthub/swiss"
	"github.com/metaeducation/cellar/lang/heap"
)

// A Symbol is an interned, immutable spelling. Any-case variants of the
// same word are linked into a circular case ring through the Misc slot,
// with exactly one member flagged canonical; word cells point at their
// exact-case symbol and case-insensitive comparison reduces both sides
// to the ring's canonical member. The Link slot heads the hitch ring of
// module variables attached to this spelling (see Sea); an unhitched
// symbol links to itself.
type Symbol struct {
	S *heap.Stub
}

// Spelling returns the exact-case spelling.
func (s Symbol) Spelling() string { return string(s.S.Bytes()) }

// IsCanon reports whether this member is its case ring's canonical one.
func (s Symbol) IsCanon() bool { return s.S.IsCanon() }

// NextCase returns the next member of the case ring. A symbol with no
// case variants is its own neighbor.
func (s Symbol) NextCase() Symbol { return Symbol{S: s.S.Misc().Stub()} }

// Canon returns the canonical member of the case ring.
func (s Symbol) Canon() Symbol {
	c := s
	for !c.IsCanon() {
		c = c.NextCase()
		if c.S == s.S {
			break // unreachable unless the ring is corrupt
		}
	}
	return c
}

// SameFold reports whether two symbols spell the same word ignoring
// case, which for interned symbols is ring membership.
func (s Symbol) SameFold(o Symbol) bool { return s.Canon().S == o.Canon().S }

// Hitched reports whether any module variable is attached to this
// spelling.
func (s Symbol) Hitched() bool { return s.S.Link().Stub() != s.S }

// Interns is the process-wide symbol table: one entry per exact
// spelling, plus a fold index giving each case class its canonical
// member. Symbols are managed nodes and the table holds them weakly; the
// collector's symbol cleanup hook keeps the table consistent when an
// unreferenced ring is reclaimed. Only hitched symbols are reported as
// roots, so a spelling that merely passed through the scanner does not
// accumulate forever.
type Interns struct {
	pool       *heap.Pool
	bySpelling *swiss.Map[string, *heap.Stub]
	byFold     *swiss.Map[string, *heap.Stub]
}

// NewInterns returns an empty symbol table drawing from p.
func NewInterns(p *heap.Pool) *Interns {
	return &Interns{
		pool:       p,
		bySpelling: swiss.NewMap[string, *heap.Stub](64),
		byFold:     swiss.NewMap[string, *heap.Stub](64),
	}
}

// Count returns the number of interned spellings.
func (t *Interns) Count() int { return t.bySpelling.Count() }

// Intern returns the symbol for spelling, creating and ring-linking it
// on first sight. Repeated calls with the same spelling return the same
// stub, which is what makes word comparison pointer-cheap.
func (t *Interns) Intern(spelling string) Symbol {
	if s, ok := t.bySpelling.Get(spelling); ok {
		return Symbol{S: s}
	}

	s := t.pool.AllocStub(heap.FlavorSymbol, len(spelling), false)
	if err := s.AppendBytes([]byte(spelling)); err != nil {
		panic("fresh symbol rejected its spelling: " + err.Error())
	}
	s.Freeze()
	s.SetLinkRef(s) // no variables hitched yet
	heap.Manage(s)

	fold := strings.ToLower(spelling)
	if canon, ok := t.byFold.Get(fold); ok {
		// splice behind the canonical member
		s.SetMiscRef(canon.Misc().Ref())
		canon.SetMiscRef(s)
	} else {
		s.SetMiscRef(s)
		s.SetCanon(true)
		t.byFold.Put(fold, s)
	}
	t.bySpelling.Put(spelling, s)
	return Symbol{S: s}
}

// Lookup returns the symbol for spelling without creating it.
func (t *Interns) Lookup(spelling string) (Symbol, bool) {
	s, ok := t.bySpelling.Get(spelling)
	return Symbol{S: s}, ok
}

// VisitRoots reports hitched symbols to the collector. Unhitched
// spellings stay weak and are reclaimed when no cell references their
// ring.
func (t *Interns) VisitRoots(visit func(heap.Node)) {
	t.bySpelling.Iter(func(_ string, s *heap.Stub) bool {
		if s.Link().Stub() != s {
			visit(s)
		}
		return false
	})
}

// CleanupSymbol is the collector hook detaching a reclaimed symbol from
// the table and from its case ring. Ring members keep each other alive,
// so a doomed ring is always reclaimed whole within one cycle; hooks run
// before any unit is freed, which keeps the Misc walk safe.
func (t *Interns) CleanupSymbol(s *heap.Stub) {
	spelling := string(s.Bytes())
	t.bySpelling.Delete(spelling)

	fold := strings.ToLower(spelling)
	next := s.Misc().Stub()
	if next == s {
		if canon, ok := t.byFold.Get(fold); ok && canon == s {
			t.byFold.Delete(fold)
		}
		return
	}

	// unlink from the ring
	prev := next
	for prev.Misc().Stub() != s {
		prev = prev.Misc().Stub()
	}
	prev.SetMiscRef(next)

	if s.IsCanon() {
		next.SetCanon(true)
		t.byFold.Put(fold, next)
	}
}
