package heap

import (
	"fmt"

	"github.com/metaeducation/cellar/lang/node"
)

// policy carries the tuning knobs growth operations consult, plus the
// counters they maintain. Stubs hold a pointer to their pool's policy;
// it is not part of the node layout contract.
type policy struct {
	biasWindow     int
	embedThreshold int

	expansions uint64
	recenters  uint64
}

// PoolStats is a snapshot of a pool's allocation counters.
type PoolStats struct {
	LiveStubs    int
	LivePairings int
	TotalAllocs  uint64
	TotalFrees   uint64
	Segments     int
	Expansions   uint64
	Recenters    uint64
}

// A Pool is the fixed-unit allocator backing every stub and pairing of
// one runtime instance. It is deliberately not process-global: each
// Runtime owns its own pool, and there is exactly one mutator per
// instance, so no locking is done. Units are recycled through free
// lists; freed units are stamped with the free sentinel byte so a full
// enumeration (the sweep) can skip them.
type Pool struct {
	cfg Config
	pol policy

	stubSegs [][]Stub
	stubFree []*Stub
	pairSegs [][]Pairing
	pairFree []*Pairing

	nextSeq     uint32
	liveStubs   int
	livePairs   int
	totalAllocs uint64
	totalFrees  uint64
}

// NewPool returns an empty pool tuned by cfg.
func NewPool(cfg Config) *Pool {
	cfg.normalize()
	return &Pool{
		cfg: cfg,
		pol: policy{
			biasWindow:     cfg.BiasWindow,
			embedThreshold: cfg.EmbedThreshold,
		},
	}
}

func (p *Pool) growStubs() {
	seg := make([]Stub, p.cfg.SegmentUnits)
	p.stubSegs = append(p.stubSegs, seg)
	for i := range seg {
		seg[i].base = node.FreeUnit
		p.stubFree = append(p.stubFree, &seg[i])
	}
}

func (p *Pool) growPairs() {
	seg := make([]Pairing, p.cfg.SegmentUnits)
	p.pairSegs = append(p.pairSegs, seg)
	for i := range seg {
		seg[i].cells[0].base = node.FreeUnit
		p.pairFree = append(p.pairFree, &seg[i])
	}
}

// AllocStub produces a fresh, unmanaged stub of the given flavor with
// room for capacity elements. The content representation is chosen here
// and from then on every accessor branches on it internally: embedded
// when the request fits and neither the flavor nor forceDynamic demands
// a dynamic allocation.
func (p *Pool) AllocStub(f Flavor, capacity int, forceDynamic bool) *Stub {
	if f == FlavorUnused || f >= flavorMax {
		panic(fmt.Sprintf("allocation of invalid flavor %d", f))
	}
	if capacity < 0 || capacity > maxStubCap {
		panic(fmt.Sprintf("stub capacity %d beyond addressable range", capacity))
	}
	if len(p.stubFree) == 0 {
		p.growStubs()
	}
	s := p.stubFree[len(p.stubFree)-1]
	p.stubFree = p.stubFree[:len(p.stubFree)-1]

	p.nextSeq++
	*s = Stub{
		base:   node.BaseStub,
		flavor: f,
		seq:    p.nextSeq,
		pol:    &p.pol,
	}

	fi := flavorInfo[f]
	if fi.linkTrack {
		s.base |= node.FlagTrack1
	}
	if fi.miscTrack {
		s.base |= node.FlagTrack2
	}

	dyn := forceDynamic || fi.forceDynamic
	if fi.cellWidth {
		dyn = dyn || capacity > 1
	} else {
		dyn = dyn || capacity > p.pol.embedThreshold
	}
	if dyn {
		s.flags |= stubDynamic
		n := capacity
		if n < minDynCap {
			n = minDynCap
		}
		if fi.cellWidth {
			s.cells = make([]Cell, n)
		} else {
			s.bytes = make([]byte, n)
		}
	}

	p.liveStubs++
	p.totalAllocs++
	return s
}

// AllocPairing produces a fresh, unmanaged pairing: two contiguous
// blank cells in one pool unit. Pairings never grow.
func (p *Pool) AllocPairing() *Pairing {
	if len(p.pairFree) == 0 {
		p.growPairs()
	}
	pr := p.pairFree[len(p.pairFree)-1]
	p.pairFree = p.pairFree[:len(p.pairFree)-1]

	*pr = Pairing{}
	InitBlank(&pr.cells[0])
	InitBlank(&pr.cells[1])

	p.livePairs++
	p.totalAllocs++
	return pr
}

// FreeStub returns a stub unit to the pool. The unit is stamped with
// the free sentinel and its references dropped.
func (p *Pool) FreeStub(s *Stub) {
	if isFreeUnit(s) {
		panic("double free of stub unit")
	}
	*s = Stub{base: node.FreeUnit}
	p.stubFree = append(p.stubFree, s)
	p.liveStubs--
	p.totalFrees++
}

// FreePairing returns a pairing unit to the pool.
func (p *Pool) FreePairing(pr *Pairing) {
	if isFreeUnit(pr) {
		panic("double free of pairing unit")
	}
	*pr = Pairing{}
	pr.cells[0].base = node.FreeUnit
	p.pairFree = append(p.pairFree, pr)
	p.livePairs--
	p.totalFrees++
}

// ForEachStub calls fn for every live stub unit. This is the sweep's
// enumeration; free units are skipped by their sentinel byte.
func (p *Pool) ForEachStub(fn func(*Stub)) {
	for _, seg := range p.stubSegs {
		for i := range seg {
			if !node.IsFree(seg[i].base) {
				fn(&seg[i])
			}
		}
	}
}

// ForEachPairing calls fn for every live pairing unit.
func (p *Pool) ForEachPairing(fn func(*Pairing)) {
	for _, seg := range p.pairSegs {
		for i := range seg {
			if !node.IsFree(seg[i].cells[0].base) {
				fn(&seg[i])
			}
		}
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		LiveStubs:    p.liveStubs,
		LivePairings: p.livePairs,
		TotalAllocs:  p.totalAllocs,
		TotalFrees:   p.totalFrees,
		Segments:     len(p.stubSegs) + len(p.pairSegs),
		Expansions:   p.pol.expansions,
		Recenters:    p.pol.recenters,
	}
}

// Config returns the pool's effective configuration.
func (p *Pool) Config() Config { return p.cfg }

// A Pairing is two contiguous cells allocated as one pool unit: the
// cheapest aggregate there is, fixed size, no growth. Its node
// bookkeeping (managed/root/marked) lives on the first cell's base byte.
type Pairing struct {
	cells [2]Cell
}

func (pr *Pairing) nodeBase() *byte { return &pr.cells[0].base }

// First returns the pairing's first cell.
func (pr *Pairing) First() *Cell { return &pr.cells[0] }

// Second returns the pairing's second cell.
func (pr *Pairing) Second() *Cell { return &pr.cells[1] }
