package heap

import (
	"time"

	"github.com/tliron/commonlog"
)

// A RootSource enumerates references pinned against collection: native
// guard lists, API root handles, the interned-symbol table. Sources are
// registered once on the collector and visited at the start of every
// cycle.
type RootSource interface {
	VisitRoots(visit func(Node))
}

// A CleanupFunc is a flavor-specific pre-reclaim hook, run on a stub
// after it loses the mark race and before its unit returns to the pool
// (e.g. detaching an interned symbol from its lookup table, unlinking a
// module variable from its per-symbol chain).
type CleanupFunc func(*Stub)

// CycleStats describes one completed collection cycle.
type CycleStats struct {
	Cycle         uint64
	Marked        int
	KeptStubs     int
	SweptStubs    int
	SweptPairings int
	Duration      time.Duration
}

// Collector runs stop-the-world mark-and-sweep over one pool. Nodes go
// White (default) to Black (marked); there is no gray set — the sticky
// mark bit short-circuits re-visits, which is what makes cyclic
// reference graphs safe to traverse without an auxiliary visited-set.
// Anything still white at sweep time is reclaimed unless it is
// unmanaged (manually owned) or rooted.
type Collector struct {
	pool     *Pool
	roots    []RootSource
	guards   []Node
	cleanups [flavorMax]CleanupFunc

	log    commonlog.Logger
	debug  bool
	cycles uint64
	last   CycleStats
	marked int
}

// NewCollector returns a collector for the given pool.
func NewCollector(pool *Pool) *Collector {
	return &Collector{
		pool:  pool,
		log:   commonlog.GetLogger("cellar.gc"),
		debug: pool.cfg.GCDebug,
	}
}

// AddRootSource registers an enumerable provider of root references.
func (gc *Collector) AddRootSource(r RootSource) {
	gc.roots = append(gc.roots, r)
}

// SetCleanup installs the pre-reclaim hook for a flavor.
func (gc *Collector) SetCleanup(f Flavor, fn CleanupFunc) {
	gc.cleanups[f] = fn
}

// Guard pushes n onto the guard list, keeping it alive across
// allocating calls even though it is not yet reachable from any managed
// cell. Native code must guard (or immediately manage) every fresh stub
// it holds across a call that could trigger a cycle.
func (gc *Collector) Guard(n Node) {
	gc.guards = append(gc.guards, n)
}

// Unguard pops n from the guard list. Guards nest; n must be the most
// recently pushed guard.
func (gc *Collector) Unguard(n Node) {
	if len(gc.guards) == 0 || gc.guards[len(gc.guards)-1] != n {
		panic("unguard out of order")
	}
	gc.guards = gc.guards[:len(gc.guards)-1]
}

// GuardDepth returns the current guard list depth.
func (gc *Collector) GuardDepth() int { return len(gc.guards) }

// Collect runs one full cycle to completion. There is no incremental or
// concurrent marking, and therefore no write barrier: the single
// mutator is stopped for the duration.
func (gc *Collector) Collect() CycleStats {
	start := time.Now()
	gc.cycles++
	gc.marked = 0

	// mark phase: seed from the registered sources, the guard list, and
	// any node carrying the root bit
	for _, r := range gc.roots {
		r.VisitRoots(gc.markNode)
	}
	for _, n := range gc.guards {
		gc.markNode(n)
	}
	gc.pool.ForEachStub(func(s *Stub) {
		if IsRoot(s) {
			gc.markNode(s)
		}
	})
	gc.pool.ForEachPairing(func(pr *Pairing) {
		if IsRoot(pr) {
			gc.markNode(pr)
		}
	})

	// sweep phase
	stats := CycleStats{Cycle: gc.cycles, Marked: gc.marked}
	var doomedStubs []*Stub
	var doomedPairs []*Pairing
	gc.pool.ForEachStub(func(s *Stub) {
		if isMarked(s) {
			clearMark(s)
			stats.KeptStubs++
			return
		}
		if !IsManaged(s) || IsRoot(s) {
			stats.KeptStubs++
			return
		}
		doomedStubs = append(doomedStubs, s)
	})
	gc.pool.ForEachPairing(func(pr *Pairing) {
		if isMarked(pr) {
			clearMark(pr)
			return
		}
		if !IsManaged(pr) || IsRoot(pr) {
			return
		}
		doomedPairs = append(doomedPairs, pr)
	})

	// cleanup hooks run while every doomed node is still intact, so a
	// hook may follow references into other doomed nodes
	for _, s := range doomedStubs {
		if fn := gc.cleanups[s.flavor]; fn != nil {
			fn(s)
		}
	}
	for _, s := range doomedStubs {
		gc.pool.FreeStub(s)
	}
	for _, pr := range doomedPairs {
		gc.pool.FreePairing(pr)
	}

	stats.SweptStubs = len(doomedStubs)
	stats.SweptPairings = len(doomedPairs)
	stats.Duration = time.Since(start)
	gc.last = stats

	if gc.debug {
		gc.log.Debugf("cycle %d: marked %d, kept %d, swept %d stubs + %d pairings in %s",
			stats.Cycle, stats.Marked, stats.KeptStubs, stats.SweptStubs,
			stats.SweptPairings, stats.Duration)
	}
	return stats
}

// LastStats returns the most recent cycle's statistics.
func (gc *Collector) LastStats() CycleStats { return gc.last }

// Cycles returns the number of completed collection cycles.
func (gc *Collector) Cycles() uint64 { return gc.cycles }

func (gc *Collector) markNode(n Node) {
	if n == nil || isMarked(n) {
		return
	}
	setMark(n)
	gc.marked++
	switch t := n.(type) {
	case *Stub:
		gc.markStub(t)
	case *Pairing:
		gc.markCell(&t.cells[0])
		gc.markCell(&t.cells[1])
	}
}

func (gc *Collector) markStub(s *Stub) {
	if s.LinkTrack() {
		gc.markNode(s.link.Ref())
	}
	if s.MiscTrack() {
		gc.markNode(s.misc.Ref())
	}
	if s.flavor.CellWidth() {
		cells := s.Head()
		for i := range cells {
			gc.markCell(&cells[i])
		}
	}
}

// markCell visits a cell's two generic slots per their track flags, and
// its binding when the heart is bindable. The flags are authoritative:
// an untracked slot is never followed, whatever it holds.
func (gc *Collector) markCell(c *Cell) {
	if c.Track1() {
		gc.markNode(c.slot1.Ref())
	}
	if c.Track2() {
		gc.markNode(c.slot2.Ref())
	}
	if c.Heart().Bindable() {
		gc.markNode(c.aux.Ref())
	}
}
