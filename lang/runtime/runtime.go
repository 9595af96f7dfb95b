// Package runtime assembles the pieces of a value heap into one usable
// instance: a pool, a collector over it, and the interned-symbol table,
// with the collector hooks wired so symbols and module variables stay
// consistent across cycles. Instances are independent; nothing here is
// process-global.
package runtime

import (
	"github.com/metaeducation/cellar/lang/heap"
	"github.com/metaeducation/cellar/lang/series"
)

type Runtime struct {
	Pool    *heap.Pool
	GC      *heap.Collector
	Symbols *series.Interns
}

// New builds a runtime with the given tuning.
func New(cfg heap.Config) *Runtime {
	pool := heap.NewPool(cfg)
	gc := heap.NewCollector(pool)
	syms := series.NewInterns(pool)

	gc.AddRootSource(syms)
	gc.SetCleanup(heap.FlavorSymbol, syms.CleanupSymbol)
	gc.SetCleanup(heap.FlavorPatch, series.CleanupPatch)

	return &Runtime{Pool: pool, GC: gc, Symbols: syms}
}

// NewFromEnv builds a runtime tuned by CELLAR_* environment variables.
func NewFromEnv() (*Runtime, error) {
	cfg, err := heap.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// Intern returns the symbol for spelling.
func (r *Runtime) Intern(spelling string) series.Symbol {
	return r.Symbols.Intern(spelling)
}

// NewModule allocates a managed module variable space.
func (r *Runtime) NewModule() (series.Sea, error) {
	sea, err := series.NewSea(r.Pool)
	if err != nil {
		return series.Sea{}, err
	}
	heap.Manage(sea.S)
	return sea, nil
}

// DropModule unhitches every variable of sea so the next cycle can
// reclaim it.
func (r *Runtime) DropModule(sea series.Sea) {
	sea.Destroy(r.Symbols)
}

// Collect runs one collection cycle.
func (r *Runtime) Collect() heap.CycleStats {
	return r.GC.Collect()
}

// Stats returns the pool's allocation counters.
func (r *Runtime) Stats() heap.PoolStats {
	return r.Pool.Stats()
}
