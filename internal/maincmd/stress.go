package maincmd

import (
	"context"
	"fmt"

	"github.com/metaeducation/cellar/lang/heap"
	"github.com/metaeducation/cellar/lang/runtime"
	"github.com/metaeducation/cellar/lang/series"
	"github.com/mna/mainer"
)

const (
	defaultStressCycles = 10
	defaultStressStubs  = 1000
)

// Stress churns the heap: each round allocates a batch of managed
// arrays, strands, and module variables, keeps a fraction reachable, and
// runs a collection. The final pool counters go to stdout; they are the
// quickest way to see bias and expansion behavior under CELLAR_* tuning.
func (c *Cmd) Stress(ctx context.Context, stdio mainer.Stdio, args []string) error {
	cycles := c.Cycles
	if cycles == 0 {
		cycles = defaultStressCycles
	}
	stubs := c.Stubs
	if stubs == 0 {
		stubs = defaultStressStubs
	}

	rt, err := runtime.NewFromEnv()
	if err != nil {
		return printError(stdio, err)
	}
	mod, err := rt.NewModule()
	if err != nil {
		return printError(stdio, err)
	}

	keep := series.NewArray(rt.Pool, stubs)
	heap.Manage(keep.S)
	heap.SetRoot(keep.S, true)

	var scratch heap.Cell
	for i := 0; i < cycles; i++ {
		select {
		case <-ctx.Done():
			return printError(stdio, ctx.Err())
		default:
		}

		for j := 0; j < stubs; j++ {
			switch j % 3 {
			case 0: // array churn: head/tail deque traffic
				a := series.NewArray(rt.Pool, 4)
				heap.Manage(a.S)
				for k := 0; k < 8; k++ {
					cell, err := a.Push()
					if err != nil {
						return printError(stdio, err)
					}
					heap.InitInteger(cell, int64(k))
				}
				if err := a.S.RemoveHead(4); err != nil {
					return printError(stdio, err)
				}
				if j%30 == 0 { // every tenth array survives the round
					cell, err := keep.Push()
					if err != nil {
						return printError(stdio, err)
					}
					heap.InitList(cell, heap.HeartBlock, a.S, 0)
				}
			case 1: // strand churn across the embed threshold
				s, err := series.NewStrand(rt.Pool, "stress")
				if err != nil {
					return printError(stdio, err)
				}
				heap.Manage(s.S)
				if err := s.Append("-payload-that-exceeds-the-embedded-buffer"); err != nil {
					return printError(stdio, err)
				}
				if _, err := s.TakeHead(7); err != nil {
					return printError(stdio, err)
				}
			case 2: // module variable traffic
				sym := rt.Intern(fmt.Sprintf("var-%d", j%97))
				heap.InitInteger(&scratch, int64(i*stubs+j))
				if _, err := mod.Set(rt.Pool, sym, &scratch); err != nil {
					return printError(stdio, err)
				}
			}
		}

		st := rt.Collect()
		fmt.Fprintf(stdio.Stdout, "cycle %d: marked %d, swept %d stubs in %s\n",
			st.Cycle, st.Marked, st.SweptStubs, st.Duration)
	}

	ps := rt.Stats()
	fmt.Fprintf(stdio.Stdout, "live stubs:    %d\n", ps.LiveStubs)
	fmt.Fprintf(stdio.Stdout, "total allocs:  %d\n", ps.TotalAllocs)
	fmt.Fprintf(stdio.Stdout, "total frees:   %d\n", ps.TotalFrees)
	fmt.Fprintf(stdio.Stdout, "segments:      %d\n", ps.Segments)
	fmt.Fprintf(stdio.Stdout, "expansions:    %d\n", ps.Expansions)
	fmt.Fprintf(stdio.Stdout, "recenters:     %d\n", ps.Recenters)
	fmt.Fprintf(stdio.Stdout, "symbols:       %d\n", rt.Symbols.Count())
	return nil
}
