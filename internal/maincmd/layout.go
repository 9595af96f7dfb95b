package maincmd

import (
	"context"
	"fmt"

	"github.com/metaeducation/cellar/lang/heap"
	"github.com/metaeducation/cellar/lang/node"
	"github.com/mna/mainer"
)

// Layout prints the byte-level registries of the heap: the node
// discriminator convention, the heart table, and the stub flavor table.
// The output is deterministic and diffed by tests.
func (c *Cmd) Layout(ctx context.Context, stdio mainer.Stdio, args []string) error {
	w := stdio.Stdout

	fmt.Fprintln(w, "node base byte (high bit to low bit: 1 0 cell managed root marked track1 track2)")
	fmt.Fprintf(w, "  cell pattern      %#02x\n", node.BaseCell)
	fmt.Fprintf(w, "  stub pattern      %#02x\n", node.BaseStub)
	fmt.Fprintf(w, "  wildcard          %#02x\n", node.Wildcard)
	fmt.Fprintf(w, "  free unit         %#02x\n", node.FreeUnit)
	fmt.Fprintf(w, "  end signal        %#02x\n", node.EndSignal)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "hearts (kind byte, low 6 bits)")
	for _, h := range heap.Hearts() {
		fmt.Fprintf(w, "  %2d %s", byte(h), h)
		if h.Bindable() {
			fmt.Fprint(w, " (bindable)")
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "stub flavors")
	for _, f := range heap.Flavors() {
		width := "bytes"
		if f.CellWidth() {
			width = "cells"
		}
		fmt.Fprintf(w, "  %2d %s: %s", byte(f), f, width)
		if f.ForceDynamic() {
			fmt.Fprint(w, ", always dynamic")
		}
		fmt.Fprintln(w)
	}
	return nil
}
