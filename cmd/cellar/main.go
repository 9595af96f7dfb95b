package main

import (
	"os"

	"github.com/metaeducation/cellar/internal/maincmd"
	"github.com/mna/mainer"

	_ "github.com/tliron/commonlog/simple"
)

var (
	// placeholder values, replaced on build
	version   = "{v}" // must be N.N[.N]
	buildDate = "{d}" // must be YYYY-mm-DD
)

func main() {
	c := maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
