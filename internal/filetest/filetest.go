// Package filetest compares command output against golden files and
// regenerates them on demand.
package filetest

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
)

var testUpdateAllTests = flag.Bool("test.update-all-tests", false, "If set, sets all test.update-*-tests.")

// Golden validates that output matches the golden file
// <dir>/<name>.want. If updateFlag (or test.update-all-tests) is set,
// it rewrites the golden file with output instead.
func Golden(t *testing.T, dir, name, output string, updateFlag *bool) {
	t.Helper()

	goldFile := filepath.Join(dir, name+".want")
	if *updateFlag || *testUpdateAllTests {
		if err := os.WriteFile(goldFile, []byte(output), 0600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	want := string(wantb)
	if testing.Verbose() {
		t.Logf("got:\n%s\n", output)
	}
	if patch := diff.Diff(want, output); patch != "" {
		if testing.Verbose() {
			t.Logf("want:\n%s\n", want)
		}
		t.Errorf("diff:\n%s\n", patch)
	}
}
