package maincmd_test

import (
	"bytes"
	"context"
	"flag"
	"testing"

	"github.com/metaeducation/cellar/internal/filetest"
	"github.com/metaeducation/cellar/internal/maincmd"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpdateLayoutTests = flag.Bool("test.update-layout-tests", false, "If set, replace expected layout test results with actual results.")

func TestLayoutGolden(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{
		Stdout: &buf,
		Stderr: &ebuf,
	}

	var c maincmd.Cmd
	require.NoError(t, c.Layout(context.Background(), stdio, nil))
	filetest.Golden(t, "testdata", "layout", buf.String(), testUpdateLayoutTests)
}

func TestStressSmoke(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{
		Stdout: &buf,
		Stderr: &ebuf,
	}

	c := maincmd.Cmd{Cycles: 2, Stubs: 30}
	require.NoError(t, c.Stress(context.Background(), stdio, nil))
	assert.Contains(t, buf.String(), "cycle 1:")
	assert.Contains(t, buf.String(), "live stubs:")
	assert.Empty(t, ebuf.String())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		flags   map[string]bool
		wantErr string
	}{
		{name: "no command", args: nil, wantErr: "no command specified"},
		{name: "unknown", args: []string{"nope"}, wantErr: "unknown command"},
		{name: "layout", args: []string{"layout"}},
		{name: "stress", args: []string{"stress"}},
		{name: "stress flags", args: []string{"stress"}, flags: map[string]bool{"cycles": true, "stubs": true}},
		{name: "layout with stress flag", args: []string{"layout"}, flags: map[string]bool{"cycles": true}, wantErr: "invalid flag"},
		{name: "bad cycles", args: []string{"stress"}, flags: map[string]bool{"cycles": true}, wantErr: "cycles must be positive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := maincmd.Cmd{}
			if tc.name == "stress flags" {
				c.Cycles, c.Stubs = 1, 1
			}
			c.SetArgs(tc.args)
			c.SetFlags(tc.flags)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
