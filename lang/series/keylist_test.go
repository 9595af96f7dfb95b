package series

import (
	"testing"

	"github.com/metaeducation/cellar/lang/heap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAppendLookup(t *testing.T) {
	p := heap.NewPool(heap.DefaultConfig())
	tbl := NewInterns(p)

	ctx, err := NewContext(p, heap.HeartObject, 2)
	require.NoError(t, err)
	assert.Zero(t, ctx.Len())
	assert.Equal(t, heap.HeartObject, ctx.Archetype().Heart())
	assert.Same(t, ctx.V, ctx.Archetype().Slot1().Stub(), "archetype references its own varlist")

	name := tbl.Intern("name")
	c, err := ctx.Append(p, name)
	require.NoError(t, err)
	heap.InitInteger(c, 1)

	age := tbl.Intern("age")
	c, err = ctx.Append(p, age)
	require.NoError(t, err)
	heap.InitInteger(c, 2)

	assert.Equal(t, 2, ctx.Len())
	assert.Equal(t, 1, ctx.Index(name))
	assert.Equal(t, 2, ctx.Index(age))
	assert.Same(t, name.S, ctx.KeyAt(1).S)
	assert.EqualValues(t, 2, ctx.VarAt(2).Int())

	// lookup folds case through the symbol rings
	assert.Equal(t, 1, ctx.Index(tbl.Intern("NAME")))
	assert.Nil(t, ctx.Lookup(tbl.Intern("missing")))
}

func TestContextDeriveSharesKeys(t *testing.T) {
	p := heap.NewPool(heap.DefaultConfig())
	tbl := NewInterns(p)

	parent, err := NewContext(p, heap.HeartObject, 1)
	require.NoError(t, err)
	x := tbl.Intern("x")
	c, err := parent.Append(p, x)
	require.NoError(t, err)
	heap.InitInteger(c, 10)

	child, err := parent.Derive(p, heap.HeartObject)
	require.NoError(t, err)
	assert.Same(t, parent.Keys(), child.Keys(), "derivation shares the keylist")
	assert.True(t, parent.Keys().IsShared())
	assert.EqualValues(t, 10, child.VarAt(1).Int(), "variables are copied")

	// the copies are independent
	heap.InitInteger(child.VarAt(1), 11)
	assert.EqualValues(t, 10, parent.VarAt(1).Int())
}

func TestContextExpandCopiesOnWrite(t *testing.T) {
	p := heap.NewPool(heap.DefaultConfig())
	tbl := NewInterns(p)

	parent, err := NewContext(p, heap.HeartObject, 1)
	require.NoError(t, err)
	_, err = parent.Append(p, tbl.Intern("x"))
	require.NoError(t, err)

	child, err := parent.Derive(p, heap.HeartObject)
	require.NoError(t, err)
	shared := parent.Keys()

	_, err = child.Append(p, tbl.Intern("y"))
	require.NoError(t, err)

	assert.NotSame(t, shared, child.Keys(), "expanding side clones its keylist")
	assert.Same(t, shared, parent.Keys(), "the other side is untouched")
	assert.Equal(t, 1, parent.Len())
	assert.Equal(t, 2, child.Len())
	assert.Equal(t, 2, child.Index(tbl.Intern("y")))
	assert.Equal(t, 1, child.Index(tbl.Intern("x")), "cloned keys keep their positions")
}
