package series

import (
	"github.com/metaeducation/cellar/lang/heap"
)

// A Context pairs a varlist with a keylist. The varlist's first cell is
// the archetype (a context cell referencing the varlist itself), so
// variable n lives at varlist index n and its key at keylist index n-1.
// Both stubs force dynamic content: compiled references address
// variables positionally and the data must survive any stub motion.
//
// Keylists are shared between a context and the contexts derived from
// it until one side needs to add a key, at which point the expanding
// side clones its own copy.
type Context struct {
	V *heap.Stub
}

// NewContext allocates an unmanaged context whose archetype has the
// given heart (object, module, frame) and room for capacity variables.
func NewContext(p *heap.Pool, h heap.Heart, capacity int) (Context, error) {
	v := p.AllocStub(heap.FlavorVarList, capacity+1, false)
	arch, err := v.PushTail()
	if err != nil {
		return Context{}, err
	}
	heap.InitContext(arch, h, v)

	keys := p.AllocStub(heap.FlavorKeyList, capacity, false)
	v.SetLinkRef(keys)
	return Context{V: v}, nil
}

// Keys returns the keylist stub.
func (c Context) Keys() *heap.Stub { return c.V.Link().Stub() }

// Archetype returns the context's self-referencing cell.
func (c Context) Archetype() *heap.Cell { return c.V.At(0) }

// Len returns the number of variables.
func (c Context) Len() int { return c.V.Len() - 1 }

// KeyAt returns the symbol of variable i (1-based, like VarAt).
func (c Context) KeyAt(i int) Symbol {
	return Symbol{S: c.Keys().At(i - 1).Slot1().Stub()}
}

// VarAt returns the cell of variable i (1-based; index 0 is the
// archetype).
func (c Context) VarAt(i int) *heap.Cell { return c.V.At(i) }

// Index returns the 1-based position of the variable spelled sym,
// ignoring case, or 0 when absent.
func (c Context) Index(sym Symbol) int {
	keys := c.Keys()
	for i := 0; i < keys.Len(); i++ {
		if (Symbol{S: keys.At(i).Slot1().Stub()}).SameFold(sym) {
			return i + 1
		}
	}
	return 0
}

// Lookup returns the variable cell spelled sym, or nil.
func (c Context) Lookup(sym Symbol) *heap.Cell {
	if i := c.Index(sym); i != 0 {
		return c.V.At(i)
	}
	return nil
}

// Append adds a variable spelled sym and returns its blank cell. Adding
// to a context whose keylist is shared clones the keylist first, so
// sibling contexts are unaffected.
func (c Context) Append(p *heap.Pool, sym Symbol) (*heap.Cell, error) {
	keys, err := c.mutableKeys(p)
	if err != nil {
		return nil, err
	}
	kc, err := keys.PushTail()
	if err != nil {
		return nil, err
	}
	heap.InitWord(kc, sym.S)
	return c.V.PushTail()
}

// mutableKeys returns the keylist, cloning it when shared.
func (c Context) mutableKeys(p *heap.Pool) (*heap.Stub, error) {
	keys := c.Keys()
	if !keys.IsShared() {
		return keys, nil
	}
	clone := p.AllocStub(heap.FlavorKeyList, keys.Len()+1, false)
	for i := 0; i < keys.Len(); i++ {
		kc, err := clone.PushTail()
		if err != nil {
			return nil, err
		}
		if err := kc.Copy(keys.At(i)); err != nil {
			return nil, err
		}
	}
	if heap.IsManaged(c.V) {
		heap.Manage(clone)
	}
	c.V.SetLinkRef(clone)
	return clone, nil
}

// Derive allocates a new context with the same keys and a copy of the
// variables, sharing the keylist copy-on-write with the parent.
func (c Context) Derive(p *heap.Pool, h heap.Heart) (Context, error) {
	v := p.AllocStub(heap.FlavorVarList, c.V.Len(), false)
	arch, err := v.PushTail()
	if err != nil {
		return Context{}, err
	}
	heap.InitContext(arch, h, v)
	for i := 1; i < c.V.Len(); i++ {
		dst, err := v.PushTail()
		if err != nil {
			return Context{}, err
		}
		if err := dst.Copy(c.V.At(i)); err != nil {
			return Context{}, err
		}
	}
	keys := c.Keys()
	keys.SetShared(true)
	v.SetLinkRef(keys)
	return Context{V: v}, nil
}
