package series

import (
	"github.com/metaeducation/cellar/lang/heap"
)

// Parameter class bits, packed into a parameter cell's second slot.
const (
	ParamNormal     uint64 = 1 << iota // evaluated argument
	ParamMeta                          // argument taken in its lifted form
	ParamRefinement                    // optional, named at the callsite
	ParamLocal                         // not an argument, starts unset
	ParamReturn                        // definitional return slot
)

// An Action is a callable: a details stub whose Info word selects the
// dispatcher, whose cells are the dispatcher's private state (body
// block, native index, whatever that dispatcher wants), and whose Link
// slot names the interface through a paramlist.
//
// The paramlist doubles as the keylist of every frame instantiated for
// the action: like a keylist, its cell at index n-1 describes variable
// n of the frame.
type Action struct {
	D *heap.Stub
}

// A Param describes one parameter of an action interface.
type Param struct {
	Name  Symbol
	Class uint64
}

// NewAction allocates an unmanaged action with the given interface and
// dispatcher selector. Details cells are pushed afterwards via
// PushDetail.
func NewAction(p *heap.Pool, params []Param, dispatcher uint64) (Action, error) {
	plist := p.AllocStub(heap.FlavorParamList, len(params), false)
	for _, prm := range params {
		c, err := plist.PushTail()
		if err != nil {
			return Action{}, err
		}
		heap.InitParameter(c, prm.Name.S, prm.Class)
	}
	plist.SetFixedSize()

	d := p.AllocStub(heap.FlavorDetails, 1, false)
	d.SetInfo(dispatcher)
	d.SetLinkRef(plist)
	return Action{D: d}, nil
}

// Dispatcher returns the dispatcher selector.
func (a Action) Dispatcher() uint64 { return a.D.Info() }

// Paramlist returns the interface stub.
func (a Action) Paramlist() *heap.Stub { return a.D.Link().Stub() }

// Arity returns the number of parameters, refinements and locals
// included.
func (a Action) Arity() int { return a.Paramlist().Len() }

// ParamAt returns the parameter describing frame variable i (1-based).
func (a Action) ParamAt(i int) Param {
	c := a.Paramlist().At(i - 1)
	return Param{Name: Symbol{S: c.Slot1().Stub()}, Class: c.Slot2().Bits()}
}

// PushDetail appends one dispatcher-private cell and returns it.
func (a Action) PushDetail() (*heap.Cell, error) { return a.D.PushTail() }

// DetailAt returns dispatcher-private cell i.
func (a Action) DetailAt(i int) *heap.Cell { return a.D.At(i) }

// MakeFrame instantiates an argument frame for the action: a varlist
// sharing the paramlist as its keylist, every argument cell blank. The
// frame is unmanaged until the caller hands it to evaluation.
func (a Action) MakeFrame(p *heap.Pool) (Context, error) {
	plist := a.Paramlist()
	v := p.AllocStub(heap.FlavorVarList, plist.Len()+1, false)
	arch, err := v.PushTail()
	if err != nil {
		return Context{}, err
	}
	heap.InitContext(arch, heap.HeartFrame, v)
	for i := 0; i < plist.Len(); i++ {
		if _, err := v.PushTail(); err != nil {
			return Context{}, err
		}
	}
	plist.SetShared(true)
	v.SetLinkRef(plist)
	return Context{V: v}, nil
}
