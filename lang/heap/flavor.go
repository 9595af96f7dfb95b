package heap

// Flavor is the subtype discriminator byte of a stub. Derived aggregate
// types share one physical stub layout and differ only by flavor and by
// which accessors are used on the slots.
type Flavor byte

const (
	FlavorUnused Flavor = iota
	FlavorArray
	FlavorStrand
	FlavorSymbol
	FlavorBlob
	FlavorBitset
	FlavorKeyList
	FlavorVarList
	FlavorParamList
	FlavorDetails
	FlavorMapIndex
	FlavorPatch
	FlavorSea

	flavorMax
)

// flavorInfo drives the generic machinery: element width of the content,
// whether the flavor must use dynamic content unconditionally (contexts
// are addressed positionally from compiled code, so their data pointer
// must not alias the stub), and the default trackability of the Link and
// Misc slots.
var flavorInfo = [flavorMax]struct {
	name         string
	cellWidth    bool
	forceDynamic bool
	linkTrack    bool
	miscTrack    bool
}{
	FlavorArray:     {name: "array", cellWidth: true, linkTrack: true},
	FlavorStrand:    {name: "strand"},
	FlavorSymbol:    {name: "symbol", linkTrack: true, miscTrack: true},
	FlavorBlob:      {name: "blob"},
	FlavorBitset:    {name: "bitset"},
	FlavorKeyList:   {name: "keylist", cellWidth: true, forceDynamic: true},
	FlavorVarList:   {name: "varlist", cellWidth: true, forceDynamic: true, linkTrack: true, miscTrack: true},
	FlavorParamList: {name: "paramlist", cellWidth: true, forceDynamic: true, linkTrack: true},
	FlavorDetails:   {name: "details", cellWidth: true, linkTrack: true},
	FlavorMapIndex:  {name: "mapindex", forceDynamic: true, linkTrack: true},
	FlavorPatch:     {name: "patch", cellWidth: true, linkTrack: true, miscTrack: true},
	FlavorSea:       {name: "sea", cellWidth: true},
}

func (f Flavor) String() string {
	if f < flavorMax && flavorInfo[f].name != "" {
		return flavorInfo[f].name
	}
	return "flavor?"
}

// CellWidth reports whether stubs of this flavor hold cells (as opposed
// to encoded bytes).
func (f Flavor) CellWidth() bool { return f < flavorMax && flavorInfo[f].cellWidth }

// ForceDynamic reports whether stubs of this flavor always use dynamic
// content.
func (f Flavor) ForceDynamic() bool { return f < flavorMax && flavorInfo[f].forceDynamic }

// Flavors enumerates the defined flavors in discriminator order.
func Flavors() []Flavor {
	fs := make([]Flavor, 0, flavorMax-1)
	for f := FlavorUnused + 1; f < flavorMax; f++ {
		fs = append(fs, f)
	}
	return fs
}
