package heap

// Heart is the fundamental datatype of a cell, independent of quoting.
// It occupies the low six bits of the cell's kind byte, which caps the
// type universe at 64 hearts.
type Heart byte

const (
	HeartBlank Heart = iota
	HeartComma
	HeartLogic
	HeartInteger
	HeartDecimal
	HeartPercent
	HeartMoney
	HeartTime
	HeartDate
	HeartPair
	HeartRune
	HeartParameter
	HeartBitset
	HeartBlob
	HeartText
	HeartFile
	HeartEmail
	HeartURL
	HeartTag
	HeartWord
	HeartBlock
	HeartGroup
	HeartFence
	HeartPath
	HeartChain
	HeartTuple
	HeartMap
	HeartObject
	HeartModule
	HeartFrame
	HeartError
	HeartPort
	HeartHandle
	HeartVarargs

	heartMax
)

const heartMask = 0x3F

// Sigil is the 2-bit decoration packed beside the heart in the kind byte.
type Sigil byte

const (
	SigilNone Sigil = iota
	SigilMeta
	SigilPin
	SigilTie
)

func (s Sigil) String() string {
	switch s {
	case SigilMeta:
		return "^"
	case SigilPin:
		return "@"
	case SigilTie:
		return "$"
	}
	return ""
}

// heartInfo records the per-heart metadata the generic machinery needs:
// a name for diagnostics, and whether the auxiliary slot of a cell with
// this heart holds a binding reference the collector must visit.
var heartInfo = [heartMax]struct {
	name     string
	bindable bool
}{
	HeartBlank:     {name: "blank"},
	HeartComma:     {name: "comma"},
	HeartLogic:     {name: "logic"},
	HeartInteger:   {name: "integer"},
	HeartDecimal:   {name: "decimal"},
	HeartPercent:   {name: "percent"},
	HeartMoney:     {name: "money"},
	HeartTime:      {name: "time"},
	HeartDate:      {name: "date"},
	HeartPair:      {name: "pair"},
	HeartRune:      {name: "rune"},
	HeartParameter: {name: "parameter"},
	HeartBitset:    {name: "bitset"},
	HeartBlob:      {name: "blob"},
	HeartText:      {name: "text"},
	HeartFile:      {name: "file"},
	HeartEmail:     {name: "email"},
	HeartURL:       {name: "url"},
	HeartTag:       {name: "tag"},
	HeartWord:      {name: "word", bindable: true},
	HeartBlock:     {name: "block", bindable: true},
	HeartGroup:     {name: "group", bindable: true},
	HeartFence:     {name: "fence", bindable: true},
	HeartPath:      {name: "path", bindable: true},
	HeartChain:     {name: "chain", bindable: true},
	HeartTuple:     {name: "tuple", bindable: true},
	HeartMap:       {name: "map"},
	HeartObject:    {name: "object"},
	HeartModule:    {name: "module"},
	HeartFrame:     {name: "frame", bindable: true},
	HeartError:     {name: "error"},
	HeartPort:      {name: "port"},
	HeartHandle:    {name: "handle"},
	HeartVarargs:   {name: "varargs"},
}

func (h Heart) String() string {
	if h < heartMax && heartInfo[h].name != "" {
		return heartInfo[h].name
	}
	return "heart?"
}

// Bindable reports whether cells with this heart carry a binding
// reference in their auxiliary slot.
func (h Heart) Bindable() bool {
	return h < heartMax && heartInfo[h].bindable
}

// Hearts enumerates the defined hearts in kind-byte order.
func Hearts() []Heart {
	hs := make([]Heart, 0, heartMax)
	for h := Heart(0); h < heartMax; h++ {
		hs = append(hs, h)
	}
	return hs
}
