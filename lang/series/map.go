package series

import (
	"encoding/binary"

	"github.com/metaeducation/cellar/lang/heap"
)

// A Map is a mapindex stub: its byte content is an open-addressed bucket
// table of little-endian uint32 entries, and its Link slot references
// the pairs array, a cell-width stub of alternating key and value cells.
// A bucket entry is the pair number plus one, zero means empty, and a
// tombstone keeps probe chains intact after removal. The Info word
// counts live entries.
//
// Word keys hash and compare through their case ring's canonical
// symbol; series and pair keys compare by node identity. Stub keys hash
// on the pool allocation sequence so the hash never reads a heap
// address; pairings have no sequence number and share one probe chain.
type Map struct {
	S *heap.Stub
}

const (
	bucketBytes     = 4
	bucketTombstone = 0xFFFFFFFF
	minBuckets      = 8
)

// NewMap allocates an unmanaged map with room for capacity entries
// before the first rehash.
func NewMap(p *heap.Pool, capacity int) (Map, error) {
	n := minBuckets
	for n*2 < capacity*3 {
		n *= 2
	}
	idx := p.AllocStub(heap.FlavorMapIndex, n*bucketBytes, false)
	if err := idx.AppendBytes(make([]byte, n*bucketBytes)); err != nil {
		return Map{}, err
	}
	pairs := p.AllocStub(heap.FlavorArray, capacity*2, false)
	idx.SetLinkRef(pairs)
	return Map{S: idx}, nil
}

// Pairs returns the alternating key/value cell stub.
func (m Map) Pairs() *heap.Stub { return m.S.Link().Stub() }

// Len returns the number of live entries.
func (m Map) Len() int { return int(m.S.Info()) }

func (m Map) buckets() []byte { return m.S.Bytes() }

func (m Map) bucketCount() int { return m.S.Len() / bucketBytes }

func getBucket(b []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(b[i*bucketBytes:])
}

func setBucket(b []byte, i int, v uint32) {
	binary.LittleEndian.PutUint32(b[i*bucketBytes:], v)
}

// hashKey folds the key's heart and payload FNV-style.
func hashKey(k *heap.Cell) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	mix := func(v uint64) {
		for i := 0; i < 8; i++ {
			h ^= v & 0xFF
			h *= prime
			v >>= 8
		}
	}
	h ^= uint64(k.Heart())
	h *= prime
	if k.Heart() == heap.HeartWord {
		mix(uint64((Symbol{S: k.Slot1().Stub()}).Canon().S.Seq()))
		return h
	}
	if s := k.Slot1().Stub(); s != nil {
		mix(uint64(s.Seq()))
	} else {
		// zero for any non-stub reference; keysEqual tells them apart
		mix(k.Slot1().Bits())
	}
	mix(k.Slot2().Bits())
	return h
}

func keysEqual(a, b *heap.Cell) bool {
	if a.Heart() != b.Heart() {
		return false
	}
	if a.Heart() == heap.HeartWord {
		return (Symbol{S: a.Slot1().Stub()}).SameFold(Symbol{S: b.Slot1().Stub()})
	}
	if ar, br := a.Slot1().Ref(), b.Slot1().Ref(); ar != nil || br != nil {
		return ar == br && a.Slot2().Bits() == b.Slot2().Bits()
	}
	return a.Slot1().Bits() == b.Slot1().Bits() && a.Slot2().Bits() == b.Slot2().Bits()
}

// findBucket probes for key, returning the bucket index holding it (ok
// true) or the first insertable bucket (ok false).
func (m Map) findBucket(key *heap.Cell) (int, bool) {
	b := m.buckets()
	n := m.bucketCount()
	pairs := m.Pairs()
	i := int(hashKey(key) % uint64(n))
	insert := -1
	for probes := 0; probes < n; probes++ {
		switch e := getBucket(b, i); e {
		case 0:
			if insert >= 0 {
				return insert, false
			}
			return i, false
		case bucketTombstone:
			if insert < 0 {
				insert = i
			}
		default:
			if keysEqual(pairs.At(int(e-1)*2), key) {
				return i, true
			}
		}
		i = (i + 1) % n
	}
	if insert < 0 {
		panic("map index has no insertable bucket")
	}
	return insert, false
}

// Get returns the value cell for key, or nil.
func (m Map) Get(key *heap.Cell) *heap.Cell {
	i, ok := m.findBucket(key)
	if !ok {
		return nil
	}
	return m.Pairs().At(int(getBucket(m.buckets(), i)-1)*2 + 1)
}

// Set inserts or updates key's value with a copy of val.
func (m Map) Set(p *heap.Pool, key, val *heap.Cell) error {
	if err := m.maybeGrow(); err != nil {
		return err
	}
	i, ok := m.findBucket(key)
	if ok {
		return m.Pairs().At(int(getBucket(m.buckets(), i)-1)*2 + 1).Copy(val)
	}
	pairs := m.Pairs()
	pair := uint32(pairs.Len() / 2)
	kc, err := pairs.PushTail()
	if err != nil {
		return err
	}
	if err := kc.Copy(key); err != nil {
		return err
	}
	vc, err := pairs.PushTail()
	if err != nil {
		return err
	}
	if err := vc.Copy(val); err != nil {
		return err
	}
	setBucket(m.buckets(), i, pair+1)
	m.S.SetInfo(m.S.Info() + 1)
	return nil
}

// Remove deletes key's entry, reporting whether it existed. The pair
// slots are blanked and the bucket becomes a tombstone.
func (m Map) Remove(key *heap.Cell) bool {
	i, ok := m.findBucket(key)
	if !ok {
		return false
	}
	pair := int(getBucket(m.buckets(), i) - 1)
	heap.InitBlank(m.Pairs().At(pair * 2))
	heap.InitBlank(m.Pairs().At(pair*2 + 1))
	setBucket(m.buckets(), i, bucketTombstone)
	m.S.SetInfo(m.S.Info() - 1)
	return true
}

// ForEach visits live entries in insertion order.
func (m Map) ForEach(visit func(key, val *heap.Cell)) {
	pairs := m.Pairs()
	for i := 0; i < pairs.Len(); i += 2 {
		k := pairs.At(i)
		if k.Heart() == heap.HeartBlank {
			continue // removed entry
		}
		visit(k, pairs.At(i+1))
	}
}

// maybeGrow rebuilds the bucket table at double width once live entries
// pass two thirds of the buckets. Rebuilding also drops accumulated
// tombstones.
func (m Map) maybeGrow() error {
	n := m.bucketCount()
	if (m.Len()+1)*3 <= n*2 {
		return nil
	}
	if err := m.S.RemoveTail(m.S.Len()); err != nil {
		return err
	}
	if err := m.S.AppendBytes(make([]byte, n*2*bucketBytes)); err != nil {
		return err
	}
	b := m.buckets()
	nn := m.bucketCount()
	pairs := m.Pairs()
	for pair := 0; pair*2 < pairs.Len(); pair++ {
		k := pairs.At(pair * 2)
		if k.Heart() == heap.HeartBlank {
			continue
		}
		i := int(hashKey(k) % uint64(nn))
		for getBucket(b, i) != 0 {
			i = (i + 1) % nn
		}
		setBucket(b, i, uint32(pair)+1)
	}
	return nil
}
