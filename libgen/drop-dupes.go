package libgen

import (
	"bytes"
	"hash/maphash"

	"github.com/graphgen-systems/graphgen/gogen"
)

// dropDupes is an in-memory dedup table keyed on canonical form.
// Keys are copied into pooled backing buffers and collisions resolve
// by open addressing.
type dropDupes struct {
	can       gogen.Canonizer
	hashMap   map[uint64][]byte
	hasher    maphash.Hash
	bufPool   []byte
	bufPoolSz int
	opts      DropDupeOpts
}

const DefaultPoolSz = 32 * 1024

type DropDupeOpts struct {
	PoolSz int // 0 denotes DefaultPoolSz (32k)
}

// NewDropDupes returns a GraphAdder that accepts one graph per
// isomorphism class and rejects all later duplicates. Graphs that
// exceed the canonical search limit are rejected.
func NewDropDupes(can gogen.Canonizer, opts DropDupeOpts) gogen.GraphAdder {
	if opts.PoolSz <= 0 {
		opts.PoolSz = DefaultPoolSz
	}
	return &dropDupes{
		can:     can,
		hashMap: make(map[uint64][]byte),
		opts:    opts,
	}
}

func (dupes *dropDupes) Reset() {
	dupes.bufPoolSz = 0
	for k := range dupes.hashMap {
		delete(dupes.hashMap, k)
	}
}

func (dupes *dropDupes) Close() {
	dupes.Reset()
	dupes.hashMap = nil
}

func (dupes *dropDupes) TryAddGraph(X *gogen.Graph) bool {
	form, _, err := dupes.can.Canonize(X)
	if err != nil {
		return false
	}
	Xkey := []byte(form)

	dupes.hasher.Reset()
	dupes.hasher.Write(Xkey)
	hash := dupes.hasher.Sum64()

	existing, found := dupes.hashMap[hash]
	for found {
		if bytes.Equal(existing, Xkey) {
			return false
		}
		hash++
		existing, found = dupes.hashMap[hash]
	}

	// If we've gotten here, it means this is a new entry.
	// Place a copy of the buf in our backing buf (in the heap).
	// If we run out of space in our pool, we start a new pool
	pos := dupes.bufPoolSz
	itemLen := len(Xkey)
	if pos+itemLen > cap(dupes.bufPool) {
		allocSz := dupes.opts.PoolSz
		if itemLen > allocSz {
			allocSz = itemLen
		}
		dupes.bufPool = make([]byte, allocSz)
		dupes.bufPoolSz = 0
		pos = 0
	}

	// Place the backed copy of the form at the open hash spot
	dupes.hashMap[hash] = append(dupes.bufPool[pos:pos], Xkey...)
	dupes.bufPoolSz += itemLen
	return true
}
