package catalog

import (
	"encoding/binary"
	"runtime"

	"github.com/dgraph-io/badger/v3"
	"github.com/graphgen-systems/graphgen/gogen"
	"github.com/pkg/errors"
)

/***

Catalog database format:

	gCatalogStateKey => catalogState

	graph6(form) => hit count (varint)
		...

The first byte of a graph6 encoding is 63 + Nv, so form keys sort by
vertex count and every byte of a form key is >= 63, keeping them clear
of the state key. This allows to:
	1) enumerate all stored forms in order for a given Nv range
	2) check if a given form has been added, and how often it was hit

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

const (
	kMajorVers = 2025
	kMinorVers = 1
)

// catalogState is the persisted header of a catalog db.
type catalogState struct {
	MajorVers int64
	MinorVers int64

	// NumForms[Nv] is the count of distinct forms stored with Nv vertices.
	NumForms [gogen.MaxVtx + 1]uint64
}

func (state *catalogState) Marshal(buf []byte) []byte {
	buf = binary.AppendVarint(buf, state.MajorVers)
	buf = binary.AppendVarint(buf, state.MinorVers)
	for _, ct := range state.NumForms {
		buf = binary.AppendUvarint(buf, ct)
	}
	return buf
}

func (state *catalogState) Unmarshal(val []byte) error {
	var n int
	state.MajorVers, n = binary.Varint(val)
	if n <= 0 {
		return errors.Wrap(gogen.ErrBadEncoding, "catalog state")
	}
	val = val[n:]
	state.MinorVers, n = binary.Varint(val)
	if n <= 0 {
		return errors.Wrap(gogen.ErrBadEncoding, "catalog state")
	}
	val = val[n:]
	for vi := range state.NumForms {
		state.NumForms[vi], n = binary.Uvarint(val)
		if n <= 0 {
			return errors.Wrap(gogen.ErrBadEncoding, "catalog state")
		}
		val = val[n:]
	}
	return nil
}

// catalog is a db wrapper for a canonical form catalog
type catalog struct {
	ctx        gogen.CatalogContext
	readOnly   bool
	stateDirty bool
	state      catalogState
	db         *badger.DB
}

func OpenCatalog(ctx gogen.CatalogContext, opts gogen.CatalogOpts) (gogen.Catalog, error) {
	cat := &catalog{
		ctx:      ctx,
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // not needed so disable for performance
	dbOpts.Logger = nil

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	var err error

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(gogen.ErrBadCatalogParam, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	// Once the db is open, we consider the catalog ctx blocked until the catalog closes
	ctx.AttachCatalog(cat)

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = true
		cat.state.MajorVers = kMajorVers
		cat.state.MinorVers = kMinorVers
	}

	if err == nil && (cat.state.MajorVers != kMajorVers || cat.state.MinorVers != kMinorVers) {
		err = errors.New("Catalog version is incompatible")
	}

	if err != nil {
		cat.Close()
		return nil, err
	}

	return cat, nil
}

func (cat *catalog) NumForms(forVtxCount byte) int64 {
	if forVtxCount == 0 || int(forVtxCount) >= len(cat.state.NumForms) {
		return 0
	}
	return int64(cat.state.NumForms[forVtxCount])
}

func (cat *catalog) loadState() error {
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err == nil {
			item.Value(func(val []byte) error {
				return cat.state.Unmarshal(val)
			})
		}
		return err
	})
	return err
}

func (cat *catalog) flushState() {
	if cat.stateDirty && !cat.readOnly {
		err := cat.db.Update(func(txn *badger.Txn) error {
			var stateBuf [256]byte
			return txn.Set(gCatalogStateKey, cat.state.Marshal(stateBuf[:0]))
		})
		if err != nil {
			panic(err)
		}
		cat.stateDirty = false
	}
}

func (cat *catalog) Close() error {
	cat.flushState()
	if cat.db != nil {
		cat.db.Close()
		cat.db = nil
		cat.ctx.DetachCatalog(cat)
		cat.ctx = nil
	}
	return nil
}

func (cat *catalog) IsReadOnly() bool {
	return cat.readOnly
}

// TryAddForm adds the given canonical form if it isn't already stored.
//
// If true is returned, the form was not present and was added with a
// hit count of one.
//
// If false is returned, the form already exists and its hit count was
// bumped (or the catalog is read-only, or the form is malformed).
func (cat *catalog) TryAddForm(form gogen.CanonicalForm) bool {
	if cat.readOnly || form.VtxCount() < 0 {
		return false
	}

	formKey := []byte(form)

	txn := cat.db.NewTransaction(true)
	defer txn.Discard()

	hits := uint64(0)
	item, err := txn.Get(formKey)
	isNewForm := err == badger.ErrKeyNotFound
	if !isNewForm {
		if err != nil {
			panic(err)
		}
		err = item.Value(func(val []byte) error {
			hits, _ = binary.Uvarint(val)
			return nil
		})
		if err != nil {
			panic(err)
		}
	}

	// Alloc a scrap buf since we can't use the stack for commit bufs
	hitsBuf := make([]byte, 0, binary.MaxVarintLen64)
	err = txn.Set(formKey, binary.AppendUvarint(hitsBuf, hits+1))
	if err == nil {
		err = txn.Commit()
	}
	if err != nil {
		panic(err)
	}

	if isNewForm {
		cat.state.NumForms[form.VtxCount()]++
		cat.stateDirty = true
	}
	return isNewForm
}

func loadAndPushGraph(item *badger.Item, onHit gogen.OnGraphHit) error {
	X, err := gogen.FromGraph6(string(item.Key()))
	if err != nil {
		panic(err)
	}
	onHit <- X
	return nil
}

// Select will push all stored graphs matching the given search criteria to onHit.
//
// Enumeration stops when there are no more matches or the selector's limit is hit.
// The caller closes onHit.
func (cat *catalog) Select(sel gogen.GraphSelector, onHit gogen.OnGraphHit) {
	maxVtx := sel.MaxVtx
	if maxVtx == 0 {
		maxVtx = gogen.MaxVtx
	}
	minKey := [1]byte{63 + sel.MinVtx}

	txn := cat.db.NewTransaction(false)
	defer txn.Discard()

	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: false,
	})
	defer it.Close()

	numHits := int64(0)

	for it.Seek(minKey[:]); it.Valid(); it.Next() {
		curItem := it.Item()
		curKey := curItem.Key()

		// Stop when the vtx count is over the max
		if curKey[0] > 63+maxVtx {
			break
		}

		loadAndPushGraph(curItem, onHit)

		numHits++
		if sel.Limit > 0 && numHits >= sel.Limit {
			break
		}
	}
}
