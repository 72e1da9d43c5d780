package libgen

import (
	"github.com/graphgen-systems/graphgen/gogen"
	"github.com/pkg/errors"
)

// DefaultSearchLimit bounds how many discrete labelings a single
// Canonize call may examine before giving up.
const DefaultSearchLimit = int64(1) << 20

type CanonizerOpts struct {

	// SearchLimit caps the number of leaf labelings examined per graph.
	// Zero means DefaultSearchLimit.
	SearchLimit int64
}

var DefaultCanonizerOpts = CanonizerOpts{
	SearchLimit: DefaultSearchLimit,
}

// Canonizer computes canonical labelings by individualization and
// refinement: starting from the equitable refinement of the unit
// partition, it branches on each vertex of the first non-singleton
// cell until the partition is discrete, encodes the adjacency under
// each resulting labeling, and keeps the lexicographic minimum.
//
// The labelings tying at the minimum are exactly the automorphisms of
// the graph, so their count is the order of its automorphism group.
//
// A Canonizer is safe for concurrent use.
type Canonizer struct {
	opts CanonizerOpts
}

func NewCanonizer(opts CanonizerOpts) *Canonizer {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	return &Canonizer{
		opts: opts,
	}
}

// Canonize returns the canonical form of X and the order of its
// automorphism group.
//
// Graphs that are isomorphic yield identical forms, and the form of a
// graph already carrying its canonical labeling is its own encoding.
// Returns ErrSearchLimitExceeded if the search visits more labelings
// than the configured limit.
//
// The search walks an explicit frame stack holding one frame per
// individualized vertex, so call depth stays constant no matter how
// symmetric the input is.
func (can *Canonizer) Canonize(X *gogen.Graph) (gogen.CanonicalForm, uint64, error) {
	if err := X.Validate(); err != nil {
		return "", 0, err
	}
	n := X.VtxCount()
	if n == 0 {
		return gogen.FormFromBits(0, nil), 1, nil
	}

	srch := search{
		X:         X,
		limit:     can.opts.SearchLimit,
		wordCount: gogen.Graph6WordCount(n),
	}
	srch.best = make([]uint64, srch.wordCount)
	srch.scratch = make([]uint64, srch.wordCount)
	srch.order = make([]int, 0, n)

	root := Partition{vtxCount: n}
	root.cells, _ = refineCells(X, UnitPartition(n).cells)
	if err := srch.run(root); err != nil {
		return "", 0, err
	}
	return gogen.FormFromBits(n, srch.best), srch.autOrder, nil
}

type search struct {
	X         *gogen.Graph
	limit     int64
	visited   int64
	wordCount int

	best     []uint64
	haveBest bool
	autOrder uint64

	order   []int
	scratch []uint64
}

// searchFrame is one node of the individualization tree: an owned
// partition snapshot plus the branch vertices still to try.
type searchFrame struct {
	p      Partition
	cellID int
	branch []int
	next   int
}

// run walks the individualization tree depth-first over an explicit
// frame stack. Each frame individualizes one vertex, so the stack
// never grows past one frame per vertex.
func (srch *search) run(root Partition) error {
	stack := make([]searchFrame, 0, srch.X.VtxCount())
	if err := srch.enter(&stack, root); err != nil {
		return err
	}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.branch) {
			stack = stack[:len(stack)-1]
			continue
		}
		vi := top.branch[top.next]
		top.next++

		child := top.p.individualize(top.cellID, vi)
		child.cells, _ = refineCells(srch.X, child.cells)
		if err := srch.enter(&stack, child); err != nil {
			return err
		}
	}
	return nil
}

// enter evaluates one node: discrete partitions are scored as leaves,
// pruned branches are dropped, and anything left becomes a frame.
func (srch *search) enter(stack *[]searchFrame, p Partition) error {
	if p.IsDiscrete() {
		return srch.visitLeaf(p)
	}
	ci := p.FirstNonSingleton()
	if srch.pruned(p, ci) {
		return nil
	}
	*stack = append(*stack, searchFrame{
		p:      p,
		cellID: ci,
		branch: p.Cell(ci),
	})
	return nil
}

// pruned reports whether the singleton prefix of p already exceeds the
// best leaf. Every cell before the first non-singleton one fixes a
// vertex, so the adjacency bits among those vertices are already
// decided for the whole subtree. A prefix strictly above the best leaf
// can never produce the minimum, and pruning only on strictly-greater
// keeps every labeling that ties at the minimum, preserving the exact
// automorphism count.
func (srch *search) pruned(p Partition, ci int) bool {
	if !srch.haveBest || ci <= 1 {
		return false
	}
	srch.order = srch.order[:0]
	for i := 0; i < ci; i++ {
		srch.order = append(srch.order, p.Cell(i)[0])
	}
	gogen.EncodeAdjacency(srch.scratch, srch.X, srch.order)
	prefixBits := gogen.Graph6BitCount(ci)
	return gogen.CompareBits(srch.scratch, srch.best, prefixBits) > 0
}

func (srch *search) visitLeaf(p Partition) error {
	srch.visited++
	if srch.visited > srch.limit {
		return errors.Wrapf(gogen.ErrSearchLimitExceeded, "visited %d labelings", srch.visited)
	}

	gogen.EncodeAdjacency(srch.scratch, srch.X, p.Labeling())
	if !srch.haveBest {
		copy(srch.best, srch.scratch)
		srch.haveBest = true
		srch.autOrder = 1
		return nil
	}

	switch gogen.CompareBits(srch.scratch, srch.best, gogen.Graph6BitCount(p.vtxCount)) {
	case -1:
		copy(srch.best, srch.scratch)
		srch.autOrder = 1
	case 0:
		srch.autOrder++
	}
	return nil
}
