package libgen

import (
	"math"
	"math/rand"

	"github.com/graphgen-systems/graphgen/gogen"
	"github.com/pkg/errors"
)

// Edge count sentinels for ModelOpts.EdgeCount. With EdgesUniform the
// edge count of each candidate is drawn uniformly from [0, n(n-1)/2];
// with EdgesNormal it is drawn from a normal distribution fit to the
// edge counts of all distinct graphs on n vertices, which concentrates
// candidates where most isomorphism classes live.
const (
	EdgesUniform = -1
	EdgesNormal  = -2
)

// Coefficients of the linear fit of the edge count spread across all
// distinct graphs on n vertices. The mean is n(n-1)/4.
const (
	edgeStdSlope     = 0.3375899521271764
	edgeStdIntercept = 0.1575828904704868
)

type ModelOpts struct {
	VtxCount int

	// EdgeCount is the exact edge count of each candidate, or
	// EdgesUniform / EdgesNormal to draw it per candidate.
	// Ignored by the G(n,p) model.
	EdgeCount int

	// EdgeProb is the per-pair edge probability of the G(n,p) model.
	EdgeProb float64

	// Seed makes a source reproducible. Zero leaves it unseeded.
	Seed int64
}

func (opts ModelOpts) validate(wantEdges bool) error {
	if opts.VtxCount < 1 || opts.VtxCount > gogen.MaxVtx {
		return errors.Wrapf(gogen.ErrBadModelParam, "vertex count %d out of range [1,%d]", opts.VtxCount, gogen.MaxVtx)
	}
	if wantEdges {
		maxEdges := maxEdgeCount(opts.VtxCount)
		if (opts.EdgeCount < 0 || opts.EdgeCount > maxEdges) && opts.EdgeCount != EdgesUniform && opts.EdgeCount != EdgesNormal {
			return errors.Wrapf(gogen.ErrBadModelParam, "edge count %d out of range [0,%d]", opts.EdgeCount, maxEdges)
		}
	} else {
		if opts.EdgeProb < 0 || opts.EdgeProb > 1 {
			return errors.Wrapf(gogen.ErrBadModelParam, "edge probability %v out of range [0,1]", opts.EdgeProb)
		}
	}
	return nil
}

func newRng(seed int64) *rand.Rand {
	if seed == 0 {
		seed = rand.Int63()
	}
	return rand.New(rand.NewSource(seed))
}

func maxEdgeCount(n int) int {
	return n * (n - 1) / 2
}

// resolveEdgeCount turns an EdgeCount spec into a concrete edge count
// for one candidate.
func resolveEdgeCount(rng *rand.Rand, n, spec int) int {
	maxEdges := maxEdgeCount(n)
	switch spec {
	case EdgesUniform:
		return rng.Intn(maxEdges + 1)
	case EdgesNormal:
		mean := float64(maxEdges) / 2
		std := edgeStdSlope*float64(n) + edgeStdIntercept
		m := int(math.Round(rng.NormFloat64()*std + mean))
		if m < 0 {
			m = 0
		} else if m > maxEdges {
			m = maxEdges
		}
		return m
	}
	return spec
}

// newGraph is for callers whose vertex count is already validated.
func newGraph(n int) *gogen.Graph {
	X, err := gogen.NewGraph(n)
	if err != nil {
		panic(err)
	}
	return X
}

// edgeFromIndex maps an index k in [0, n(n-1)/2) to the k-th vertex
// pair in graph6 bit order: (0,1), (0,2), (1,2), (0,3), ...
func edgeFromIndex(k int) (int, int) {
	vj := int(0.5 + 0.5*math.Sqrt(float64(1+8*k)))
	for vj*(vj-1)/2 > k {
		vj--
	}
	for (vj+1)*vj/2 <= k {
		vj++
	}
	return k - vj*(vj-1)/2, vj
}

// NaiveSource draws an edge count, shuffles the full pair index space,
// and takes the leading indexes as edges.
type NaiveSource struct {
	opts ModelOpts
	rng  *rand.Rand
}

func NewNaiveSource(opts ModelOpts) (*NaiveSource, error) {
	if err := opts.validate(true); err != nil {
		return nil, err
	}
	return &NaiveSource{
		opts: opts,
		rng:  newRng(opts.Seed),
	}, nil
}

func (src *NaiveSource) Next() *gogen.Graph {
	n := src.opts.VtxCount
	m := resolveEdgeCount(src.rng, n, src.opts.EdgeCount)

	X := newGraph(n)
	for _, k := range src.rng.Perm(maxEdgeCount(n))[:m] {
		vi, vj := edgeFromIndex(k)
		X.AddEdge(vi, vj)
	}
	return X
}

// GnmSource emits G(n,m) graphs: m edges chosen by rejection over
// random vertex pairs.
type GnmSource struct {
	opts ModelOpts
	rng  *rand.Rand
}

func NewGnmSource(opts ModelOpts) (*GnmSource, error) {
	if err := opts.validate(true); err != nil {
		return nil, err
	}
	return &GnmSource{
		opts: opts,
		rng:  newRng(opts.Seed),
	}, nil
}

func (src *GnmSource) Next() *gogen.Graph {
	n := src.opts.VtxCount
	m := resolveEdgeCount(src.rng, n, src.opts.EdgeCount)

	X := newGraph(n)
	for X.EdgeCount() < m {
		vi, vj := src.rng.Intn(n), src.rng.Intn(n)
		if vi == vj || X.HasEdge(vi, vj) {
			continue
		}
		X.AddEdge(vi, vj)
	}
	return X
}

// GnpSource emits G(n,p) graphs: each vertex pair is an edge with
// probability p, independently.
type GnpSource struct {
	opts ModelOpts
	rng  *rand.Rand
}

func NewGnpSource(opts ModelOpts) (*GnpSource, error) {
	if err := opts.validate(false); err != nil {
		return nil, err
	}
	return &GnpSource{
		opts: opts,
		rng:  newRng(opts.Seed),
	}, nil
}

func (src *GnpSource) Next() *gogen.Graph {
	n := src.opts.VtxCount
	X := newGraph(n)
	for vj := 1; vj < n; vj++ {
		for vi := 0; vi < vj; vi++ {
			if src.rng.Float64() < src.opts.EdgeProb {
				X.AddEdge(vi, vj)
			}
		}
	}
	return X
}
