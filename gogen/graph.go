package gogen

import (
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// Graph is a simple undirected graph over vertices 0..n-1.
//
// Adjacency is held as one 64-bit mask per vertex, so counting a vertex's
// neighbors inside any vertex subset is a single AND plus popcount.
// A Graph has value semantics: assignment copies the whole adjacency, and two
// Graphs are equal under == iff they are identical labeled graphs.
type Graph struct {
	vtxCount int
	rows     [MaxVtx]uint64
}

// NewGraph returns an edgeless graph on vtxCount vertices.
func NewGraph(vtxCount int) (*Graph, error) {
	if vtxCount < 0 || vtxCount > MaxVtx {
		return nil, errors.Wrapf(ErrInvalidGraph, "vertex count %d out of range [0,%d]", vtxCount, MaxVtx)
	}
	return &Graph{vtxCount: vtxCount}, nil
}

func (X *Graph) VtxCount() int {
	return X.vtxCount
}

func (X *Graph) EdgeCount() int {
	Ne := 0
	for vi := 0; vi < X.vtxCount; vi++ {
		Ne += bits.OnesCount64(X.rows[vi])
	}
	return Ne / 2
}

func (X *Graph) checkVtx(vi int) error {
	if vi < 0 || vi >= X.vtxCount {
		return errors.Wrapf(ErrInvalidGraph, "vertex %d out of range [0,%d)", vi, X.vtxCount)
	}
	return nil
}

// AddEdge adds the undirected edge {a,b}. Adding an existing edge is a no-op;
// a self-loop is rejected.
func (X *Graph) AddEdge(a, b int) error {
	if err := X.checkVtx(a); err != nil {
		return err
	}
	if err := X.checkVtx(b); err != nil {
		return err
	}
	if a == b {
		return errors.Wrapf(ErrInvalidGraph, "self-loop at vertex %d", a)
	}
	X.rows[a] |= 1 << uint(b)
	X.rows[b] |= 1 << uint(a)
	return nil
}

func (X *Graph) HasEdge(a, b int) bool {
	if a < 0 || b < 0 || a >= X.vtxCount || b >= X.vtxCount {
		return false
	}
	return X.rows[a]&(1<<uint(b)) != 0
}

// Row returns vertex vi's adjacency as a bit mask (bit j set iff {vi,j} is an edge).
func (X *Graph) Row(vi int) uint64 {
	return X.rows[vi]
}

func (X *Graph) Degree(vi int) int {
	return bits.OnesCount64(X.rows[vi])
}

// DegreeInto returns the number of neighbors of vi inside the vertex set
// denoted by cellMask.
func (X *Graph) DegreeInto(vi int, cellMask uint64) int {
	return bits.OnesCount64(X.rows[vi] & cellMask)
}

// MakeCopy returns a new copy of this instance.
func (X *Graph) MakeCopy() *Graph {
	Xcpy := *X
	return &Xcpy
}

// Relabel returns the graph Y with Y.HasEdge(perm[a], perm[b]) == X.HasEdge(a, b);
// perm must be a permutation of 0..n-1.
func (X *Graph) Relabel(perm []int) (*Graph, error) {
	n := X.vtxCount
	if len(perm) != n {
		return nil, errors.Wrapf(ErrInvalidGraph, "permutation length %d != vertex count %d", len(perm), n)
	}
	var hit uint64
	for _, pi := range perm {
		if pi < 0 || pi >= n || hit&(1<<uint(pi)) != 0 {
			return nil, errors.Wrap(ErrInvalidGraph, "not a permutation")
		}
		hit |= 1 << uint(pi)
	}

	Y := &Graph{vtxCount: n}
	for a := 0; a < n; a++ {
		row := X.rows[a]
		for row != 0 {
			b := bits.TrailingZeros64(row)
			row &= row - 1
			Y.rows[perm[a]] |= 1 << uint(perm[b])
		}
	}
	return Y, nil
}

// Validate checks structural invariants: vertex count in range, no self-loops,
// no adjacency bits beyond the vertex count, and a symmetric edge relation.
func (X *Graph) Validate() error {
	n := X.vtxCount
	if n < 0 || n > MaxVtx {
		return errors.Wrapf(ErrInvalidGraph, "vertex count %d out of range [0,%d]", n, MaxVtx)
	}
	var vtxMask uint64
	if n > 0 {
		vtxMask = (uint64(1) << uint(n)) - 1
	}
	for vi := 0; vi < n; vi++ {
		row := X.rows[vi]
		if row&^vtxMask != 0 {
			return errors.Wrapf(ErrInvalidGraph, "vertex %d adjacent to out-of-range vertex", vi)
		}
		if row&(1<<uint(vi)) != 0 {
			return errors.Wrapf(ErrInvalidGraph, "self-loop at vertex %d", vi)
		}
		for row != 0 {
			bi := bits.TrailingZeros64(row)
			row &= row - 1
			if X.rows[bi]&(1<<uint(vi)) == 0 {
				return errors.Wrapf(ErrInvalidGraph, "edge {%d,%d} not symmetric", vi, bi)
			}
		}
	}
	for vi := n; vi < MaxVtx; vi++ {
		if X.rows[vi] != 0 {
			return errors.Wrapf(ErrInvalidGraph, "adjacency set on out-of-range vertex %d", vi)
		}
	}
	return nil
}

// WriteAsString writes this graph to out per the given PrintOpts.
func (X *Graph) WriteAsString(out io.Writer, opts PrintOpts) {
	if len(opts.Label) > 0 {
		fmt.Fprintf(out, "%s,", opts.Label)
	}
	if opts.Graph6 {
		io.WriteString(out, string(X.Graph6()))
	}
	if opts.Matrix {
		for a := 0; a < X.vtxCount; a++ {
			io.WriteString(out, "\n")
			for b := 0; b < X.vtxCount; b++ {
				if X.HasEdge(a, b) {
					io.WriteString(out, "1")
				} else {
					io.WriteString(out, "0")
				}
			}
		}
	}
}

func (X *Graph) String() string {
	b := strings.Builder{}
	b.Grow(32)
	X.WriteAsString(&b, DefaultPrintOpts)
	return b.String()
}
