package libgen

import (
	"encoding/binary"
	"math/bits"

	"github.com/graphgen-systems/graphgen/gogen"
	"github.com/pkg/errors"
)

// Partition is an ordered partition of the vertices of a graph.
// Each cell is a bitmask over vertex indices, and cell order is
// significant.
type Partition struct {
	vtxCount int
	cells    []uint64
}

// UnitPartition returns the single-cell partition over vtxCount vertices.
func UnitPartition(vtxCount int) Partition {
	var allVtx uint64
	if vtxCount > 0 {
		allVtx = (uint64(1) << uint(vtxCount)) - 1
	}
	p := Partition{
		vtxCount: vtxCount,
	}
	if vtxCount > 0 {
		p.cells = []uint64{allVtx}
	}
	return p
}

func (p Partition) VtxCount() int {
	return p.vtxCount
}

func (p Partition) NumCells() int {
	return len(p.cells)
}

// CellMask returns the bitmask of cell ci.
func (p Partition) CellMask(ci int) uint64 {
	return p.cells[ci]
}

// Cell returns the vertex indices of cell ci in ascending order.
func (p Partition) Cell(ci int) []int {
	mask := p.cells[ci]
	vtx := make([]int, 0, bits.OnesCount64(mask))
	for mask != 0 {
		vi := bits.TrailingZeros64(mask)
		vtx = append(vtx, vi)
		mask &= mask - 1
	}
	return vtx
}

// IsDiscrete returns true if every cell contains exactly one vertex.
func (p Partition) IsDiscrete() bool {
	return len(p.cells) == p.vtxCount
}

// FirstNonSingleton returns the index of the first cell with more than
// one vertex, or -1 if the partition is discrete.
func (p Partition) FirstNonSingleton() int {
	for ci, mask := range p.cells {
		if bits.OnesCount64(mask) > 1 {
			return ci
		}
	}
	return -1
}

// Labeling returns the vertex ordering a discrete partition induces,
// reading singleton cells in cell order.
func (p Partition) Labeling() []int {
	order := make([]int, 0, len(p.cells))
	for _, mask := range p.cells {
		order = append(order, bits.TrailingZeros64(mask))
	}
	return order
}

func (p Partition) validate() error {
	var seen uint64
	for _, mask := range p.cells {
		if mask == 0 {
			return errors.Wrap(gogen.ErrInvalidPartition, "empty cell")
		}
		if seen&mask != 0 {
			return errors.Wrap(gogen.ErrInvalidPartition, "cells overlap")
		}
		seen |= mask
	}
	var allVtx uint64
	if p.vtxCount > 0 {
		allVtx = (uint64(1) << uint(p.vtxCount)) - 1
	}
	if seen != allVtx {
		return errors.Wrap(gogen.ErrInvalidPartition, "cells do not cover all vertices")
	}
	return nil
}

// individualize returns a copy of p with vertex vi split out of cell ci
// into its own cell placed immediately before the remainder of ci.
func (p Partition) individualize(ci, vi int) Partition {
	next := Partition{
		vtxCount: p.vtxCount,
		cells:    make([]uint64, 0, len(p.cells)+1),
	}
	viBit := uint64(1) << uint(vi)
	for i, mask := range p.cells {
		if i == ci {
			next.cells = append(next.cells, viBit, mask&^viBit)
		} else {
			next.cells = append(next.cells, mask)
		}
	}
	return next
}

// Refine refines the given partition of X to the coarsest equitable
// partition at or below it, preserving relative cell order.
func Refine(X *gogen.Graph, p Partition) (Partition, error) {
	if p.vtxCount != X.VtxCount() {
		return Partition{}, errors.Wrapf(gogen.ErrInvalidPartition, "partition covers %d vertices, graph has %d", p.vtxCount, X.VtxCount())
	}
	if err := p.validate(); err != nil {
		return Partition{}, err
	}
	out := Partition{vtxCount: p.vtxCount}
	out.cells, _ = refineCells(X, p.cells)
	return out, nil
}

// refineCells runs equitable refinement passes on cells until stable.
// Each pass snapshots the pass-start cells, computes for every vertex
// its neighbor count into each pass-start cell, and splits any cell
// whose vertices disagree, ordering subgroups by ascending signature.
//
// Also reports how many passes split a cell. Every splitting pass
// grows the cell count by at least one, so the count never exceeds
// n-1.
func refineCells(X *gogen.Graph, cells []uint64) ([]uint64, int) {
	n := X.VtxCount()
	if n == 0 {
		return nil, 0
	}

	cur := append([]uint64{}, cells...)
	sig := make([][]int, n)
	passes := 0

	for {
		passCells := append([]uint64{}, cur...)

		for vi := 0; vi < n; vi++ {
			sig[vi] = sig[vi][:0]
		}
		for vi := 0; vi < n; vi++ {
			for _, mask := range passCells {
				sig[vi] = append(sig[vi], X.DegreeInto(vi, mask))
			}
		}

		next := make([]uint64, 0, len(cur))
		split := false

		for _, mask := range cur {
			if bits.OnesCount64(mask) <= 1 {
				next = append(next, mask)
				continue
			}
			groups := splitBySignature(mask, sig)
			if len(groups) > 1 {
				split = true
			}
			next = append(next, groups...)
		}

		cur = next
		if !split {
			return cur, passes
		}
		passes++
	}
}

// splitBySignature partitions the vertices of mask into subgroups of
// equal signature, ordered by ascending signature.
func splitBySignature(mask uint64, sig [][]int) []uint64 {
	type group struct {
		sig  []int
		mask uint64
	}
	var groups []group

	for m := mask; m != 0; m &= m - 1 {
		vi := bits.TrailingZeros64(m)
		placed := false
		for gi := range groups {
			cmp := compareSig(sig[vi], groups[gi].sig)
			if cmp == 0 {
				groups[gi].mask |= uint64(1) << uint(vi)
				placed = true
				break
			}
			if cmp < 0 {
				groups = append(groups, group{})
				copy(groups[gi+1:], groups[gi:])
				groups[gi] = group{sig: sig[vi], mask: uint64(1) << uint(vi)}
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, group{sig: sig[vi], mask: uint64(1) << uint(vi)})
		}
	}

	out := make([]uint64, len(groups))
	for gi, g := range groups {
		out[gi] = g.mask
	}
	return out
}

func compareSig(a, b []int) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// RefinementKey returns a label-invariant key for X derived from its
// equitable refinement of the unit partition: vertex count, cell sizes
// in refinement order, and the per-vertex neighbor counts between each
// ordered pair of cells. Graphs with differing keys cannot be
// isomorphic, so the key serves as a cheap pre-filter ahead of full
// canonicalization.
func RefinementKey(X *gogen.Graph) string {
	n := X.VtxCount()
	cells, _ := refineCells(X, UnitPartition(n).cells)

	key := make([]byte, 0, 16+4*len(cells))
	key = binary.AppendUvarint(key, uint64(n))
	key = binary.AppendUvarint(key, uint64(len(cells)))
	for _, mask := range cells {
		key = binary.AppendUvarint(key, uint64(bits.OnesCount64(mask)))
	}
	for _, mask := range cells {
		vi := bits.TrailingZeros64(mask)
		for _, other := range cells {
			key = binary.AppendUvarint(key, uint64(X.DegreeInto(vi, other)))
		}
	}
	return string(key)
}
