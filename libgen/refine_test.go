package libgen

import (
	"math/rand"
	"testing"

	"github.com/graphgen-systems/graphgen/gogen"
	"github.com/pkg/errors"
)

func mustParse(t *testing.T, expr string) *gogen.Graph {
	t.Helper()
	X, err := gogen.ParseGraph(expr)
	if err != nil {
		t.Fatalf("parse %q: %v", expr, err)
	}
	return X
}

// checkEquitable fails unless every vertex of each cell has the same
// neighbor count into every cell.
func checkEquitable(t *testing.T, X *gogen.Graph, p Partition) {
	t.Helper()
	for ci := 0; ci < p.NumCells(); ci++ {
		cell := p.Cell(ci)
		for cj := 0; cj < p.NumCells(); cj++ {
			mask := p.CellMask(cj)
			want := X.DegreeInto(cell[0], mask)
			for _, vi := range cell[1:] {
				if X.DegreeInto(vi, mask) != want {
					t.Fatalf("cell %d not equitable against cell %d", ci, cj)
				}
			}
		}
	}
}

func TestRefineBasics(t *testing.T) {
	// A path splits by distance from the ends
	X := mustParse(t, "1-2-3")
	p, err := Refine(X, UnitPartition(3))
	if err != nil {
		t.Fatal(err)
	}
	if p.NumCells() != 2 || p.CellMask(0) != 0b101 || p.CellMask(1) != 0b010 {
		t.Fatalf("unexpected cells %v %v", p.CellMask(0), p.CellMask(1))
	}
	checkEquitable(t, X, p)

	// A regular graph does not split at all
	X = mustParse(t, "1-2-3-4-1")
	p, err = Refine(X, UnitPartition(4))
	if err != nil {
		t.Fatal(err)
	}
	if p.NumCells() != 1 {
		t.Fatalf("C4 split into %d cells", p.NumCells())
	}

	// Degrees 1,3,2,2,1,1: three degree classes, with the deg-1
	// vertices further split by what they attach to
	X = mustParse(t, "6: 1-2-3-4-2,2-5,4-6")
	p, err = Refine(X, UnitPartition(6))
	if err != nil {
		t.Fatal(err)
	}
	checkEquitable(t, X, p)
	if p.IsDiscrete() {
		t.Fatal("unexpectedly discrete")
	}
}

func TestRefineRespectsCellOrder(t *testing.T) {
	X := mustParse(t, "1-2-3")

	// Individualizing an end vertex of the path forces discreteness
	p := UnitPartition(3).individualize(0, 0)
	p, err := Refine(X, p)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsDiscrete() {
		t.Fatal("expected discrete partition")
	}
	if order := p.Labeling(); order[0] != 0 {
		t.Fatalf("individualized vertex moved, order %v", order)
	}
	checkEquitable(t, X, p)
}

func TestRefineInvalidPartition(t *testing.T) {
	X := mustParse(t, "1-2-3")

	bad := []Partition{
		{vtxCount: 3, cells: []uint64{0b011}},           // missing a vertex
		{vtxCount: 3, cells: []uint64{0b011, 0b110}},    // overlap
		{vtxCount: 3, cells: []uint64{0b111, 0}},        // empty cell
		{vtxCount: 2, cells: []uint64{0b11}},            // wrong vertex count
	}
	for i, p := range bad {
		if _, err := Refine(X, p); !errors.Is(err, gogen.ErrInvalidPartition) {
			t.Fatalf("case %d: expected ErrInvalidPartition, got %v", i, err)
		}
	}
}

func TestRefineIdempotent(t *testing.T) {
	X := mustParse(t, "1-2-3-4-5,2-4")
	p, err := Refine(X, UnitPartition(5))
	if err != nil {
		t.Fatal(err)
	}
	q, err := Refine(X, p)
	if err != nil {
		t.Fatal(err)
	}
	if p.NumCells() != q.NumCells() {
		t.Fatal("refinement of a refined partition split again")
	}
	for ci := 0; ci < p.NumCells(); ci++ {
		if p.CellMask(ci) != q.CellMask(ci) {
			t.Fatal("refinement of a refined partition moved cells")
		}
	}
}

func TestRefineSplittingPassBound(t *testing.T) {
	// A path is the slow case: each pass only peels one more vertex
	// pair off the ends, so the pass count grows with n.
	for _, n := range []int{2, 5, 8, 13, 20} {
		X, err := gogen.NewGraph(n)
		if err != nil {
			t.Fatal(err)
		}
		for vi := 0; vi+1 < n; vi++ {
			if err := X.AddEdge(vi, vi+1); err != nil {
				t.Fatal(err)
			}
		}

		cells, passes := refineCells(X, UnitPartition(n).cells)
		if passes > n-1 {
			t.Fatalf("P%d refined in %d splitting passes, bound is %d", n, passes, n-1)
		}
		if n >= 3 && passes == 0 {
			t.Fatalf("P%d refined without splitting", n)
		}
		checkEquitable(t, X, Partition{vtxCount: n, cells: cells})
	}

	// Regular graphs are already equitable, so no pass splits
	X := mustParse(t, "1-2-3-4-1")
	if _, passes := refineCells(X, UnitPartition(4).cells); passes != 0 {
		t.Fatalf("C4 took %d splitting passes", passes)
	}
}

func TestRefinementKeyInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, expr := range []string{
		"1-2-3-4-5-1",
		"6: 1-2-3-4-2,2-5,4-6",
		"1-2-3-4-1,1-3",
	} {
		X := mustParse(t, expr)
		key := RefinementKey(X)

		for trial := 0; trial < 20; trial++ {
			Y, err := X.Relabel(rng.Perm(X.VtxCount()))
			if err != nil {
				t.Fatal(err)
			}
			if RefinementKey(Y) != key {
				t.Fatalf("%q: key changed under relabeling", expr)
			}
		}
	}

	// Different degree sequences must never collide
	if RefinementKey(mustParse(t, "1-2-3")) == RefinementKey(mustParse(t, "1-2-3,1-3")) {
		t.Fatal("path and triangle share a key")
	}
}
