package gogen_test

import (
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

func TestParseGraph(t *testing.T) {
	X := mustParse(t, "1-2-3,2-4")
	if X.VtxCount() != 4 || X.EdgeCount() != 3 {
		t.Fatalf("got %d vtx, %d edges", X.VtxCount(), X.EdgeCount())
	}
	for _, edge := range [][2]int{{0, 1}, {1, 2}, {1, 3}} {
		if !X.HasEdge(edge[0], edge[1]) {
			t.Fatalf("missing edge %v", edge)
		}
	}
	if X.HasEdge(0, 2) {
		t.Fatal("unexpected edge {0,2}")
	}

	// Declared vertex count leaves trailing vertices isolated
	X = mustParse(t, "5: 1-2")
	if X.VtxCount() != 5 || X.EdgeCount() != 1 {
		t.Fatalf("got %d vtx, %d edges", X.VtxCount(), X.EdgeCount())
	}

	// Each part renumbers from the max vertex so far
	X = mustParse(t, "1-2;1-2-3")
	if X.VtxCount() != 5 || X.EdgeCount() != 3 {
		t.Fatalf("got %d vtx, %d edges", X.VtxCount(), X.EdgeCount())
	}
	if !X.HasEdge(0, 1) || !X.HasEdge(2, 3) || !X.HasEdge(3, 4) {
		t.Fatal("part offsets wrong")
	}

	// Edgeless
	X = mustParse(t, "4:")
	if X.VtxCount() != 4 || X.EdgeCount() != 0 {
		t.Fatalf("got %d vtx, %d edges", X.VtxCount(), X.EdgeCount())
	}
}

func TestParseGraphErrors(t *testing.T) {
	for _, expr := range []string{
		"3: 1-4", // declared count below max vertex ID
		"0-1",    // vertex IDs are one-based
		"1-1",    // self-loop
		"1-",     // dangling edge
	} {
		_, err := gogen.ParseGraph(expr)
		if !errors.Is(err, gogen.ErrInvalidGraph) {
			t.Fatalf("parse %q: expected ErrInvalidGraph, got %v", expr, err)
		}
	}
}

func TestGraphBasics(t *testing.T) {
	X, err := gogen.NewGraph(gogen.MaxVtx + 1)
	if !errors.Is(err, gogen.ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}

	X = mustParse(t, "1-2-3-4-1") // C4
	if X.Degree(0) != 2 || X.DegreeInto(0, 0b0010) != 1 || X.DegreeInto(0, 0b1010) != 2 {
		t.Fatal("degree counts wrong")
	}

	if err = X.AddEdge(0, 9); !errors.Is(err, gogen.ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}

	// Duplicate add is a no-op
	if err = X.AddEdge(0, 1); err != nil {
		t.Fatal(err)
	}
	if X.EdgeCount() != 4 {
		t.Fatalf("got %d edges", X.EdgeCount())
	}

	Xcpy := X.MakeCopy()
	Xcpy.AddEdge(0, 2)
	if X.HasEdge(0, 2) {
		t.Fatal("copy aliases original")
	}
	if err = X.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestRelabel(t *testing.T) {
	X := mustParse(t, "1-2-3") // path 0-1-2

	Y, err := X.Relabel([]int{2, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if !Y.HasEdge(2, 0) || !Y.HasEdge(0, 1) || Y.HasEdge(2, 1) {
		t.Fatal("relabel moved edges wrong")
	}

	if _, err = X.Relabel([]int{0, 0, 1}); !errors.Is(err, gogen.ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}
	if _, err = X.Relabel([]int{0, 1}); !errors.Is(err, gogen.ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}
}

func TestGraphValueSemantics(t *testing.T) {
	A := *mustParse(t, "1-2-3")
	B := *mustParse(t, "1-2,2-3")
	if A != B {
		t.Fatal("identical labeled graphs should compare equal")
	}
	C := A
	C.AddEdge(0, 2)
	if A == C {
		t.Fatal("assignment should copy")
	}
}
