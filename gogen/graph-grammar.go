package gogen

import (
	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// Graph expression grammar, a terse literal syntax for small graphs:
//
//	"1-2-3,2-4"     path 1-2-3 plus the edge 2-4
//	"5: 1-2"        5 vertices, one edge (trailing vertices isolated)
//	"1-2;1-2-3"     ';' separates parts; each part renumbers from the max vertex so far
//
// Vertex IDs are one-based within a part.
type graphExpr struct {
	VtxCount *int64       `parser:"(@Int ':')?"`
	Parts    []*graphPart `parser:"(@@ (';' @@)*)?"`
}

type graphPart struct {
	EdgeRuns []*edgeRun `parser:"@@ (',' @@)*"`
}

type edgeRun struct {
	StartVtx int64   `parser:"@Int"`
	NextVtx  []int64 `parser:"('-' @Int)*"`
}

var parseGraphExpr = participle.MustBuild[graphExpr](participle.UseLookahead(2))

type graphBuilder struct {
	vtx0   int // vertex offset of the current part
	maxVtx int
	edges  [][2]int
}

func (Xb *graphBuilder) tallyVtx(id int64) (int, error) {
	vi := Xb.vtx0 + int(id)
	if id < 1 || vi > MaxVtx {
		return 0, errors.Wrapf(ErrInvalidGraph, "vertex ID %d out of range", id)
	}
	if Xb.maxVtx < vi {
		Xb.maxVtx = vi
	}
	return vi - 1, nil
}

func (Xb *graphBuilder) applyPart(part *graphPart) error {
	Xb.vtx0 = Xb.maxVtx

	for _, run := range part.EdgeRuns {
		onVtx, err := Xb.tallyVtx(run.StartVtx)
		if err != nil {
			return err
		}
		for _, next := range run.NextVtx {
			nextVtx, err := Xb.tallyVtx(next)
			if err != nil {
				return err
			}
			Xb.edges = append(Xb.edges, [2]int{onVtx, nextVtx})
			onVtx = nextVtx
		}
	}
	return nil
}

// ParseGraph builds a Graph from a graph expression.
func ParseGraph(expr string) (*Graph, error) {
	Xexpr, err := parseGraphExpr.ParseString("", expr)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidGraph, "parse %q: %v", expr, err)
	}

	var Xb graphBuilder
	for _, part := range Xexpr.Parts {
		if err = Xb.applyPart(part); err != nil {
			return nil, err
		}
	}

	vtxCount := Xb.maxVtx
	if Xexpr.VtxCount != nil {
		vtxCount = int(*Xexpr.VtxCount)
		if vtxCount < Xb.maxVtx {
			return nil, errors.Wrapf(ErrInvalidGraph, "declared vertex count %d below max vertex ID %d", vtxCount, Xb.maxVtx)
		}
	}

	X, err := NewGraph(vtxCount)
	if err != nil {
		return nil, err
	}
	for _, edge := range Xb.edges {
		if err = X.AddEdge(edge[0], edge[1]); err != nil {
			return nil, err
		}
	}
	return X, nil
}
