package gogen

import (
	"github.com/pkg/errors"
)

// CanonicalForm is the graph6 encoding of a graph under its canonical vertex
// ordering: one header byte (n + 63) followed by the upper triangle of the
// adjacency matrix in column order -- x(0,1), x(0,2), x(1,2), x(0,3), ... --
// packed 6 bits per byte, each offset by 63.
//
// CanonicalForms compare byte-exact and are totally ordered; since the header
// byte leads, forms sort by vertex count first. Two graphs are isomorphic iff
// a Canonizer maps them to equal CanonicalForms.
type CanonicalForm string

func (form CanonicalForm) String() string {
	return string(form)
}

// VtxCount returns the vertex count encoded in this form, or -1 if the form is malformed.
func (form CanonicalForm) VtxCount() int {
	if len(form) == 0 {
		return -1
	}
	n := int(form[0]) - 63
	if n < 0 || n > MaxVtx || len(form) != 1+graph6ByteCount(n) {
		return -1
	}
	return n
}

// Graph decodes this form back into a labeled graph.
func (form CanonicalForm) Graph() (*Graph, error) {
	n := form.VtxCount()
	if n < 0 {
		return nil, errors.Wrapf(ErrBadEncoding, "%q", string(form))
	}
	X := &Graph{vtxCount: n}
	k := 0
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			c := form[1+k/6] - 63
			if c > 63 {
				return nil, errors.Wrapf(ErrBadEncoding, "%q: byte %d out of range", string(form), 1+k/6)
			}
			if c&(1<<uint(5-k%6)) != 0 {
				X.rows[i] |= 1 << uint(j)
				X.rows[j] |= 1 << uint(i)
			}
			k++
		}
	}
	// Padding bits beyond the triangle must be zero.
	for ; k < 6*graph6ByteCount(n); k++ {
		if (form[1+k/6]-63)&(1<<uint(5-k%6)) != 0 {
			return nil, errors.Wrapf(ErrBadEncoding, "%q: nonzero padding", string(form))
		}
	}
	return X, nil
}

// FromGraph6 decodes a graph6 string into a labeled graph.
func FromGraph6(g6 string) (*Graph, error) {
	return CanonicalForm(g6).Graph()
}

// Graph6 encodes this graph under its current (identity) vertex ordering.
// The result is canonical only if the graph is already canonically labeled.
func (X *Graph) Graph6() CanonicalForm {
	words := make([]uint64, Graph6WordCount(X.vtxCount))
	order := make([]int, X.vtxCount)
	for vi := range order {
		order[vi] = vi
	}
	EncodeAdjacency(words, X, order)
	return FormFromBits(X.vtxCount, words)
}

// Graph6BitCount returns the number of adjacency bits in the graph6 body for n vertices.
func Graph6BitCount(n int) int {
	return n * (n - 1) / 2
}

// Graph6WordCount returns the number of uint64 words needed to hold those bits.
func Graph6WordCount(n int) int {
	return (Graph6BitCount(n) + 63) / 64
}

func graph6ByteCount(n int) int {
	return (Graph6BitCount(n) + 5) / 6
}

// EncodeAdjacency fills words with the adjacency bits of X restricted to the
// given vertex ordering, in graph6 bit order with the first bit at the high
// end of words[0]. With that layout, comparing two encodings word by word as
// unsigned integers is exactly lexicographic bit comparison.
//
// order may be a prefix of a full ordering, in which case only the leading
// len(order)*(len(order)-1)/2 bits are meaningful; the rest are left zero.
func EncodeAdjacency(words []uint64, X *Graph, order []int) {
	for wi := range words {
		words[wi] = 0
	}
	k := 0
	for j := 1; j < len(order); j++ {
		for i := 0; i < j; i++ {
			if X.HasEdge(order[i], order[j]) {
				words[k>>6] |= 1 << uint(63-k&63)
			}
			k++
		}
	}
}

// CompareBits lexicographically compares the first numBits of a and b.
func CompareBits(a, b []uint64, numBits int) int {
	wholeWords := numBits >> 6
	for wi := 0; wi < wholeWords; wi++ {
		if a[wi] != b[wi] {
			if a[wi] < b[wi] {
				return -1
			}
			return 1
		}
	}
	rem := numBits & 63
	if rem == 0 {
		return 0
	}
	mask := ^uint64(0) << uint(64-rem)
	av, bv := a[wholeWords]&mask, b[wholeWords]&mask
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	}
	return 0
}

// FormFromBits packs adjacency bits laid out by EncodeAdjacency into a CanonicalForm.
func FormFromBits(n int, words []uint64) CanonicalForm {
	nb := Graph6BitCount(n)
	out := make([]byte, 1+graph6ByteCount(n))
	out[0] = byte(63 + n)
	for k := 0; k < nb; k++ {
		if words[k>>6]&(1<<uint(63-k&63)) != 0 {
			out[1+k/6] |= 1 << uint(5-k%6)
		}
	}
	for bi := 1; bi < len(out); bi++ {
		out[bi] += 63
	}
	return CanonicalForm(out)
}
