package gogen

const (

	// MaxVtx is the max possible vertex count of a Graph.
	// It is chosen so that every CanonicalForm fits the single-header-byte graph6 format.
	MaxVtx = 62

	// MaxEdgeCount is the max number of edges for the largest graph possible.
	MaxEdgeCount = MaxVtx * (MaxVtx - 1) / 2
)

// Sample is an accepted sampling result: a canonical form, a representative
// labeled graph of that isomorphism class, and the class's automorphism group order.
type Sample struct {
	Form     CanonicalForm
	Graph    Graph
	AutOrder uint64
}

// GraphSource produces a lazy, conceptually infinite sequence of candidate
// labeled graphs consistent with some configured model and vertex count.
// No canonicalization guarantee is required of a source.
type GraphSource interface {
	Next() *Graph
}

// GraphAdder is a dedup target.
type GraphAdder interface {

	// Tries to add the given graph to this collection.
	// If true is returned, no isomorphic graph was present and X was added.
	TryAddGraph(X *Graph) bool
}

// Canonizer computes the canonical form and automorphism group order of a graph.
//
// Two graphs are isomorphic iff their CanonicalForms are equal.
type Canonizer interface {
	Canonize(X *Graph) (CanonicalForm, uint64, error)
}

// OnGraphHit is a callback channel used to return Graphs meeting a set of selection criteria.
// Ownership of a Graph travels through the channel.
type OnGraphHit chan<- *Graph

// CatalogOpts specifies params for opening a catalog of canonical forms.
type CatalogOpts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool   // open in read-only mode
}

// Catalog wraps a database of canonical forms, shared across sampling sessions.
//
// The sampling core never opens one itself; a Catalog is always injected and
// externally owned.
type Catalog interface {

	// Tries to add the given canonical form to this catalog, bumping its hit count.
	// If true is returned, the form did not exist and was added.
	TryAddForm(form CanonicalForm) bool

	// NumForms returns the number of distinct canonical forms in this catalog
	// for a given vertex count. An out of range vertex count returns 0.
	NumForms(forVtxCount byte) int64

	// Select fires the given callback with each stored graph that meets the
	// selection criteria. The caller owns closing coordination; see implementations.
	Select(sel GraphSelector, onHit OnGraphHit)

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	Close() error
}

// CatalogContext is a container for open / active Catalog instances.
type CatalogContext interface {

	// Attaches the given Catalog to this context.
	AttachCatalog(cat Catalog)

	// Detaches the given Catalog from this context.
	DetachCatalog(cat Catalog)

	// Closes all open catalogs, then closes.
	Close()

	// Signals when Close() has completed and all open Catalogs have been closed.
	Done() <-chan struct{}
}

// GraphSelector is an operator that either selects a given stored graph or not.
type GraphSelector struct {
	MinVtx byte  // lower vertex count bound (0 selects from the smallest)
	MaxVtx byte  // upper vertex count bound (0 denotes MaxVtx)
	Limit  int64 // max graphs to emit (0 denotes no limit)
}

// DefaultGraphSelector selects every stored graph.
var DefaultGraphSelector = GraphSelector{
	MaxVtx: MaxVtx,
}

// PrintOpts specifies what is emitted when printing a graph.
type PrintOpts struct {
	Label  string // prefix label
	Graph6 bool   // if set, prints the graph6 encoding
	Matrix bool   // if set, prints the adjacency matrix
}

var DefaultPrintOpts = PrintOpts{
	Graph6: true,
}
