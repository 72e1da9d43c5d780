package gogen

import (
	"fmt"
	"io"
	"strings"
)

// GraphStream is a lazy sequence of graphs flowing through a channel.
// Ownership of each Graph travels with it.
type GraphStream struct {
	Outlet chan *Graph
}

func NewGraphStream() *GraphStream {
	return &GraphStream{
		Outlet: make(chan *Graph),
	}
}

func (stream *GraphStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *GraphStream) PushGraph(X *Graph) {
	stream.Outlet <- X.MakeCopy()
}

func (stream *GraphStream) PullGraph() *Graph {
	return <-stream.Outlet
}

// PullAll drains this stream, returning the number of graphs pulled.
func (stream *GraphStream) PullAll() int {
	count := 0
	for range stream.Outlet {
		count++
	}
	return count
}

// SourceStream pulls numGraphs candidates from the given source into a stream.
func SourceStream(src GraphSource, numGraphs int) *GraphStream {
	next := &GraphStream{
		Outlet: make(chan *Graph, 1),
	}

	go func() {
		for i := 0; i < numGraphs; i++ {
			next.Outlet <- src.Next()
		}
		next.Close()
	}()

	return next
}

// AddTo forwards only the graphs newly added to target, dropping the rest.
func (stream *GraphStream) AddTo(target GraphAdder) *GraphStream {
	next := &GraphStream{
		Outlet: make(chan *Graph, 1),
	}

	go func() {
		for X := range stream.Outlet {
			if target.TryAddGraph(X) {
				next.Outlet <- X
			}
		}
		next.Close()
	}()

	return next
}

// Print writes each graph that passes through to out, one line per graph.
func (stream *GraphStream) Print(out io.Writer, opts PrintOpts) *GraphStream {
	next := &GraphStream{
		Outlet: make(chan *Graph, 1),
	}

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		count := 0
		for X := range stream.Outlet {
			count++
			if len(opts.Label) > 0 {
				fmt.Fprintf(&buf, "%s,%06d,", opts.Label, count)
			}
			X.WriteAsString(&buf, PrintOpts{Graph6: opts.Graph6, Matrix: opts.Matrix})
			buf.WriteByte('\n')
			io.WriteString(out, buf.String())
			buf.Reset()
			next.Outlet <- X
		}
		next.Close()
	}()

	return next
}
