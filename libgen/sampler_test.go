package libgen_test

import (
	"context"
	"testing"

	"github.com/graphgen-systems/graphgen/gogen"
	"github.com/graphgen-systems/graphgen/libgen"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// listSource cycles through a fixed list of graphs.
type listSource struct {
	graphs []*gogen.Graph
	next   int
}

func (src *listSource) Next() *gogen.Graph {
	X := src.graphs[src.next%len(src.graphs)]
	src.next++
	return X.MakeCopy()
}

// classFixture returns numLabelings relabelings of each expr.
func classFixture(t *testing.T, exprs []string, numLabelings int) *listSource {
	t.Helper()
	src := &listSource{}
	for li := 0; li < numLabelings; li++ {
		for _, expr := range exprs {
			X := mustParse(t, expr)
			n := X.VtxCount()

			perm := make([]int, n)
			for vi := range perm {
				perm[(vi+li)%n] = vi
			}
			Y, err := X.Relabel(perm)
			require.NoError(t, err)
			src.graphs = append(src.graphs, Y)
		}
	}
	return src
}

var fiveClasses = []string{
	"4:",
	"4: 1-2",
	"4: 1-2,3-4",
	"1-2-3-4",
	"1-2-3-4-1,1-3,2-4",
}

func TestSampleUnique(t *testing.T) {
	src := classFixture(t, fiveClasses, 3)
	can := libgen.NewCanonizer(libgen.CanonizerOpts{})

	smplr := libgen.NewSampler(src, can, libgen.SamplerOpts{
		Mode:           libgen.ModeUnique,
		TargetCount:    5,
		CandidateLimit: 100,
		Seed:           1,
	})
	set, err := smplr.Sample(context.Background())
	require.NoError(t, err)

	require.Equal(t, 5, set.NumSamples())
	require.False(t, set.Truncated)
	require.Equal(t, 5, set.NumClasses())

	seen := map[gogen.CanonicalForm]bool{}
	for i := 0; i < set.NumSamples(); i++ {
		sample := set.At(i)
		require.False(t, seen[sample.Form], "duplicate class accepted")
		seen[sample.Form] = true

		// The representative must canonicalize to its own form
		form, autOrder, err := can.Canonize(&sample.Graph)
		require.NoError(t, err)
		require.Equal(t, sample.Form, form)
		require.Equal(t, sample.AutOrder, autOrder)
	}
}

func TestSampleTruncated(t *testing.T) {
	src := classFixture(t, fiveClasses[:3], 2)
	can := libgen.NewCanonizer(libgen.CanonizerOpts{})

	smplr := libgen.NewSampler(src, can, libgen.SamplerOpts{
		Mode:           libgen.ModeUnique,
		TargetCount:    10,
		CandidateLimit: 50,
		Seed:           1,
	})
	set, err := smplr.Sample(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, set.NumSamples())
	require.True(t, set.Truncated)
}

func TestSampleUniformDeterminism(t *testing.T) {
	can := libgen.NewCanonizer(libgen.CanonizerOpts{})

	runOnce := func() []gogen.CanonicalForm {
		src := classFixture(t, fiveClasses, 4)
		smplr := libgen.NewSampler(src, can, libgen.SamplerOpts{
			Mode:           libgen.ModeUniformClasses,
			TargetCount:    4,
			CandidateLimit: 200,
			Workers:        1,
			Seed:           42,
		})
		set, err := smplr.Sample(context.Background())
		require.NoError(t, err)

		forms := make([]gogen.CanonicalForm, 0, set.NumSamples())
		for i := 0; i < set.NumSamples(); i++ {
			forms = append(forms, set.At(i).Form)
		}
		return forms
	}

	first := runOnce()
	require.NotEmpty(t, first)
	require.Equal(t, first, runOnce())
}

func TestSampleParallelWorkers(t *testing.T) {
	src := classFixture(t, fiveClasses, 10)
	can := libgen.NewCanonizer(libgen.CanonizerOpts{})

	smplr := libgen.NewSampler(src, can, libgen.SamplerOpts{
		Mode:           libgen.ModeUnique,
		TargetCount:    5,
		CandidateLimit: 500,
		Workers:        4,
		Seed:           1,
	})
	set, err := smplr.Sample(context.Background())
	require.NoError(t, err)

	require.Equal(t, 5, set.NumSamples())
	seen := map[gogen.CanonicalForm]bool{}
	for i := 0; i < set.NumSamples(); i++ {
		form := set.At(i).Form
		require.False(t, seen[form])
		seen[form] = true
	}
}

func TestSampleSkipsOverLimitCandidates(t *testing.T) {
	// Complete graphs keep every labeling in play, blowing a tiny
	// search limit, so every candidate gets skipped.
	K6 := mustParse(t, "1-2,1-3,1-4,1-5,1-6,2-3,2-4,2-5,2-6,3-4,3-5,3-6,4-5,4-6,5-6")
	src := &listSource{graphs: []*gogen.Graph{K6}}
	can := libgen.NewCanonizer(libgen.CanonizerOpts{SearchLimit: 10})

	smplr := libgen.NewSampler(src, can, libgen.SamplerOpts{
		Mode:           libgen.ModeUnique,
		TargetCount:    1,
		CandidateLimit: 20,
		Seed:           1,
	})
	set, err := smplr.Sample(context.Background())
	require.NoError(t, err)

	require.Zero(t, set.NumSamples())
	require.True(t, set.Truncated)
}

// faultyCanonizer rejects every other candidate.
type faultyCanonizer struct {
	can   gogen.Canonizer
	calls int
}

func (fc *faultyCanonizer) Canonize(X *gogen.Graph) (gogen.CanonicalForm, uint64, error) {
	fc.calls++
	if fc.calls%2 == 1 {
		return "", 0, errors.WithStack(gogen.ErrInvalidGraph)
	}
	return fc.can.Canonize(X)
}

func TestSampleSurvivesCanonizeFailures(t *testing.T) {
	src := classFixture(t, fiveClasses, 4)
	can := &faultyCanonizer{can: libgen.NewCanonizer(libgen.CanonizerOpts{})}

	smplr := libgen.NewSampler(src, can, libgen.SamplerOpts{
		Mode:           libgen.ModeUnique,
		TargetCount:    5,
		CandidateLimit: 200,
		Seed:           1,
	})
	set, err := smplr.Sample(context.Background())
	require.NoError(t, err)

	require.Equal(t, 5, set.NumSamples())
	require.False(t, set.Truncated)
}

func TestSampleSetLookups(t *testing.T) {
	src := classFixture(t, fiveClasses, 3)
	can := libgen.NewCanonizer(libgen.CanonizerOpts{})

	smplr := libgen.NewSampler(src, can, libgen.SamplerOpts{
		Mode:           libgen.ModeUnique,
		TargetCount:    5,
		CandidateLimit: 100,
		Seed:           1,
	})
	set, err := smplr.Sample(context.Background())
	require.NoError(t, err)

	sample := set.At(0)
	require.NotZero(t, set.Hits(sample.Form))

	found, err := set.Contains(&sample.Graph, can)
	require.NoError(t, err)
	require.True(t, found)

	C5 := mustParse(t, "1-2-3-4-5-1")
	found, err = set.Contains(C5, can)
	require.NoError(t, err)
	require.False(t, found)

	forms := set.Forms()
	require.Len(t, forms, 5)
	for fi := 1; fi < len(forms); fi++ {
		require.True(t, forms[fi-1] < forms[fi], "forms not ascending")
	}
}

func TestSampleStreamOneShot(t *testing.T) {
	src := classFixture(t, fiveClasses, 1)
	can := libgen.NewCanonizer(libgen.CanonizerOpts{})

	smplr := libgen.NewSampler(src, can, libgen.SamplerOpts{
		TargetCount:    5,
		CandidateLimit: 100,
		Seed:           1,
	})
	set, err := smplr.Sample(context.Background())
	require.NoError(t, err)

	samples, err := set.Stream()
	require.NoError(t, err)
	numStreamed := 0
	for range samples {
		numStreamed++
	}
	require.Equal(t, set.NumSamples(), numStreamed)

	_, err = set.Stream()
	require.True(t, errors.Is(err, gogen.ErrStreamConsumed), "got %v", err)
}

func TestDropDupes(t *testing.T) {
	can := libgen.NewCanonizer(libgen.CanonizerOpts{})
	dupes := libgen.NewDropDupes(can, libgen.DropDupeOpts{})

	P4 := mustParse(t, "1-2-3-4")
	require.True(t, dupes.TryAddGraph(P4))
	require.False(t, dupes.TryAddGraph(P4))

	// A relabeled path is still a duplicate
	Y, err := P4.Relabel([]int{3, 1, 2, 0})
	require.NoError(t, err)
	require.False(t, dupes.TryAddGraph(Y))

	require.True(t, dupes.TryAddGraph(mustParse(t, "1-2-3-4-1")))

	// Pipeline integration: 5 classes, 3 labelings each
	src := classFixture(t, fiveClasses, 3)
	passed := gogen.SourceStream(src, 15).
		AddTo(libgen.NewDropDupes(can, libgen.DropDupeOpts{})).
		PullAll()
	require.Equal(t, 5, passed)
}
