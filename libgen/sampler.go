package libgen

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/graphgen-systems/graphgen/gogen"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"golang.org/x/sync/errgroup"
)

// SampleMode selects how the sampler resolves duplicate isomorphism classes.
type SampleMode int32

const (

	// ModeUnique accepts the first candidate seen from each class and
	// rejects later duplicates.
	ModeUnique SampleMode = iota

	// ModeUniformClasses also yields distinct classes, but corrects for
	// the labeled multiplicity of each class so that, given enough
	// candidates, every class is equally likely to be accepted.
	ModeUniformClasses
)

type SamplerOpts struct {
	Mode SampleMode

	// TargetCount is how many distinct classes to collect.
	TargetCount int

	// CandidateLimit caps how many candidates are pulled from the
	// source before sampling stops and the result is marked truncated.
	// Zero means 100 times TargetCount.
	CandidateLimit int64

	// Workers is the number of goroutines canonicalizing candidates.
	// Zero means one; results are deterministic only for one worker.
	Workers int

	// Seed feeds the acceptance coin flips of ModeUniformClasses.
	// Zero seeds from the clock.
	Seed int64
}

var DefaultSamplerOpts = SamplerOpts{
	Mode:        ModeUnique,
	TargetCount: 100,
	Workers:     1,
}

// Sampler pulls candidate graphs from a source, canonicalizes them,
// and collects one representative per isomorphism class.
type Sampler struct {
	src  gogen.GraphSource
	can  gogen.Canonizer
	opts SamplerOpts
}

func NewSampler(src gogen.GraphSource, can gogen.Canonizer, opts SamplerOpts) *Sampler {
	if opts.TargetCount <= 0 {
		opts.TargetCount = DefaultSamplerOpts.TargetCount
	}
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = 100 * int64(opts.TargetCount)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	return &Sampler{
		src:  src,
		can:  can,
		opts: opts,
	}
}

// Sample runs until TargetCount distinct classes are collected, the
// candidate limit is reached, or ctx is canceled. Hitting the
// candidate limit is not an error; the returned set is marked
// Truncated instead.
func (smplr *Sampler) Sample(ctx context.Context) (*SampleSet, error) {
	set := NewSampleSet()

	run := sampleRun{
		Sampler: smplr,
		set:     set,
		rng:     rand.New(rand.NewSource(smplr.opts.Seed)),
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	for wi := 0; wi < smplr.opts.Workers; wi++ {
		grp.Go(func() error {
			return run.worker(grpCtx)
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	set.Truncated = run.pulled >= smplr.opts.CandidateLimit && set.NumSamples() < smplr.opts.TargetCount
	return set, nil
}

type sampleRun struct {
	*Sampler

	mu     sync.Mutex
	set    *SampleSet
	rng    *rand.Rand
	pulled int64
}

func (run *sampleRun) worker(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		run.mu.Lock()
		if run.set.NumSamples() >= run.opts.TargetCount || run.pulled >= run.opts.CandidateLimit {
			run.mu.Unlock()
			return nil
		}
		run.pulled++
		X := run.src.Next()
		run.mu.Unlock()

		// Canonicalization failures are local to one candidate and
		// never abort the run.
		form, autOrder, err := run.can.Canonize(X)
		if err != nil {
			if errors.Is(err, gogen.ErrSearchLimitExceeded) {
				klog.V(2).Infof("skipping candidate %s: %v", X.Graph6(), err)
			} else {
				klog.V(2).Infof("skipping candidate: %v", err)
			}
			continue
		}

		run.mu.Lock()
		run.consider(X, form, autOrder)
		run.mu.Unlock()
	}
}

// consider applies the configured acceptance rule to a canonicalized
// candidate. Callers hold run.mu.
func (run *sampleRun) consider(X *gogen.Graph, form gogen.CanonicalForm, autOrder uint64) {
	if run.set.NumSamples() >= run.opts.TargetCount {
		return
	}

	entry := run.set.hit(form)
	if entry.accepted {
		return
	}

	switch run.opts.Mode {
	case ModeUnique:
		if entry.hits > 1 {
			return
		}
	case ModeUniformClasses:
		// Classes with many labelings show up proportionally more
		// often among candidates. Accepting with probability
		// min(1, autOrder/hits) flattens that bias: a class with
		// few automorphisms has many labelings and gets thinned,
		// while a rigid class seen once is taken outright.
		if autOrder < entry.hits {
			if run.rng.Float64()*float64(entry.hits) >= float64(autOrder) {
				return
			}
		}
	}

	entry.accepted = true
	run.set.accept(gogen.Sample{
		Form:     form,
		Graph:    *X,
		AutOrder: autOrder,
	})
}

// classEntry tracks one isomorphism class encountered during sampling.
type classEntry struct {
	hits     uint64
	accepted bool
}

// SampleSet holds accepted samples in generation order alongside an
// ordered index by canonical form.
type SampleSet struct {

	// Truncated is set when sampling stopped at the candidate limit
	// before reaching its target.
	Truncated bool

	samples   []gogen.Sample
	byForm    *redblacktree.Tree
	prefilter map[string]int

	streamMu sync.Mutex
	streamed bool
}

func NewSampleSet() *SampleSet {
	return &SampleSet{
		byForm: redblacktree.NewWith(func(a, b interface{}) int {
			fa, fb := a.(gogen.CanonicalForm), b.(gogen.CanonicalForm)
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}),
		prefilter: make(map[string]int),
	}
}

// hit records an encounter of form and returns its class entry with
// the hit count already advanced.
func (set *SampleSet) hit(form gogen.CanonicalForm) *classEntry {
	if val, found := set.byForm.Get(form); found {
		entry := val.(*classEntry)
		entry.hits++
		return entry
	}
	entry := &classEntry{hits: 1}
	set.byForm.Put(form, entry)
	return entry
}

func (set *SampleSet) accept(sample gogen.Sample) {
	set.samples = append(set.samples, sample)
	set.prefilter[RefinementKey(&sample.Graph)]++
}

func (set *SampleSet) NumSamples() int {
	return len(set.samples)
}

// At returns the i-th accepted sample in generation order.
func (set *SampleSet) At(i int) gogen.Sample {
	return set.samples[i]
}

// NumClasses returns how many distinct classes were encountered,
// accepted or not.
func (set *SampleSet) NumClasses() int {
	return set.byForm.Size()
}

// Hits returns how many candidates canonicalized to the given form.
func (set *SampleSet) Hits(form gogen.CanonicalForm) uint64 {
	if val, found := set.byForm.Get(form); found {
		return val.(*classEntry).hits
	}
	return 0
}

// Contains reports whether an accepted sample is isomorphic to X.
// The refinement key screens out most misses without canonicalizing.
func (set *SampleSet) Contains(X *gogen.Graph, can gogen.Canonizer) (bool, error) {
	if set.prefilter[RefinementKey(X)] == 0 {
		return false, nil
	}
	form, _, err := can.Canonize(X)
	if err != nil {
		return false, err
	}
	if val, found := set.byForm.Get(form); found {
		return val.(*classEntry).accepted, nil
	}
	return false, nil
}

// Forms returns the accepted canonical forms in ascending order.
func (set *SampleSet) Forms() []gogen.CanonicalForm {
	forms := make([]gogen.CanonicalForm, 0, len(set.samples))
	iter := set.byForm.Iterator()
	for iter.Next() {
		if iter.Value().(*classEntry).accepted {
			forms = append(forms, iter.Key().(gogen.CanonicalForm))
		}
	}
	return forms
}

// Stream emits the accepted samples in generation order. Each set can
// be streamed once; later calls return ErrStreamConsumed.
func (set *SampleSet) Stream() (<-chan gogen.Sample, error) {
	set.streamMu.Lock()
	defer set.streamMu.Unlock()

	if set.streamed {
		return nil, errors.WithStack(gogen.ErrStreamConsumed)
	}
	set.streamed = true

	out := make(chan gogen.Sample, 1)
	go func() {
		for _, sample := range set.samples {
			out <- sample
		}
		close(out)
	}()
	return out, nil
}

// GraphStream adapts the accepted samples into a graph pipeline.
func (set *SampleSet) GraphStream() (*gogen.GraphStream, error) {
	samples, err := set.Stream()
	if err != nil {
		return nil, err
	}
	next := gogen.NewGraphStream()
	go func() {
		for sample := range samples {
			X := sample.Graph
			next.Outlet <- &X
		}
		next.Close()
	}()
	return next, nil
}
