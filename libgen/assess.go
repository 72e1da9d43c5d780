package libgen

import (
	"context"
	"math"
	"sync"

	"github.com/graphgen-systems/graphgen/gogen"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ClassCounts is a census of canonical forms: how many candidates
// landed in each isomorphism class.
type ClassCounts map[gogen.CanonicalForm]int64

// Merge folds other into counts.
func (counts ClassCounts) Merge(other ClassCounts) {
	for form, ct := range other {
		counts[form] += ct
	}
}

func (counts ClassCounts) Total() int64 {
	total := int64(0)
	for _, ct := range counts {
		total += ct
	}
	return total
}

// deviations returns, for each class, the distance between its
// empirical probability and the uniform probability 1/n.
func (counts ClassCounts) deviations() []float64 {
	total := float64(counts.Total())
	uniform := 1 / float64(len(counts))

	devs := make([]float64, 0, len(counts))
	for _, ct := range counts {
		devs = append(devs, math.Abs(float64(ct)/total-uniform))
	}
	return devs
}

// SDOD is the summed deviation of the observed class distribution from
// the uniform one. It ranges over [0, 2); smaller means the candidate
// source treats classes more evenly.
func (counts ClassCounts) SDOD() float64 {
	if len(counts) == 0 {
		return 0
	}
	sum := 0.0
	for _, dev := range counts.deviations() {
		sum += dev
	}
	return sum
}

// MDOD is the mean deviation of the observed class distribution from
// the uniform one, SDOD divided by the class count.
func (counts ClassCounts) MDOD() float64 {
	if len(counts) == 0 {
		return 0
	}
	return counts.SDOD() / float64(len(counts))
}

// CensusOpts configures CountClasses.
type CensusOpts struct {
	NumGraphs int64

	// Workers is how many goroutines pull and canonicalize in
	// parallel. Zero means one.
	Workers int
}

// CountClasses pulls NumGraphs candidates from src, canonicalizes each,
// and tallies the classes hit. Candidates exceeding the canonical
// search limit are dropped from the census. Source pulls are
// serialized; canonicalization runs on opts.Workers goroutines.
func CountClasses(ctx context.Context, src gogen.GraphSource, can gogen.Canonizer, opts CensusOpts) (ClassCounts, error) {
	if opts.NumGraphs <= 0 {
		return nil, errors.Wrap(gogen.ErrBadModelParam, "census needs a positive graph count")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	pulled := int64(0)
	counts := make(ClassCounts)

	grp, grpCtx := errgroup.WithContext(ctx)
	for wi := 0; wi < workers; wi++ {
		grp.Go(func() error {
			local := make(ClassCounts)
			for {
				if err := grpCtx.Err(); err != nil {
					return err
				}

				mu.Lock()
				if pulled >= opts.NumGraphs {
					mu.Unlock()
					break
				}
				pulled++
				X := src.Next()
				mu.Unlock()

				form, _, err := can.Canonize(X)
				if err != nil {
					if errors.Is(err, gogen.ErrSearchLimitExceeded) {
						continue
					}
					return err
				}
				local[form]++
			}

			mu.Lock()
			counts.Merge(local)
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
