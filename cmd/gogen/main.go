package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/graphgen-systems/graphgen/gogen"
	"github.com/graphgen-systems/graphgen/libgen"
	"github.com/graphgen-systems/graphgen/libgen/catalog"
	"github.com/plan-systems/klog"
)

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	configPath := flag.String("config", "", "yaml config file, defaults apply if omitted")
	flag.Parse()

	if err := run(*configPath); err != nil {
		klog.Errorf("%v", err)
		klog.Flush()
		os.Exit(1)
	}

	klog.Flush()
}

func run(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	src, err := cfg.Source()
	if err != nil {
		return err
	}
	mode, err := cfg.SampleMode()
	if err != nil {
		return err
	}

	can := libgen.NewCanonizer(libgen.CanonizerOpts{
		SearchLimit: cfg.SearchLimit,
	})

	out := io.Writer(os.Stdout)
	if cfg.Out != "" {
		f, err := os.Create(cfg.Out)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	smplr := libgen.NewSampler(src, can, libgen.SamplerOpts{
		Mode:           mode,
		TargetCount:    cfg.Count,
		CandidateLimit: cfg.Limit,
		Workers:        cfg.Workers,
		Seed:           cfg.Seed,
	})

	set, err := smplr.Sample(context.Background())
	if err != nil {
		return err
	}
	if set.Truncated {
		klog.Warningf("candidate limit hit with %d of %d classes collected", set.NumSamples(), cfg.Count)
	}

	samples, err := set.Stream()
	if err != nil {
		return err
	}
	for sample := range samples {
		fmt.Fprintf(out, "%s,%d\n", sample.Form, sample.AutOrder)
	}
	klog.Infof("collected %d classes from %d seen", set.NumSamples(), set.NumClasses())

	if cfg.Catalog != "" {
		if err := recordInCatalog(cfg, set); err != nil {
			return err
		}
	}

	if cfg.Assess {
		if err := assess(cfg, src, can); err != nil {
			return err
		}
	}
	return nil
}

// recordInCatalog folds the accepted forms of a run into a shared db.
func recordInCatalog(cfg *Config, set *libgen.SampleSet) error {
	catCtx := gogen.NewCatalogContext()
	cat, err := catalog.OpenCatalog(catCtx, gogen.CatalogOpts{
		DbPathName: cfg.Catalog,
	})
	if err != nil {
		return err
	}

	numAdded := 0
	for _, form := range set.Forms() {
		if cat.TryAddForm(form) {
			numAdded++
		}
	}
	klog.Infof("catalog %s: %d forms added, %d total with %d vertices",
		cfg.Catalog, numAdded, cat.NumForms(byte(cfg.Vertices)), cfg.Vertices)

	catCtx.Close()
	<-catCtx.Done()
	return nil
}

// assess runs a class census on a fresh source and reports how evenly
// the model covers isomorphism classes.
func assess(cfg *Config, src gogen.GraphSource, can gogen.Canonizer) error {
	counts, err := libgen.CountClasses(context.Background(), src, can, libgen.CensusOpts{
		NumGraphs: cfg.AssessGraphs,
		Workers:   cfg.Workers,
	})
	if err != nil {
		return err
	}
	klog.Infof("census of %d candidates: %d classes, SDOD=%.4f MDOD=%.6f",
		cfg.AssessGraphs, len(counts), counts.SDOD(), counts.MDOD())
	return nil
}
