package permutation

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"goperm/domain/core"
	"goperm/domain/dataset"
	"goperm/domain/model"
	"goperm/internal/rng"
	"goperm/ports"
)

// Config controls a tester's execution
type Config struct {
	// Seed is the root seed; every permutation derives its own stream from it
	Seed int64
	// Workers bounds concurrent permutation fits; 0 means GOMAXPROCS
	Workers int
	// Reference optionally designates the outcome level used as the model
	// baseline; empty means the first level encountered in the data
	Reference string
	// RNG supplies seeded streams; nil selects the default stream factory
	RNG ports.RNGPort
}

// Tester orchestrates permutation significance testing: fit the observed
// model, refit under nreps random relabelings of the outcome, and compare the
// observed coefficients against the resulting null distribution.
type Tester struct {
	fitter    ports.FitterPort
	rngPort   ports.RNGPort
	seed      int64
	workers   int
	reference string
}

// New creates a tester around a model fitter
func New(fitter ports.FitterPort, cfg Config) *Tester {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	rngPort := cfg.RNG
	if rngPort == nil {
		rngPort = rng.NewStreamFactory()
	}
	return &Tester{
		fitter:    fitter,
		rngPort:   rngPort,
		seed:      cfg.Seed,
		workers:   workers,
		reference: cfg.Reference,
	}
}

// Run executes a permutation test and returns the p-value table
func (t *Tester) Run(ctx context.Context, ds *dataset.Dataset, outcome string, predictors []string, nreps int) (*model.PValueTable, error) {
	report, err := t.RunReport(ctx, ds, outcome, predictors, nreps)
	if err != nil {
		return nil, err
	}
	return report.PValues, nil
}

// RunReport executes a permutation test and returns the full report: the
// p-value table plus observed coefficients, null-distribution summaries, and
// the run's audit metadata.
//
// All validation happens before any fitting work begins. The run is
// all-or-nothing: a failed fit on any permutation aborts the whole run, since
// a p-value computed against an incomplete null distribution would be
// silently biased.
func (t *Tester) RunReport(ctx context.Context, ds *dataset.Dataset, outcome string, predictors []string, nreps int) (*model.Report, error) {
	start := time.Now()

	if nreps < 1 {
		return nil, core.NewInvalidArgumentError("nreps", fmt.Sprintf("must be >= 1, got %d", nreps))
	}
	spec := model.NewSpec(outcome, predictors)
	spec.Reference = t.reference
	if err := spec.Validate(ds); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observed, err := t.fitter.Fit(ctx, ds, spec)
	if err != nil {
		return nil, &FitFailure{Permutation: ObservedFit, Outcome: outcome, Err: err}
	}

	nulls, err := model.NewNullDistribution(observed, nreps)
	if err != nil {
		return nil, err
	}

	// Permuted datasets may encounter outcome levels in a different row
	// order, so the observed fit's reference is pinned for every refit to
	// keep the coefficient matrix shape identical across the run.
	loopSpec := spec
	loopSpec.Reference = observed.Reference

	runID := core.NewID()
	log.Printf("[PermutationTester] run %s: outcome=%s predictors=%v nreps=%d seed=%d workers=%d",
		runID, outcome, predictors, nreps, t.seed, t.workers)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(t.workers)

	rows := ds.RowCount()
	for i := 0; i < nreps; i++ {
		rep := i
		group.Go(func() error {
			// Stop dispatching work once any permutation has failed;
			// in-flight fits run to completion on their own.
			if err := gctx.Err(); err != nil {
				return err
			}

			stream, err := t.rngPort.PermutationStream(gctx, rep, t.seed)
			if err != nil {
				return err
			}

			permuted, err := ds.WithColumnReordered(outcome, stream.Perm(rows))
			if err != nil {
				return err
			}

			coefs, err := t.fitter.Fit(gctx, permuted, loopSpec)
			if err != nil {
				return &FitFailure{Permutation: rep, Outcome: outcome, Err: err}
			}
			return nulls.Record(rep, coefs)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if !nulls.Complete() {
		return nil, fmt.Errorf("null distribution incomplete after %d permutations", nreps)
	}

	pvals, err := computePValues(observed, nulls)
	if err != nil {
		return nil, err
	}
	pvals.Seal()

	report, err := model.NewReport(core.RunID(runID), spec, nreps, t.seed, t.workers, rows, observed, nulls, pvals)
	if err != nil {
		return nil, err
	}
	report.RuntimeMs = time.Since(start).Milliseconds()

	log.Printf("[PermutationTester] run %s completed in %dms (%d categories x %d coefficients)",
		report.RunID, report.RuntimeMs, len(pvals.Categories), len(pvals.Names))

	return report, nil
}
