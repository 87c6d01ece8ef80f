package permutation

import (
	"fmt"
)

// ObservedFit is the Permutation value of a FitFailure raised by the fit of
// the unpermuted data.
const ObservedFit = -1

// FitFailure reports that a model fit failed and which fit it was, so the
// caller can decide whether to inspect the data, check predictor
// separability, or adjust nreps. No partial p-values accompany it.
type FitFailure struct {
	// Permutation is the failed permutation index, or ObservedFit
	Permutation int
	// Outcome is the column being tested
	Outcome string
	// Err is the underlying numerical cause
	Err error
}

func (e *FitFailure) Error() string {
	if e.Permutation == ObservedFit {
		return fmt.Sprintf("observed fit for outcome %q failed: %v", e.Outcome, e.Err)
	}
	return fmt.Sprintf("fit for permutation %d of outcome %q failed: %v", e.Permutation, e.Outcome, e.Err)
}

func (e *FitFailure) Unwrap() error {
	return e.Err
}
