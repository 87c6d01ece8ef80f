package model

import (
	"goperm/domain/core"
	"goperm/domain/dataset"
)

// Spec names the outcome and predictor columns of a model. It is derived once
// per run and reused for the observed fit and every permuted fit.
type Spec struct {
	Outcome    string   `json:"outcome"`
	Predictors []string `json:"predictors"`

	// Reference optionally designates the outcome level whose coefficients
	// are fixed at zero. Empty means the first level encountered in the data.
	Reference string `json:"reference,omitempty"`
}

// NewSpec builds a model spec
func NewSpec(outcome string, predictors []string) Spec {
	return Spec{Outcome: outcome, Predictors: append([]string(nil), predictors...)}
}

// Validate checks the spec against a dataset before any fitting work begins
func (s Spec) Validate(ds *dataset.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	if s.Outcome == "" {
		return core.NewInvalidArgumentError("outcome", "empty column name")
	}

	outcome, ok := ds.Column(s.Outcome)
	if !ok {
		return core.NewColumnNotFoundError(s.Outcome)
	}
	if outcome.Kind != dataset.KindCategorical {
		return core.NewInvalidArgumentError("outcome", "must be categorical")
	}

	levels := outcome.Levels()
	if len(levels) < 2 {
		return core.ErrInsufficientCategories
	}
	if s.Reference != "" {
		found := false
		for _, lvl := range levels {
			if lvl == s.Reference {
				found = true
				break
			}
		}
		if !found {
			return core.NewInvalidArgumentError("reference", "not an outcome level: "+s.Reference)
		}
	}

	if len(s.Predictors) == 0 {
		return core.NewInvalidArgumentError("predictors", "empty list")
	}
	seen := make(map[string]bool, len(s.Predictors))
	for _, p := range s.Predictors {
		if p == s.Outcome {
			return core.NewInvalidArgumentError("predictors", "must be disjoint from outcome: "+p)
		}
		if seen[p] {
			return core.NewInvalidArgumentError("predictors", "duplicate: "+p)
		}
		seen[p] = true
		if !ds.HasColumn(p) {
			return core.NewColumnNotFoundError(p)
		}
	}

	return nil
}
