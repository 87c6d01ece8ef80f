package ports

import (
	"context"

	"goperm/domain/dataset"
	"goperm/domain/model"
)

// FitterPort estimates a multinomial logistic regression. The fit either
// succeeds with a complete coefficient matrix (reference category excluded,
// stable category and coefficient order) or fails with a fit error carrying
// the numerical reason; degenerate coefficients are never returned silently.
type FitterPort interface {
	Fit(ctx context.Context, ds *dataset.Dataset, spec model.Spec) (*model.Coefficients, error)
}
