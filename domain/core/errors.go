package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Argument validation errors, rejected before any fitting work begins
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrEmptyDataset           = fmt.Errorf("%w: dataset is empty", ErrInvalidArgument)
	ErrColumnNotFound         = errors.New("column not found")
	ErrInsufficientCategories = fmt.Errorf("%w: outcome has fewer than 2 categories", ErrInvalidArgument)

	// Fit failure errors from the model fitter
	ErrFitFailed      = errors.New("model fit failed")
	ErrNonConvergence = fmt.Errorf("%w: optimizer did not converge", ErrFitFailed)
	ErrSingularDesign = fmt.Errorf("%w: singular design matrix", ErrFitFailed)
	ErrDegenerateFit  = fmt.Errorf("%w: non-finite coefficients", ErrFitFailed)

	// Lookup errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)
)

// Error constructors with context
func NewInvalidArgumentError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArgument, field, reason)
}

func NewColumnNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

func NewFitError(reason string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrFitFailed, reason, cause)
	}
	return fmt.Errorf("%w: %s", ErrFitFailed, reason)
}

// Error checking helpers
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrColumnNotFound)
}

func IsFitFailure(err error) bool {
	return errors.Is(err, ErrFitFailed)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
