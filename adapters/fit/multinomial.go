package fit

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"goperm/domain/core"
	"goperm/domain/dataset"
	"goperm/domain/model"
	"goperm/ports"
)

// Fitter estimates multinomial logistic regression coefficients by penalized
// maximum likelihood. Coefficients are expressed against the reference
// category, whose own coefficients are fixed at zero.
type Fitter struct {
	// MaxIter bounds the optimizer's major iterations
	MaxIter int
	// Tol is the gradient-norm convergence threshold
	Tol float64
	// Ridge is a small L2 penalty that keeps the likelihood bounded under
	// quasi-separation. Zero disables it.
	Ridge float64
}

// NewFitter creates a fitter with default settings
func NewFitter() *Fitter {
	return &Fitter{
		MaxIter: 500,
		Tol:     1e-6,
		Ridge:   1e-6,
	}
}

var _ ports.FitterPort = (*Fitter)(nil)

// Fit estimates the coefficient matrix for the spec. It fails with a fit
// error on non-convergence, singular designs, or non-finite results; it never
// returns degenerate coefficients silently.
func (f *Fitter) Fit(ctx context.Context, ds *dataset.Dataset, spec model.Spec) (*model.Coefficients, error) {
	if err := spec.Validate(ds); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, err := buildDesign(ds, spec)
	if err != nil {
		return nil, err
	}

	n, p := d.x.Dims()
	km1 := len(d.categories)
	dim := km1 * p

	nll := func(theta []float64) float64 {
		return f.negLogLikelihood(d, theta, n, p, km1)
	}
	grad := func(g, theta []float64) {
		f.gradient(d, theta, g, n, p, km1)
	}

	problem := optimize.Problem{Func: nll, Grad: grad}
	settings := &optimize.Settings{
		GradientThreshold: f.Tol,
		MajorIterations:   f.MaxIter,
	}

	result, err := optimize.Minimize(problem, make([]float64, dim), settings, &optimize.LBFGS{})
	switch {
	case err == nil && converged(result.Status):
	case f.nearStationary(result, grad):
		// The line search can stall on a flat plateau after the gradient is
		// already below a loose multiple of the tolerance; the best point
		// found is still a usable optimum.
	case err != nil:
		return nil, core.NewFitError("optimizer failed", err)
	default:
		return nil, fmt.Errorf("%w: status %v after %d iterations",
			core.ErrNonConvergence, result.Status, result.Stats.MajorIterations)
	}

	coefs, err := model.NewCoefficients(d.reference, d.categories, d.names)
	if err != nil {
		return nil, err
	}
	for k := 0; k < km1; k++ {
		for j := 0; j < p; j++ {
			coefs.SetAt(k, j, result.X[k*p+j])
		}
	}
	if !coefs.IsFinite() {
		return nil, core.ErrDegenerateFit
	}

	return coefs, nil
}

// converged reports whether an optimizer status counts as a successful stop
func converged(status optimize.Status) bool {
	switch status {
	case optimize.GradientThreshold, optimize.FunctionConvergence,
		optimize.FunctionThreshold, optimize.StepConvergence,
		optimize.MethodConverge, optimize.Success:
		return true
	}
	return false
}

// nearStationary reports whether the optimizer's best point is finite with a
// gradient inf-norm within 1e3 of the convergence tolerance
func (f *Fitter) nearStationary(result *optimize.Result, grad func(g, theta []float64)) bool {
	if result == nil || len(result.X) == 0 {
		return false
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	g := result.Gradient
	if g == nil {
		g = make([]float64, len(result.X))
		grad(g, result.X)
	}
	norm := 0.0
	for _, v := range g {
		if a := math.Abs(v); a > norm {
			norm = a
		}
	}
	return norm <= f.Tol*1e3
}

// negLogLikelihood computes the ridge-penalized negative log-likelihood,
// scaled by 1/n so gradient magnitudes stay comparable across sample sizes
// (the scaling leaves the argmin unchanged).
// theta is laid out row-major: theta[k*p+j] is category k+1's coefficient for
// design column j; the reference category's linear score is identically zero.
func (f *Fitter) negLogLikelihood(d *design, theta []float64, n, p, km1 int) float64 {
	nll := 0.0
	row := make([]float64, p)
	scores := make([]float64, km1+1)

	for i := 0; i < n; i++ {
		mat.Row(row, i, d.x)
		scores[0] = 0
		for k := 0; k < km1; k++ {
			s := 0.0
			for j := 0; j < p; j++ {
				s += theta[k*p+j] * row[j]
			}
			scores[k+1] = s
		}
		nll += logSumExp(scores) - scores[d.y[i]]
	}

	if f.Ridge > 0 {
		penalty := 0.0
		for _, t := range theta {
			penalty += t * t
		}
		nll += 0.5 * f.Ridge * penalty
	}
	return nll / float64(n)
}

// gradient writes the analytic gradient of negLogLikelihood into g
func (f *Fitter) gradient(d *design, theta, g []float64, n, p, km1 int) {
	for i := range g {
		g[i] = 0
	}
	row := make([]float64, p)
	scores := make([]float64, km1+1)

	for i := 0; i < n; i++ {
		mat.Row(row, i, d.x)
		scores[0] = 0
		for k := 0; k < km1; k++ {
			s := 0.0
			for j := 0; j < p; j++ {
				s += theta[k*p+j] * row[j]
			}
			scores[k+1] = s
		}
		lse := logSumExp(scores)
		for k := 0; k < km1; k++ {
			prob := math.Exp(scores[k+1] - lse)
			indicator := 0.0
			if d.y[i] == k+1 {
				indicator = 1
			}
			diff := prob - indicator
			for j := 0; j < p; j++ {
				g[k*p+j] += diff * row[j]
			}
		}
	}

	if f.Ridge > 0 {
		for i := range g {
			g[i] += f.Ridge * theta[i]
		}
	}
	for i := range g {
		g[i] /= float64(n)
	}
}

// logSumExp computes log(sum(exp(scores))) with the usual max shift
func logSumExp(scores []float64) float64 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	sum := 0.0
	for _, s := range scores {
		sum += math.Exp(s - maxScore)
	}
	return maxScore + math.Log(sum)
}
