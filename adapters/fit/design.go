package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"goperm/domain/core"
	"goperm/domain/dataset"
	"goperm/domain/model"
)

// interceptName is the first coefficient of every model
const interceptName = "Intercept"

// design holds the expanded numeric form of a model spec: the n x p design
// matrix, the outcome encoded as category indices (0 = reference), and the
// stable coefficient and category orderings every fit of a run must share.
type design struct {
	names      []string // coefficient names, intercept first
	categories []string // non-reference outcome levels in stable order
	reference  string
	x          *mat.Dense
	y          []int // category index per row; 0 is the reference
}

// buildDesign expands the dataset into the design matrix. Categorical
// predictors are dummy coded against their first-encountered level: a binary
// predictor contributes a single column named after the predictor, a
// multi-level predictor contributes one "Name=Level" column per non-baseline
// level.
func buildDesign(ds *dataset.Dataset, spec model.Spec) (*design, error) {
	outcome, _ := ds.Column(spec.Outcome)
	levels := outcome.Levels()

	reference := spec.Reference
	if reference == "" {
		reference = levels[0]
	}
	categories := make([]string, 0, len(levels)-1)
	catIndex := map[string]int{reference: 0}
	for _, lvl := range levels {
		if lvl == reference {
			continue
		}
		catIndex[lvl] = len(categories) + 1
		categories = append(categories, lvl)
	}

	n := ds.RowCount()
	y := make([]int, n)
	for i, lvl := range outcome.Cats {
		y[i] = catIndex[lvl]
	}

	// Expand predictor columns
	names := []string{interceptName}
	cols := [][]float64{constantColumn(n)}
	for _, pred := range spec.Predictors {
		col, _ := ds.Column(pred)
		switch col.Kind {
		case dataset.KindNumeric:
			for _, v := range col.Nums {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, core.NewInvalidArgumentError(pred, "non-finite value")
				}
			}
			if constant(col.Nums) {
				return nil, fmt.Errorf("%w: predictor %q has no variation", core.ErrSingularDesign, pred)
			}
			names = append(names, pred)
			cols = append(cols, col.Nums)

		case dataset.KindCategorical:
			predLevels := col.Levels()
			if len(predLevels) < 2 {
				return nil, fmt.Errorf("%w: predictor %q has a single level", core.ErrSingularDesign, pred)
			}
			// First level is the baseline; binary predictors keep the bare name
			for _, lvl := range predLevels[1:] {
				name := pred
				if len(predLevels) > 2 {
					name = pred + "=" + lvl
				}
				dummy := make([]float64, n)
				for i, v := range col.Cats {
					if v == lvl {
						dummy[i] = 1
					}
				}
				names = append(names, name)
				cols = append(cols, dummy)
			}
		}
	}

	x := mat.NewDense(n, len(cols), nil)
	for j, col := range cols {
		x.SetCol(j, col)
	}

	if err := checkRank(x); err != nil {
		return nil, err
	}

	return &design{
		names:      names,
		categories: categories,
		reference:  reference,
		x:          x,
		y:          y,
	}, nil
}

// checkRank rejects rank-deficient design matrices before optimization, so
// collinear predictors surface as a fit error instead of a silent drift to
// arbitrary coefficients.
func checkRank(x *mat.Dense) error {
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDNone) {
		return fmt.Errorf("%w: SVD factorization failed", core.ErrSingularDesign)
	}
	values := svd.Values(nil)
	if len(values) == 0 || values[0] == 0 {
		return core.ErrSingularDesign
	}
	if values[len(values)-1]/values[0] < 1e-10 {
		return fmt.Errorf("%w: condition number too large", core.ErrSingularDesign)
	}
	return nil
}

func constantColumn(n int) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = 1
	}
	return col
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
