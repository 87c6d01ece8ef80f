package permutation

import (
	"goperm/domain/model"
)

// computePValues derives the empirical two-tailed p-value for every
// (category, coefficient) cell. The test statistic's extremity is made
// symmetric around zero: with obs the observed coefficient, the left tail
// counts null values <= min(obs, -obs) and the right tail counts null values
// >= max(obs, -obs).
//
// When obs is exactly zero both tails count the same null values, so the sum
// can exceed the true two-sided proportion. That is a known property of the
// procedure and is deliberately left as is.
func computePValues(observed *model.Coefficients, nulls *model.NullDistribution) (*model.PValueTable, error) {
	table, err := model.NewPValueTable(observed.Reference, nulls.Categories(), nulls.Names())
	if err != nil {
		return nil, err
	}

	nreps := float64(nulls.Nreps())
	for _, cat := range nulls.Categories() {
		for _, name := range nulls.Names() {
			obs, _ := observed.Value(cat, name)
			lo, hi := obs, -obs
			if lo > hi {
				lo, hi = hi, lo
			}

			values, _ := nulls.Values(cat, name)
			left, right := 0, 0
			for _, v := range values {
				if v <= lo {
					left++
				}
				if v >= hi {
					right++
				}
			}

			p := (float64(left) + float64(right)) / nreps
			if err := table.Set(cat, name, p); err != nil {
				return nil, err
			}
		}
	}

	return table, nil
}
