package model

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"goperm/domain/core"
)

// NullDistribution stores coefficient values observed across permuted fits,
// indexed by (category, coefficient name, permutation index). It is pre-sized
// so each permutation writes only to its own slot; no slot is ever left empty
// in a completed run.
type NullDistribution struct {
	categories []string
	names      []string
	nreps      int
	catIndex   map[string]int
	nameIndex  map[string]int
	// data[cat][name][rep]
	data [][][]float64
	done [][][]bool
}

// NullSummary describes one coefficient's null distribution
type NullSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P025   float64 `json:"p_2_5"`
	Median float64 `json:"median"`
	P975   float64 `json:"p_97_5"`
}

// NewNullDistribution allocates storage shaped after an observed fit
func NewNullDistribution(observed *Coefficients, nreps int) (*NullDistribution, error) {
	if observed == nil {
		return nil, core.NewInvalidArgumentError("observed", "nil coefficients")
	}
	if nreps < 1 {
		return nil, core.NewInvalidArgumentError("nreps", fmt.Sprintf("must be >= 1, got %d", nreps))
	}

	catIndex := make(map[string]int, len(observed.Categories))
	for i, c := range observed.Categories {
		catIndex[c] = i
	}
	nameIndex := make(map[string]int, len(observed.Names))
	for i, n := range observed.Names {
		nameIndex[n] = i
	}

	data := make([][][]float64, len(observed.Categories))
	done := make([][][]bool, len(observed.Categories))
	for i := range data {
		data[i] = make([][]float64, len(observed.Names))
		done[i] = make([][]bool, len(observed.Names))
		for j := range data[i] {
			data[i][j] = make([]float64, nreps)
			done[i][j] = make([]bool, nreps)
		}
	}

	return &NullDistribution{
		categories: append([]string(nil), observed.Categories...),
		names:      append([]string(nil), observed.Names...),
		nreps:      nreps,
		catIndex:   catIndex,
		nameIndex:  nameIndex,
		data:       data,
		done:       done,
	}, nil
}

// Nreps returns the permutation count the distribution was sized for
func (n *NullDistribution) Nreps() int {
	return n.nreps
}

// Categories returns the non-reference categories in stable order
func (n *NullDistribution) Categories() []string {
	return n.categories
}

// Names returns the coefficient names in stable order
func (n *NullDistribution) Names() []string {
	return n.names
}

// Record stores a permuted fit's coefficient matrix at permutation index rep.
// Cells are matched by (category, name), since a permuted dataset may present
// the same categories in a different first-encountered order. Each rep owns a
// disjoint slot, so concurrent Record calls for distinct reps need no
// synchronization.
func (n *NullDistribution) Record(rep int, coefs *Coefficients) error {
	if rep < 0 || rep >= n.nreps {
		return core.NewInvalidArgumentError("rep", fmt.Sprintf("index %d out of [0,%d)", rep, n.nreps))
	}
	if len(coefs.Categories) != len(n.categories) || len(coefs.Names) != len(n.names) {
		return core.NewInvalidArgumentError("coefficients", "shape mismatch with null distribution")
	}

	for i, cat := range n.categories {
		for j, name := range n.names {
			v, ok := coefs.Value(cat, name)
			if !ok {
				return core.NewInvalidArgumentError("coefficients",
					fmt.Sprintf("missing cell (%s, %s)", cat, name))
			}
			n.data[i][j][rep] = v
			n.done[i][j][rep] = true
		}
	}
	return nil
}

// Complete reports whether every (category, coefficient, rep) slot was filled
func (n *NullDistribution) Complete() bool {
	for i := range n.done {
		for j := range n.done[i] {
			for _, ok := range n.done[i][j] {
				if !ok {
					return false
				}
			}
		}
	}
	return true
}

// Values returns the nreps null values for (category, name) in permutation order
func (n *NullDistribution) Values(category, name string) ([]float64, bool) {
	i, ok := n.catIndex[category]
	if !ok {
		return nil, false
	}
	j, ok := n.nameIndex[name]
	if !ok {
		return nil, false
	}
	return n.data[i][j], true
}

// Summary computes descriptive statistics of one coefficient's null distribution
func (n *NullDistribution) Summary(category, name string) (NullSummary, error) {
	values, ok := n.Values(category, name)
	if !ok {
		return NullSummary{}, core.NewInvalidArgumentError("summary", fmt.Sprintf("unknown cell (%s, %s)", category, name))
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return NullSummary{}, err
	}
	sd, err := stats.StandardDeviation(values)
	if err != nil {
		return NullSummary{}, err
	}
	median, err := stats.Median(values)
	if err != nil {
		return NullSummary{}, err
	}
	lo, err := tailPercentile(values, 2.5, stats.Min)
	if err != nil {
		return NullSummary{}, err
	}
	hi, err := tailPercentile(values, 97.5, stats.Max)
	if err != nil {
		return NullSummary{}, err
	}

	return NullSummary{Mean: mean, StdDev: sd, P025: lo, Median: median, P975: hi}, nil
}

// tailPercentile computes a tail quantile, collapsing to the sample
// extreme when the sample is too small for the quantile to be defined
// (the 2.5th percentile needs at least 40 values).
func tailPercentile(values []float64, pct float64, extreme func(stats.Float64Data) (float64, error)) (float64, error) {
	v, err := stats.Percentile(values, pct)
	if err == nil {
		return v, nil
	}
	return extreme(values)
}
