package model

import (
	"fmt"
	"math"

	"goperm/domain/core"
)

// Coefficients is the fitted coefficient matrix of a multinomial logistic
// regression: one row per non-reference outcome category, one column per
// coefficient name (intercept plus expanded predictor terms). The reference
// category's coefficients are fixed at zero under the identifiability
// constraint and are not stored.
type Coefficients struct {
	Reference  string    `json:"reference"`
	Categories []string  `json:"categories"`
	Names      []string  `json:"coefficient_names"`
	catIndex   map[string]int
	nameIndex  map[string]int
	values     [][]float64
}

// NewCoefficients allocates a zero coefficient matrix with the given shape
func NewCoefficients(reference string, categories, names []string) (*Coefficients, error) {
	if len(categories) == 0 {
		return nil, core.ErrInsufficientCategories
	}
	if len(names) == 0 {
		return nil, core.NewInvalidArgumentError("coefficient names", "empty list")
	}

	catIndex := make(map[string]int, len(categories))
	for i, c := range categories {
		if c == reference {
			return nil, core.NewInvalidArgumentError("categories", "must exclude the reference level")
		}
		if _, dup := catIndex[c]; dup {
			return nil, core.NewInvalidArgumentError("categories", "duplicate: "+c)
		}
		catIndex[c] = i
	}
	nameIndex := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := nameIndex[n]; dup {
			return nil, core.NewInvalidArgumentError("coefficient names", "duplicate: "+n)
		}
		nameIndex[n] = i
	}

	values := make([][]float64, len(categories))
	for i := range values {
		values[i] = make([]float64, len(names))
	}

	return &Coefficients{
		Reference:  reference,
		Categories: append([]string(nil), categories...),
		Names:      append([]string(nil), names...),
		catIndex:   catIndex,
		nameIndex:  nameIndex,
		values:     values,
	}, nil
}

// Set assigns the coefficient for (category, name)
func (c *Coefficients) Set(category, name string, value float64) error {
	i, ok := c.catIndex[category]
	if !ok {
		return core.NewInvalidArgumentError("category", "unknown: "+category)
	}
	j, ok := c.nameIndex[name]
	if !ok {
		return core.NewInvalidArgumentError("coefficient", "unknown: "+name)
	}
	c.values[i][j] = value
	return nil
}

// Value returns the coefficient for (category, name)
func (c *Coefficients) Value(category, name string) (float64, bool) {
	i, ok := c.catIndex[category]
	if !ok {
		return 0, false
	}
	j, ok := c.nameIndex[name]
	if !ok {
		return 0, false
	}
	return c.values[i][j], true
}

// At returns the coefficient by position
func (c *Coefficients) At(catIdx, nameIdx int) float64 {
	return c.values[catIdx][nameIdx]
}

// SetAt assigns the coefficient by position
func (c *Coefficients) SetAt(catIdx, nameIdx int, value float64) {
	c.values[catIdx][nameIdx] = value
}

// SameShape reports whether other has identical categories and names in the
// same order. All fits within one permutation run must agree on shape.
func (c *Coefficients) SameShape(other *Coefficients) bool {
	if other == nil || len(c.Categories) != len(other.Categories) || len(c.Names) != len(other.Names) {
		return false
	}
	for i := range c.Categories {
		if c.Categories[i] != other.Categories[i] {
			return false
		}
	}
	for i := range c.Names {
		if c.Names[i] != other.Names[i] {
			return false
		}
	}
	return true
}

// IsFinite reports whether every coefficient is a finite number
func (c *Coefficients) IsFinite() bool {
	for _, row := range c.values {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// MarshalMap flattens the matrix into category -> name -> value
func (c *Coefficients) MarshalMap() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(c.Categories))
	for i, cat := range c.Categories {
		row := make(map[string]float64, len(c.Names))
		for j, name := range c.Names {
			row[name] = c.values[i][j]
		}
		out[cat] = row
	}
	return out
}

func (c *Coefficients) String() string {
	return fmt.Sprintf("Coefficients(%d categories x %d terms, reference=%s)",
		len(c.Categories), len(c.Names), c.Reference)
}
