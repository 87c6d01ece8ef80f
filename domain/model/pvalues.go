package model

import (
	"encoding/json"

	"goperm/domain/core"
)

// PValueTable maps (non-reference category, coefficient name) to an empirical
// two-tailed p-value. It is created empty, populated once after all
// permutations complete, and immutable thereafter.
type PValueTable struct {
	Reference  string   `json:"reference"`
	Categories []string `json:"categories"`
	Names      []string `json:"coefficient_names"`
	catIndex   map[string]int
	nameIndex  map[string]int
	values     [][]float64
	sealed     bool
}

// PValueEntry is one cell of the table in flattened form
type PValueEntry struct {
	Category    string  `json:"category"`
	Coefficient string  `json:"coefficient"`
	PValue      float64 `json:"p_value"`
}

// NewPValueTable allocates a table shaped after a null distribution
func NewPValueTable(reference string, categories, names []string) (*PValueTable, error) {
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
		catIndex[c] = i
	}
	nameIndex := make(map[string]int, len(names))
	for i, n := range names {
		nameIndex[n] = i
	}

	values := make([][]float64, len(categories))
	for i := range values {
		values[i] = make([]float64, len(names))
	}

	return &PValueTable{
		Reference:  reference,
		Categories: append([]string(nil), categories...),
		Names:      append([]string(nil), names...),
		catIndex:   catIndex,
		nameIndex:  nameIndex,
		values:     values,
	}, nil
}

// Set assigns a p-value. Fails once the table is sealed.
func (t *PValueTable) Set(category, name string, p float64) error {
	if t.sealed {
		return core.NewInvalidArgumentError("p-value table", "already sealed")
	}
	i, ok := t.catIndex[category]
	if !ok {
		return core.NewInvalidArgumentError("category", "unknown: "+category)
	}
	j, ok := t.nameIndex[name]
	if !ok {
		return core.NewInvalidArgumentError("coefficient", "unknown: "+name)
	}
	t.values[i][j] = p
	return nil
}

// Seal marks the table immutable after population
func (t *PValueTable) Seal() {
	t.sealed = true
}

// Value returns the p-value for (category, name)
func (t *PValueTable) Value(category, name string) (float64, bool) {
	i, ok := t.catIndex[category]
	if !ok {
		return 0, false
	}
	j, ok := t.nameIndex[name]
	if !ok {
		return 0, false
	}
	return t.values[i][j], true
}

// Entries returns all cells in stable (category, coefficient) order
func (t *PValueTable) Entries() []PValueEntry {
	entries := make([]PValueEntry, 0, len(t.Categories)*len(t.Names))
	for i, cat := range t.Categories {
		for j, name := range t.Names {
			entries = append(entries, PValueEntry{Category: cat, Coefficient: name, PValue: t.values[i][j]})
		}
	}
	return entries
}

type pValueTableJSON struct {
	Reference  string      `json:"reference"`
	Categories []string    `json:"categories"`
	Names      []string    `json:"coefficient_names"`
	Values     [][]float64 `json:"values"`
}

// MarshalJSON includes the cell values, which live behind the index maps
func (t *PValueTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(pValueTableJSON{
		Reference:  t.Reference,
		Categories: t.Categories,
		Names:      t.Names,
		Values:     t.values,
	})
}

// UnmarshalJSON rebuilds the index maps; a decoded table arrives sealed
func (t *PValueTable) UnmarshalJSON(data []byte) error {
	var raw pValueTableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Values) != len(raw.Categories) {
		return core.NewInvalidArgumentError("p-value table", "category/value row count mismatch")
	}
	for _, row := range raw.Values {
		if len(row) != len(raw.Names) {
			return core.NewInvalidArgumentError("p-value table", "coefficient/value column count mismatch")
		}
	}

	decoded, err := NewPValueTable(raw.Reference, raw.Categories, raw.Names)
	if err != nil {
		return err
	}
	decoded.values = raw.Values
	decoded.Seal()
	*t = *decoded
	return nil
}

// MarshalMap flattens the table into category -> coefficient -> p-value
func (t *PValueTable) MarshalMap() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(t.Categories))
	for i, cat := range t.Categories {
		row := make(map[string]float64, len(t.Names))
		for j, name := range t.Names {
			row[name] = t.values[i][j]
		}
		out[cat] = row
	}
	return out
}
