package dataset

import (
	"fmt"

	"goperm/domain/core"
)

// ColumnKind classifies a column for model building
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
)

// Column holds one named column of the dataset. Exactly one of Nums or Cats
// is populated, according to Kind.
type Column struct {
	Name string
	Kind ColumnKind
	Nums []float64
	Cats []string
}

// Len returns the number of values in the column
func (c Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.Nums)
	}
	return len(c.Cats)
}

// Levels returns the distinct values of a categorical column in
// first-encountered order. Numeric columns have no levels.
func (c Column) Levels() []string {
	if c.Kind != KindCategorical {
		return nil
	}
	seen := make(map[string]bool, 8)
	levels := make([]string, 0, 8)
	for _, v := range c.Cats {
		if !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	return levels
}

// Dataset is an immutable, column-major collection of records. Columns are
// never mutated in place; permuted variants are produced as copies that share
// the untouched columns' backing storage.
type Dataset struct {
	cols  []Column
	index map[string]int
	rows  int
}

// New builds a dataset from columns, validating rectangular shape and
// unique column names.
func New(cols ...Column) (*Dataset, error) {
	if len(cols) == 0 {
		return nil, core.ErrEmptyDataset
	}

	rows := cols[0].Len()
	if rows == 0 {
		return nil, core.ErrEmptyDataset
	}

	index := make(map[string]int, len(cols))
	for i, col := range cols {
		if col.Name == "" {
			return nil, core.NewInvalidArgumentError("column", "empty name")
		}
		if _, dup := index[col.Name]; dup {
			return nil, core.NewInvalidArgumentError("column", fmt.Sprintf("duplicate name %q", col.Name))
		}
		if col.Len() != rows {
			return nil, core.NewInvalidArgumentError("column",
				fmt.Sprintf("%q has %d values, expected %d", col.Name, col.Len(), rows))
		}
		switch col.Kind {
		case KindNumeric, KindCategorical:
		default:
			return nil, core.NewInvalidArgumentError("column", fmt.Sprintf("%q has unknown kind %q", col.Name, col.Kind))
		}
		index[col.Name] = i
	}

	return &Dataset{cols: cols, index: index, rows: rows}, nil
}

// RowCount returns the number of records
func (d *Dataset) RowCount() int {
	return d.rows
}

// ColumnCount returns the number of columns
func (d *Dataset) ColumnCount() int {
	return len(d.cols)
}

// ColumnNames returns column names in insertion order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, col := range d.cols {
		names[i] = col.Name
	}
	return names
}

// Column returns the named column
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.cols[i], true
}

// HasColumn reports whether the named column exists
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// WithColumnReordered returns a copy of the dataset where the named column's
// values are reassigned to rows according to perm: new value at row i is the
// old value at row perm[i]. All other columns share storage with the receiver.
func (d *Dataset) WithColumnReordered(name string, perm []int) (*Dataset, error) {
	idx, ok := d.index[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	if len(perm) != d.rows {
		return nil, core.NewInvalidArgumentError("perm",
			fmt.Sprintf("length %d, expected %d", len(perm), d.rows))
	}

	src := d.cols[idx]
	reordered := Column{Name: src.Name, Kind: src.Kind}
	switch src.Kind {
	case KindNumeric:
		reordered.Nums = make([]float64, d.rows)
		for i, j := range perm {
			if j < 0 || j >= d.rows {
				return nil, core.NewInvalidArgumentError("perm", fmt.Sprintf("index %d out of range", j))
			}
			reordered.Nums[i] = src.Nums[j]
		}
	case KindCategorical:
		reordered.Cats = make([]string, d.rows)
		for i, j := range perm {
			if j < 0 || j >= d.rows {
				return nil, core.NewInvalidArgumentError("perm", fmt.Sprintf("index %d out of range", j))
			}
			reordered.Cats[i] = src.Cats[j]
		}
	}

	cols := make([]Column, len(d.cols))
	copy(cols, d.cols)
	cols[idx] = reordered

	index := make(map[string]int, len(d.index))
	for k, v := range d.index {
		index[k] = v
	}

	return &Dataset{cols: cols, index: index, rows: d.rows}, nil
}

// Validate ensures the dataset is internally consistent
func (d *Dataset) Validate() error {
	if d == nil || len(d.cols) == 0 || d.rows == 0 {
		return core.ErrEmptyDataset
	}
	for _, col := range d.cols {
		if col.Len() != d.rows {
			return core.NewInvalidArgumentError("column",
				fmt.Sprintf("%q has %d values, expected %d", col.Name, col.Len(), d.rows))
		}
	}
	return nil
}
