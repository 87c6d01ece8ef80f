package api

import (
	"goperm/domain/core"
	"goperm/domain/dataset"
)

// ColumnPayload is one column of an inline dataset
type ColumnPayload struct {
	Name string    `json:"name"`
	Kind string    `json:"kind"` // "numeric" or "categorical"
	Nums []float64 `json:"numeric_values,omitempty"`
	Cats []string  `json:"categorical_values,omitempty"`
}

// RunRequest is the POST /v1/runs body
type RunRequest struct {
	Columns    []ColumnPayload `json:"columns"`
	Outcome    string          `json:"outcome"`
	Predictors []string        `json:"predictors"`
	Nreps      int             `json:"nreps"`
}

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Dataset converts the inline payload into a dataset
func (r *RunRequest) Dataset() (*dataset.Dataset, error) {
	cols := make([]dataset.Column, len(r.Columns))
	for i, c := range r.Columns {
		switch c.Kind {
		case "numeric":
			cols[i] = dataset.Column{Name: c.Name, Kind: dataset.KindNumeric, Nums: c.Nums}
		case "categorical":
			cols[i] = dataset.Column{Name: c.Name, Kind: dataset.KindCategorical, Cats: c.Cats}
		default:
			return nil, core.NewInvalidArgumentError(c.Name, "kind must be numeric or categorical")
		}
	}
	return dataset.New(cols...)
}
