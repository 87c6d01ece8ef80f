package model

import (
	"goperm/domain/core"
)

// Report captures the complete outcome of one permutation run: the p-value
// table plus the audit metadata needed to reproduce or inspect it.
type Report struct {
	RunID     core.RunID     `json:"run_id"`
	Spec      Spec           `json:"spec"`
	Nreps     int            `json:"nreps"`
	Seed      int64          `json:"seed"`
	Workers   int            `json:"workers"`
	RowCount  int            `json:"row_count"`
	RuntimeMs int64          `json:"runtime_ms"`
	CreatedAt core.Timestamp `json:"created_at"`

	Observed      map[string]map[string]float64     `json:"observed_coefficients"`
	NullSummaries map[string]map[string]NullSummary `json:"null_summaries"`
	PValues       *PValueTable                      `json:"p_values"`
}

// NewReport assembles a report from a completed run
func NewReport(runID core.RunID, spec Spec, nreps int, seed int64, workers, rows int, observed *Coefficients, nulls *NullDistribution, pvals *PValueTable) (*Report, error) {
	summaries := make(map[string]map[string]NullSummary, len(pvals.Categories))
	for _, cat := range pvals.Categories {
		row := make(map[string]NullSummary, len(pvals.Names))
		for _, name := range pvals.Names {
			s, err := nulls.Summary(cat, name)
			if err != nil {
				return nil, err
			}
			row[name] = s
		}
		summaries[cat] = row
	}

	return &Report{
		RunID:         runID,
		Spec:          spec,
		Nreps:         nreps,
		Seed:          seed,
		Workers:       workers,
		RowCount:      rows,
		CreatedAt:     core.Now(),
		Observed:      observed.MarshalMap(),
		NullSummaries: summaries,
		PValues:       pvals,
	}, nil
}
