package model

import (
	"encoding/json"
	"testing"

	"goperm/domain/core"
)

func builtReport(t *testing.T) *Report {
	t.Helper()

	coefs, err := NewCoefficients("Humanities", []string{"Business", "Engineering"}, []string{"Intercept", "Math_Score"})
	if err != nil {
		t.Fatalf("NewCoefficients failed: %v", err)
	}
	_ = coefs.Set("Business", "Math_Score", -0.8)
	_ = coefs.Set("Engineering", "Math_Score", 1.2)

	nulls, err := NewNullDistribution(coefs, 5)
	if err != nil {
		t.Fatalf("NewNullDistribution failed: %v", err)
	}
	for rep := 0; rep < 5; rep++ {
		draw, _ := NewCoefficients("Humanities", []string{"Business", "Engineering"}, []string{"Intercept", "Math_Score"})
		_ = draw.Set("Engineering", "Math_Score", float64(rep)*0.1)
		if err := nulls.Record(rep, draw); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	pvals, err := NewPValueTable("Humanities", []string{"Business", "Engineering"}, []string{"Intercept", "Math_Score"})
	if err != nil {
		t.Fatalf("NewPValueTable failed: %v", err)
	}
	_ = pvals.Set("Engineering", "Math_Score", 0.004)
	_ = pvals.Set("Business", "Math_Score", 0.31)
	pvals.Seal()

	spec := NewSpec("Major", []string{"Math_Score"})
	report, err := NewReport(core.RunID(core.NewID()), spec, 5, 42, 4, 100, coefs, nulls, pvals)
	if err != nil {
		t.Fatalf("NewReport failed: %v", err)
	}
	return report
}

func TestReport_JSONRoundTrip(t *testing.T) {
	report := builtReport(t)

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.RunID != report.RunID || decoded.Nreps != 5 || decoded.Seed != 42 {
		t.Errorf("Manifest fields lost in round trip: %+v", decoded)
	}
	if decoded.Observed["Engineering"]["Math_Score"] != 1.2 {
		t.Errorf("Observed coefficients lost in round trip")
	}

	p, ok := decoded.PValues.Value("Engineering", "Math_Score")
	if !ok || p != 0.004 {
		t.Errorf("p-value lost in round trip: got %f (found=%v)", p, ok)
	}
	if decoded.PValues.Reference != "Humanities" {
		t.Errorf("Reference lost in round trip: %q", decoded.PValues.Reference)
	}
	if err := decoded.PValues.Set("Engineering", "Math_Score", 0.5); err == nil {
		t.Error("Decoded table should arrive sealed")
	}
}

func TestPValueTable_JSONPreservesCellOrder(t *testing.T) {
	pvals, _ := NewPValueTable("ref", []string{"a", "b"}, []string{"x", "y"})
	_ = pvals.Set("a", "x", 0.1)
	_ = pvals.Set("b", "y", 0.9)
	pvals.Seal()

	data, err := json.Marshal(pvals)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded PValueTable
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := pvals.Entries()
	got := decoded.Entries()
	if len(got) != len(want) {
		t.Fatalf("Entry count mismatch: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Entry %d mismatch: %+v vs %+v", i, got[i], want[i])
		}
	}
}
