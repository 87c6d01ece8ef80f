package testkit

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"goperm/domain/dataset"
)

// Synthetic admissions scenario: students choose a Major (Humanities,
// Business, Engineering) given a Math_Score around 50 with spread 10 and a
// Gender split. The generators are fully deterministic for a given seed.

// AdmissionsConfig controls the synthetic generator
type AdmissionsConfig struct {
	Rows int
	Seed int64
	// Effect scales how strongly Math_Score and Gender drive the outcome.
	// Zero makes the outcome independent of both predictors, which is the
	// null scenario used for calibration checks.
	Effect float64
}

// AdmissionsDataset generates the admissions scenario dataset. With a positive
// effect, higher math scores favor Engineering over Business, and Gender
// shifts the Business odds.
func AdmissionsDataset(cfg AdmissionsConfig) (*dataset.Dataset, error) {
	r := rand.New(rand.NewSource(cfg.Seed))
	scoreDist := distuv.Normal{Mu: 50, Sigma: 10}

	majors := make([]string, cfg.Rows)
	scores := make([]float64, cfg.Rows)
	genders := make([]string, cfg.Rows)

	// Seed the level ordering so Humanities is always the first-encountered
	// outcome level and Female the first gender level.
	for i := 0; i < cfg.Rows; i++ {
		score := scoreDist.Quantile(r.Float64())
		scores[i] = score

		male := r.Intn(2) == 1
		if male {
			genders[i] = "Male"
		} else {
			genders[i] = "Female"
		}

		if i == 0 {
			majors[0] = "Humanities"
			genders[0] = "Female"
			continue
		}

		z := (score - 50) / 10
		maleTerm := 0.0
		if male {
			maleTerm = 1
		}

		// Humanities is the baseline with score 0
		uBusiness := cfg.Effect * (-0.8*z + 0.5*maleTerm)
		uEngineering := cfg.Effect * (1.2*z - 0.3*maleTerm)

		wB := math.Exp(uBusiness)
		wE := math.Exp(uEngineering)
		total := 1 + wB + wE

		u := r.Float64() * total
		switch {
		case u < 1:
			majors[i] = "Humanities"
		case u < 1+wB:
			majors[i] = "Business"
		default:
			majors[i] = "Engineering"
		}
	}

	return dataset.New(
		dataset.Column{Name: "Major", Kind: dataset.KindCategorical, Cats: majors},
		dataset.Column{Name: "Math_Score", Kind: dataset.KindNumeric, Nums: scores},
		dataset.Column{Name: "Gender", Kind: dataset.KindCategorical, Cats: genders},
	)
}

// NullDataset generates admissions data where the outcome is independent of
// every predictor
func NullDataset(rows int, seed int64) (*dataset.Dataset, error) {
	return AdmissionsDataset(AdmissionsConfig{Rows: rows, Seed: seed, Effect: 0})
}
