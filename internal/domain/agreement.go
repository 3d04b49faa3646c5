package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Agreement holds goodness-of-fit statistics for one simulated/observed
// series. NRMSE and DStat are nil when undefined.
type Agreement struct {
	N     int      `json:"n"`
	RMSE  float64  `json:"rmse"`
	NRMSE *float64 `json:"nrmse"`
	DStat *float64 `json:"d_stat"`
}

// ComputeAgreement compares simulated and observed values. Both slices are
// truncated to the shorter length, then rows where either side is NaN are
// dropped. It returns ok=false when no rows remain.
func ComputeAgreement(sim, obs []float64) (Agreement, bool) {
	s, o := validPairs(sim, obs)
	if len(s) == 0 {
		return Agreement{}, false
	}

	a := Agreement{N: len(s), RMSE: RMSE(o, s)}
	if mean := stat.Mean(o, nil); mean != 0 {
		v := a.RMSE / mean * 100
		a.NRMSE = &v
	}
	if d, ok := DStat(o, s); ok {
		a.DStat = &d
	}
	return a, true
}

func validPairs(sim, obs []float64) ([]float64, []float64) {
	n := min(len(sim), len(obs))
	s := make([]float64, 0, n)
	o := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(sim[i]) || math.IsNaN(obs[i]) {
			continue
		}
		s = append(s, sim[i])
		o = append(o, obs[i])
	}
	return s, o
}

// RMSE is the root mean squared error between equal-length obs and sim.
func RMSE(obs, sim []float64) float64 {
	if len(obs) == 0 {
		return math.NaN()
	}
	diff := make([]float64, len(obs))
	floats.SubTo(diff, obs, sim)
	return math.Sqrt(floats.Dot(diff, diff) / float64(len(diff)))
}

// DStat is Willmott's index of agreement:
//
//	d = 1 - Σ(o-s)² / Σ(|s-ō| + |o-ō|)²
//
// ok is false when the denominator is zero.
func DStat(obs, sim []float64) (float64, bool) {
	if len(obs) == 0 {
		return 0, false
	}
	mean := stat.Mean(obs, nil)
	var num, den float64
	for i := range obs {
		d := obs[i] - sim[i]
		num += d * d
		p := math.Abs(sim[i]-mean) + math.Abs(obs[i]-mean)
		den += p * p
	}
	if den == 0 {
		return 0, false
	}
	return 1 - num/den, true
}
