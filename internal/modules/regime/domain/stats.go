package domain

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type RegimeStats struct {
	ID       int64
	Mean     float64
	Low90CI  float64
	High90CI float64
	Count    int
}

// ComputeStats pools coherence values into a mean and two-sided 90% t interval.
// No values yields NaN everywhere; a single value has a mean but no interval.
func ComputeStats(id int64, values []float64) RegimeStats {
	out := RegimeStats{ID: id, Mean: math.NaN(), Low90CI: math.NaN(), High90CI: math.NaN(), Count: len(values)}
	if len(values) == 0 {
		return out
	}
	if len(values) == 1 {
		out.Mean = values[0]
		return out
	}
	mean, sd := stat.MeanStdDev(values, nil)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(len(values) - 1)}.Quantile(0.95)
	half := t * sd / math.Sqrt(float64(len(values)))
	out.Mean = mean
	out.Low90CI = mean - half
	out.High90CI = mean + half
	return out
}

// Insufficient reports whether the stats cannot support a CI comparison yet.
func (s RegimeStats) Insufficient() bool {
	return math.IsNaN(s.Mean) || math.IsNaN(s.Low90CI) || math.IsNaN(s.High90CI)
}

func (s RegimeStats) Contains(v float64) bool {
	return s.Low90CI <= v && v <= s.High90CI
}
