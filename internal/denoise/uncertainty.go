package denoise

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Potentials maps fitnesses to log space: a = -ln aOut, b = -ln aIn.
func Potentials(aOut, aIn []float64) (a, b []float64) {
	a = make([]float64, len(aOut))
	for i, v := range aOut {
		a[i] = -math.Log(v)
	}
	b = make([]float64, len(aIn))
	for j, v := range aIn {
		b[j] = -math.Log(v)
	}
	return a, b
}

// ImpliedQ returns Q = 1/Mn - 1 element-wise. Zero entries yield +Inf, which
// is left in place.
func ImpliedQ(mn mat.Matrix) *mat.Dense {
	rows, cols := mn.Dims()
	q := mat.NewDense(rows, cols, nil)
	q.Apply(func(_, _ int, v float64) float64 {
		return 1/v - 1
	}, mn)
	return q
}

// FitnessStdDevs estimates the spread of each fitness from the values implied
// by every neighbour.
//
// betasStd[j] is the population std, over rows i, of Q[i,j]/aOut[i].
// alphasStd[i] is the population std, over columns j, of Q[i,j]/aIn[j].
// The reduction axes are fixed; swapping them changes the result.
func FitnessStdDevs(q mat.Matrix, aOut, aIn []float64) (alphasStd, betasStd []float64) {
	rows, cols := q.Dims()

	betasStd = make([]float64, cols)
	column := make([]float64, rows)
	for j := range cols {
		for i := range rows {
			column[i] = q.At(i, j) / aOut[i]
		}
		betasStd[j] = stat.PopStdDev(column, nil)
	}

	alphasStd = make([]float64, rows)
	row := make([]float64, cols)
	for i := range rows {
		for j := range cols {
			row[j] = q.At(i, j) / aIn[j]
		}
		alphasStd[i] = stat.PopStdDev(row, nil)
	}

	return alphasStd, betasStd
}

// PotentialStdDevs propagates fitness std devs through the log link to first
// order: std(-ln x) ≈ |std(x) / x|.
func PotentialStdDevs(alphasStd, betasStd, aOut, aIn []float64) (aStd, bStd []float64) {
	aStd = make([]float64, len(aOut))
	for i := range aOut {
		aStd[i] = math.Abs((1 / aOut[i]) * alphasStd[i])
	}
	bStd = make([]float64, len(aIn))
	for j := range aIn {
		bStd[j] = math.Abs((1 / aIn[j]) * betasStd[j])
	}
	return aStd, bStd
}

// PropagateUncertainty returns sigma_P for every edge. P is symmetric in the
// potentials, so both partial derivatives are
//
//	-exp(-(a_i+b_j)) / (1+exp(-(a_i+b_j)))²
//
// and sigma² = ∂a²·aStd[i]² + ∂b²·bStd[j]².
func PropagateUncertainty(a, b, aStd, bStd []float64) *mat.Dense {
	sigma := mat.NewDense(len(a), len(b), nil)
	for i := range a {
		row := sigma.RawRowView(i)
		for j := range b {
			e := math.Exp(-(a[i] + b[j]))
			partialA := -e / ((1 + e) * (1 + e))
			partialB := partialA
			variance := (partialA*partialA)*(aStd[i]*aStd[i]) + (partialB*partialB)*(bStd[j]*bStd[j])
			row[j] = math.Sqrt(variance)
		}
	}
	return sigma
}
