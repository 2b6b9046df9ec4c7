package denoise

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ZScore computes (Mn - P) / sigma. Entries that are not finite, such as 0/0
// or x/0, are set to 0.
func ZScore(mn, p, sigma mat.Matrix) (*mat.Dense, error) {
	if isEmpty(mn) {
		return nil, ErrEmptyMatrix
	}
	rows, cols := mn.Dims()
	if err := sameDims(rows, cols, p, sigma); err != nil {
		return nil, err
	}

	z := mat.NewDense(rows, cols, nil)
	for i := range rows {
		row := z.RawRowView(i)
		for j := range cols {
			v := (mn.At(i, j) - p.At(i, j)) / sigma.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			row[j] = v
		}
	}
	return z, nil
}

// Symmetrize returns (Z + Zᵀ) / √2. Both halves are written from one
// evaluation, so the result is exactly symmetric.
func Symmetrize(z mat.Matrix) (*mat.Dense, error) {
	n, err := squareDims(z)
	if err != nil {
		return nil, err
	}

	sym := mat.NewDense(n, n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			v := (z.At(i, j) + z.At(j, i)) / math.Sqrt2
			sym.Set(i, j, v)
			sym.Set(j, i, v)
		}
	}
	return sym, nil
}

// ScoreUncertainty turns a calibrated model into per-edge z-scores: it
// estimates the dispersion of every potential, propagates it to sigma_P and
// compares the normalized matrix against P.
func ScoreUncertainty(mn, p mat.Matrix, aOut, aIn []float64) (*ZScores, error) {
	if _, err := squareDims(mn); err != nil {
		return nil, err
	}
	rows, cols := mn.Dims()
	if err := sameDims(rows, cols, p); err != nil {
		return nil, err
	}
	if len(aOut) != rows || len(aIn) != cols {
		return nil, fmt.Errorf("%w: %dx%d matrix with %d out- and %d in-fitnesses",
			ErrDimensionMismatch, rows, cols, len(aOut), len(aIn))
	}

	a, b := Potentials(aOut, aIn)
	q := ImpliedQ(mn)
	alphasStd, betasStd := FitnessStdDevs(q, aOut, aIn)
	aStd, bStd := PotentialStdDevs(alphasStd, betasStd, aOut, aIn)
	sigma := PropagateUncertainty(a, b, aStd, bStd)

	z, err := ZScore(mn, p, sigma)
	if err != nil {
		return nil, err
	}
	zSym, err := Symmetrize(z)
	if err != nil {
		return nil, err
	}

	return &ZScores{
		Z:     z,
		ZSym:  zSym,
		Sigma: sigma,
		AStd:  aStd,
		BStd:  bStd,
	}, nil
}

func sameDims(rows, cols int, ms ...mat.Matrix) error {
	for _, m := range ms {
		if isEmpty(m) {
			return ErrEmptyMatrix
		}
		r, c := m.Dims()
		if r != rows || c != cols {
			return fmt.Errorf("%w: want %dx%d, got %dx%d", ErrDimensionMismatch, rows, cols, r, c)
		}
	}
	return nil
}
