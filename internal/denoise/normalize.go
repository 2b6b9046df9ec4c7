package denoise

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Normalize divides every entry of m by max(m) + magic.
func Normalize(m mat.Matrix, magic float64) (*mat.Dense, error) {
	if isEmpty(m) {
		return nil, ErrEmptyMatrix
	}

	normalized := mat.DenseCopyOf(m)
	data := normalized.RawMatrix().Data

	max := floats.Max(data)
	denom := max + magic
	if !(denom > 0) || math.IsInf(denom, 0) {
		return nil, fmt.Errorf("%w: max %v, magic %v", ErrNonPositiveMatrix, max, magic)
	}

	for i := range data {
		data[i] /= denom
	}

	return normalized, nil
}

func isEmpty(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	if d, ok := m.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return true
	}
	rows, cols := m.Dims()
	return rows == 0 || cols == 0
}

func squareDims(m mat.Matrix) (int, error) {
	if isEmpty(m) {
		return 0, ErrEmptyMatrix
	}
	rows, cols := m.Dims()
	if rows != cols {
		return 0, fmt.Errorf("%w: %dx%d", ErrNotSquare, rows, cols)
	}
	return rows, nil
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
