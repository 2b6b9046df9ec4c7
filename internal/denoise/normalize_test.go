package denoise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNormalize(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{0, 1, 2, 3, 0, 1, 2, 1, 0})
	original := mat.DenseCopyOf(m)

	mn, err := Normalize(m, Magic)
	require.NoError(t, err)

	assert.Equal(t, 1.0, mn.At(1, 0))
	assert.Equal(t, 2.0/3.0, mn.At(0, 2))
	assert.True(t, mat.Equal(original, m), "input must not be modified")
}

func TestNormalizeWithMagic(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	mn, err := Normalize(m, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.8, mn.At(1, 1))
}

func TestNormalizeErrors(t *testing.T) {
	_, err := Normalize(mat.NewDense(2, 2, []float64{0, 0, 0, 0}), Magic)
	require.ErrorIs(t, err, ErrNonPositiveMatrix)

	_, err = Normalize(mat.NewDense(2, 2, []float64{-1, -2, -3, -4}), Magic)
	require.ErrorIs(t, err, ErrNonPositiveMatrix)

	_, err = Normalize(mat.NewDense(1, 1, []float64{1}), -1)
	require.ErrorIs(t, err, ErrNonPositiveMatrix)

	var empty *mat.Dense
	_, err = Normalize(empty, Magic)
	require.ErrorIs(t, err, ErrEmptyMatrix)
}
