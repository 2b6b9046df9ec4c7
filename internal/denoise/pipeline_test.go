package denoise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMaxEntPipelineDefaults(t *testing.T) {
	p := MaxEntPipeline()
	assert.Equal(t, DefaultIterations, p.Iterations)
	assert.Equal(t, Magic, p.Magic)
	assert.Equal(t, DefaultSignificance, p.Significance)
	assert.Equal(t, 1, p.Workers)
	assert.Equal(t, DegenerateFail, p.DegeneratePolicy)
	assert.False(t, p.FitnessHistory)
}

func TestPipelineProcess(t *testing.T) {
	raw := mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})

	res, err := MaxEntPipeline(
		WithIterations(1),
		WithHistory(true, true),
		WithPipelineWorkers(2),
	).Process(raw)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.Normalized.At(2, 2), 1e-15)
	assert.InDelta(t, 2.88341970148571, res.Scores.Z.At(2, 2), 1e-9)
	assert.Equal(t, 9, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.Significant)

	r, _ := res.Calibration.AInHistory.Dims()
	assert.Equal(t, 2, r)
	r, _ = res.Calibration.ProbHistory.Dims()
	assert.Equal(t, 1, r)
}

func TestPipelineExample(t *testing.T) {
	raw := mat.NewDense(3, 3, []float64{0, 1, 2, 3, 0, 1, 2, 1, 0})

	res, err := MaxEntPipeline().Process(raw)
	require.NoError(t, err)

	assert.True(t, mat.Equal(res.Scores.ZSym, res.Scores.ZSym.T()))
	for _, v := range res.Scores.ZSym.RawMatrix().Data {
		assert.False(t, math.IsNaN(v))
	}
	assert.Equal(t, 0, res.Summary.Significant)
}

func TestPipelineSurfacesErrors(t *testing.T) {
	_, err := MaxEntPipeline().Process(mat.NewDense(2, 2, nil))
	require.ErrorIs(t, err, ErrNonPositiveMatrix)

	_, err = MaxEntPipeline().Process(mat.NewDense(2, 2, []float64{1, 0, 0, 0}))
	require.ErrorIs(t, err, ErrDegenerateNode)

	res, err := MaxEntPipeline(WithPolicy(DegenerateFreeze)).Process(mat.NewDense(2, 2, []float64{1, 0, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Calibration.AIn[1])

	_, err = MaxEntPipeline(WithIterations(-3)).Process(mat.NewDense(1, 1, []float64{1}))
	require.ErrorIs(t, err, ErrInvalidIterations)
}

func TestPipelineMagicScalesNormalization(t *testing.T) {
	raw := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	res, err := MaxEntPipeline(WithMagic(4), WithIterations(3), WithSignificance(0.5)).Process(raw)
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Normalized.At(1, 1))
	assert.Equal(t, 0.5, res.Summary.Threshold)
}

func BenchmarkPipeline(b *testing.B) {
	raw := randomMatrix(100, 5)
	p := MaxEntPipeline()
	b.ResetTimer()
	for b.Loop() {
		_, _ = p.Process(raw)
	}
}
