package matrixio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/denoiser/internal/denoise"
)

func TestHistoryFileRoundTrip(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	res, err := denoise.Calibrate(m, 3, denoise.WithFitnessHistory(true), denoise.WithProbabilityHistory(true))
	require.NoError(t, err)

	h := NewHistoryExport(res, 3)
	require.Len(t, h.AIn, 4)
	require.Len(t, h.Probability, 3)
	assert.Len(t, h.Probability[0], 4)

	path := filepath.Join(t.TempDir(), "out", "m_history.json.zst")
	require.NoError(t, WriteHistoryFile(path, h))

	back, err := ReadHistoryFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, back.Iterations)
	assert.Equal(t, 2, back.Nodes)
	assertRowsInDelta(t, h.AIn, back.AIn)
	assertRowsInDelta(t, h.AOut, back.AOut)
	assertRowsInDelta(t, h.Probability, back.Probability)
}

func assertRowsInDelta(t *testing.T, want, got [][]float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDeltaSlice(t, want[i], got[i], 1e-15)
	}
}

func TestHistoryWithoutProbabilities(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	res, err := denoise.Calibrate(m, 2, denoise.WithFitnessHistory(true))
	require.NoError(t, err)

	data, err := EncodeHistory(NewHistoryExport(res, 2))
	require.NoError(t, err)

	back, err := DecodeHistory(data)
	require.NoError(t, err)
	assert.Nil(t, back.Probability)
	assert.Len(t, back.AOut, 3)
}

func TestDecodeHistoryRejectsGarbage(t *testing.T) {
	_, err := DecodeHistory([]byte("not zstd"))
	require.Error(t, err)
}
