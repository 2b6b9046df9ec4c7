package matrixio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestReadCSV(t *testing.T) {
	m, err := ReadCSV(strings.NewReader("0,1,2\n3, 0,1\n2,1,0\n"))
	require.NoError(t, err)

	want := mat.NewDense(3, 3, []float64{0, 1, 2, 3, 0, 1, 2, 1, 0})
	assert.True(t, mat.Equal(want, m))
}

func TestReadCSVErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyMatrix},
		{"not square", "1,2\n3,4\n5,6\n", ErrNotSquare},
		{"ragged", "1,2\n3\n", ErrParse},
		{"not a number", "1,x\n3,4\n", ErrParse},
		{"empty cell", "1,\n3,4\n", ErrParse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.input))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0.1, -1.0 / 3.0, 1e-20, 2})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, m))
	assert.Equal(t, "0.1,-0.3333333333333333\n1e-20,2\n", buf.String())

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, back))
}
