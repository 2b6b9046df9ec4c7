// Package matrixio loads and stores the dense matrices consumed and produced by the
// denoiser: header-less CSV files, remote CSV downloads and compressed history dumps.
package matrixio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyMatrix = errors.New("matrix file contains no rows")
	ErrNotSquare   = errors.New("matrix is not square")
	ErrParse       = errors.New("failed to parse matrix")
)

// ReadCSV parses a comma-separated N×N matrix with no header and no index column.
func ReadCSV(r io.Reader) (*mat.Dense, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		data []float64
		cols int
		rows int
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		if rows == 0 {
			cols = len(record)
			data = make([]float64, 0, cols*cols)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %w", ErrParse, rows, j, err)
			}
			data = append(data, v)
		}
		rows++
	}

	if rows == 0 || cols == 0 {
		return nil, ErrEmptyMatrix
	}
	if rows != cols {
		return nil, fmt.Errorf("%w: %d rows, %d columns", ErrNotSquare, rows, cols)
	}
	return mat.NewDense(rows, cols, data), nil
}

// WriteCSV writes m row by row in the same layout ReadCSV accepts, using the shortest
// representation that round-trips each float64.
func WriteCSV(w io.Writer, m mat.Matrix) error {
	r, c := m.Dims()
	cw := csv.NewWriter(w)
	record := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
