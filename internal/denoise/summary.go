package denoise

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Summarize describes the distribution of a z-score matrix and counts the
// edges with |Z| above threshold.
func Summarize(z mat.Matrix, threshold float64) (Summary, error) {
	if isEmpty(z) {
		return Summary{}, ErrEmptyMatrix
	}

	rows, cols := z.Dims()
	data := make(stats.Float64Data, 0, rows*cols)
	abs := make(stats.Float64Data, 0, rows*cols)
	significant := 0
	for i := range rows {
		for j := range cols {
			v := z.At(i, j)
			data = append(data, v)
			abs = append(abs, math.Abs(v))
			if math.Abs(v) > threshold {
				significant++
			}
		}
	}

	summary := Summary{
		Threshold:   threshold,
		Significant: significant,
		Total:       len(data),
	}

	var err error
	if summary.Mean, err = stats.Mean(data); err != nil {
		return Summary{}, err
	}
	if summary.StdDev, err = stats.StandardDeviationPopulation(data); err != nil {
		return Summary{}, err
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return Summary{}, err
	}
	if summary.AbsP95, err = stats.Percentile(abs, 95); err != nil {
		return Summary{}, err
	}
	if summary.Min, err = stats.Min(data); err != nil {
		return Summary{}, err
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return Summary{}, err
	}

	return summary, nil
}
