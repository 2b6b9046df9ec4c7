package denoise

import "gonum.org/v1/gonum/mat"

// ProbabilityMatrix builds P[i,j] = 1 / (aOut[i]·aIn[j] + 1).
func ProbabilityMatrix(aOut, aIn []float64) *mat.Dense {
	p := mat.NewDense(len(aOut), len(aIn), nil)
	for i := range aOut {
		edgeProbabilities(p.RawRowView(i), aOut[i:i+1], aIn)
	}
	return p
}

// edgeProbabilities fills dst with the probability of every (i,j) pair in
// row-major order.
func edgeProbabilities(dst, aOut, aIn []float64) {
	k := 0
	for _, out := range aOut {
		for _, in := range aIn {
			dst[k] = 1 / (out*in + 1)
			k++
		}
	}
}
