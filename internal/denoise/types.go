package denoise

import "gonum.org/v1/gonum/mat"

// CalibrationResult holds the fitted maximum-entropy model.
type CalibrationResult struct {
	P    *mat.Dense // 2D: N×N edge probabilities
	AIn  []float64  // 1D: in-fitness per column node
	AOut []float64  // 1D: out-fitness per row node

	AInHistory  *mat.Dense // (iterations+1)×N, nil unless tracked
	AOutHistory *mat.Dense // (iterations+1)×N, nil unless tracked
	ProbHistory *mat.Dense // iterations×N², row-major edges, nil unless tracked or iterations == 0
}

// ZScores holds the per-edge significance of the observed weights.
type ZScores struct {
	Z     *mat.Dense // 2D: (Mn - P) / sigma, non-finite entries set to 0
	ZSym  *mat.Dense // 2D: (Z + Zᵀ) / √2
	Sigma *mat.Dense // 2D: propagated uncertainty of P
	AStd  []float64  // 1D: std of the out-potential per row node
	BStd  []float64  // 1D: std of the in-potential per column node
}

type Summary struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	Median      float64 `json:"median"`
	AbsP95      float64 `json:"abs_p95"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Threshold   float64 `json:"threshold"`
	Significant int     `json:"significant"`
	Total       int     `json:"total"`
}

type PipelineResult struct {
	Normalized  *mat.Dense
	Calibration *CalibrationResult
	Scores      *ZScores
	Summary     Summary
}
