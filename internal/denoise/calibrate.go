package denoise

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

type calibrator struct {
	trackFitness bool
	trackProb    bool
	workers      int
	policy       DegeneratePolicy
}

type CalibrateOption func(*calibrator)

// WithFitnessHistory records aIn and aOut after every round, including the
// initial all-ones round 0.
func WithFitnessHistory(enabled bool) CalibrateOption {
	return func(c *calibrator) {
		c.trackFitness = enabled
	}
}

// WithProbabilityHistory records the N² edge probabilities after every round.
func WithProbabilityHistory(enabled bool) CalibrateOption {
	return func(c *calibrator) {
		c.trackProb = enabled
	}
}

// WithWorkers spreads the per-node updates of a round over n goroutines.
// Each node's sum is still evaluated in index order, so the result does not
// depend on n.
func WithWorkers(n int) CalibrateOption {
	return func(c *calibrator) {
		if n < 1 {
			n = 1
		}
		c.workers = n
	}
}

func WithDegeneratePolicy(policy DegeneratePolicy) CalibrateOption {
	return func(c *calibrator) {
		c.policy = policy
	}
}

// Calibrate fits one out-fitness per row and one in-fitness per column of m
// by running a fixed number of alternating fixed-point rounds over the
// complete reference graph (all N² ordered pairs, self-loops included).
//
// In round k every in-fitness is recomputed from the out-fitnesses of round
// k-1, then every out-fitness from the new in-fitnesses:
//
//	aIn[i]  = Σ_j 1/(aOut[j] + 1/aIn[i])  / Σ_r m[r,i]
//	aOut[i] = Σ_j 1/(aIn[j]  + 1/aOut[i]) / Σ_c m[i,c]
//
// There is no convergence test; iterations is the only stopping rule.
func Calibrate(m mat.Matrix, iterations int, opts ...CalibrateOption) (*CalibrationResult, error) {
	n, err := squareDims(m)
	if err != nil {
		return nil, err
	}
	if iterations < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIterations, iterations)
	}

	c := &calibrator{
		workers: 1,
		policy:  DegenerateFail,
	}
	for _, opt := range opts {
		opt(c)
	}

	inWeight, outWeight := nodeWeights(m, n)
	inActive, err := c.activeNodes(inWeight, AxisIn)
	if err != nil {
		return nil, err
	}
	outActive, err := c.activeNodes(outWeight, AxisOut)
	if err != nil {
		return nil, err
	}

	aIn, aOut := ones(n), ones(n)
	nextIn, nextOut := make([]float64, n), make([]float64, n)

	result := &CalibrationResult{}
	if c.trackFitness {
		result.AInHistory = mat.NewDense(iterations+1, n, nil)
		result.AOutHistory = mat.NewDense(iterations+1, n, nil)
		result.AInHistory.SetRow(0, aIn)
		result.AOutHistory.SetRow(0, aOut)
	}
	if c.trackProb && iterations > 0 {
		result.ProbHistory = mat.NewDense(iterations, n*n, nil)
	}

	for round := range iterations {
		if err := c.halfUpdate(nextIn, aIn, aOut, inWeight, inActive); err != nil {
			return nil, fmt.Errorf("round %d in-fitness update: %w", round+1, err)
		}
		aIn, nextIn = nextIn, aIn

		if err := c.halfUpdate(nextOut, aOut, aIn, outWeight, outActive); err != nil {
			return nil, fmt.Errorf("round %d out-fitness update: %w", round+1, err)
		}
		aOut, nextOut = nextOut, aOut

		if c.trackFitness {
			result.AInHistory.SetRow(round+1, aIn)
			result.AOutHistory.SetRow(round+1, aOut)
		}
		if c.trackProb {
			edgeProbabilities(result.ProbHistory.RawRowView(round), aOut, aIn)
		}
	}

	result.AIn = aIn
	result.AOut = aOut
	result.P = ProbabilityMatrix(aOut, aIn)

	return result, nil
}

// nodeWeights returns the column sums (inbound weight) and row sums (outbound
// weight) of m, accumulated in index order.
func nodeWeights(m mat.Matrix, n int) (in, out []float64) {
	in = make([]float64, n)
	out = make([]float64, n)
	for i := range n {
		for j := range n {
			v := m.At(i, j)
			out[i] += v
			in[j] += v
		}
	}
	return in, out
}

func (c *calibrator) activeNodes(weight []float64, axis Axis) ([]bool, error) {
	active := make([]bool, len(weight))
	for i, w := range weight {
		if w > 0 {
			active[i] = true
			continue
		}
		if c.policy != DegenerateFreeze {
			return nil, &DegenerateNodeError{Node: i, Axis: axis}
		}
	}
	return active, nil
}

// halfUpdate writes the new fitness of every node into dst. self holds the
// previous fitnesses on the axis being updated, other the current fitnesses
// on the opposite axis.
func (c *calibrator) halfUpdate(dst, self, other, weight []float64, active []bool) error {
	step := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if !active[i] {
				dst[i] = self[i]
				continue
			}
			inv := 1 / self[i]
			var sum float64
			for _, o := range other {
				sum += 1 / (o + inv)
			}
			dst[i] = sum / weight[i]
		}
	}

	n := len(dst)
	if c.workers <= 1 || n < 2 {
		step(0, n)
		return nil
	}

	chunk := (n + c.workers - 1) / c.workers
	var g errgroup.Group
	g.SetLimit(c.workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			step(lo, hi)
			return nil
		})
	}
	return g.Wait()
}
