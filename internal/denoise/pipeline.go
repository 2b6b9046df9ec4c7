package denoise

import (
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/denoiser/internal/utils/logger"
)

type DenoisePipeline struct {
	Iterations       int
	Magic            float64
	Significance     float64
	FitnessHistory   bool
	ProbHistory      bool
	Workers          int
	DegeneratePolicy DegeneratePolicy
}

type DenoisePipelineOption func(*DenoisePipeline)

func WithIterations(iterations int) DenoisePipelineOption {
	return func(p *DenoisePipeline) {
		p.Iterations = iterations
	}
}

func WithMagic(magic float64) DenoisePipelineOption {
	return func(p *DenoisePipeline) {
		p.Magic = magic
	}
}

func WithSignificance(threshold float64) DenoisePipelineOption {
	return func(p *DenoisePipeline) {
		p.Significance = threshold
	}
}

func WithHistory(fitness, probabilities bool) DenoisePipelineOption {
	return func(p *DenoisePipeline) {
		p.FitnessHistory = fitness
		p.ProbHistory = probabilities
	}
}

func WithPipelineWorkers(workers int) DenoisePipelineOption {
	return func(p *DenoisePipeline) {
		p.Workers = workers
	}
}

func WithPolicy(policy DegeneratePolicy) DenoisePipelineOption {
	return func(p *DenoisePipeline) {
		p.DegeneratePolicy = policy
	}
}

func MaxEntPipeline(opts ...DenoisePipelineOption) *DenoisePipeline {
	p := &DenoisePipeline{
		Iterations:       DefaultIterations,
		Magic:            Magic,
		Significance:     DefaultSignificance,
		Workers:          1,
		DegeneratePolicy: DegenerateFail,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Process normalizes raw, calibrates the fitness model on the normalized
// matrix and scores every edge against it.
func (p *DenoisePipeline) Process(raw mat.Matrix) (*PipelineResult, error) {
	logger.Sugar().Infow("Processing with denoise params",
		"iterations", p.Iterations,
		"magic", p.Magic,
		"workers", p.Workers,
		"policy", p.DegeneratePolicy,
	)

	mn, err := Normalize(raw, p.Magic)
	if err != nil {
		return nil, err
	}

	calibration, err := Calibrate(mn, p.Iterations,
		WithFitnessHistory(p.FitnessHistory),
		WithProbabilityHistory(p.ProbHistory),
		WithWorkers(p.Workers),
		WithDegeneratePolicy(p.DegeneratePolicy),
	)
	if err != nil {
		return nil, err
	}

	scores, err := ScoreUncertainty(mn, calibration.P, calibration.AOut, calibration.AIn)
	if err != nil {
		return nil, err
	}

	summary, err := Summarize(scores.Z, p.Significance)
	if err != nil {
		return nil, err
	}

	logger.Sugar().Debugw("Denoise pipeline finished",
		"nodes", len(calibration.AIn),
		"significant", summary.Significant,
		"total", summary.Total,
	)

	return &PipelineResult{
		Normalized:  mn,
		Calibration: calibration,
		Scores:      scores,
		Summary:     summary,
	}, nil
}
