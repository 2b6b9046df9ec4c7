// Package service answers denoise API requests with the max-entropy pipeline, caching
// serialized responses by input.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/denoiser/internal/cache"
	"github.com/tensorplex-labs/denoiser/internal/config"
	"github.com/tensorplex-labs/denoiser/internal/denoise"
	"github.com/tensorplex-labs/denoiser/pkg/denoiseapi"
)

type Options struct {
	Iterations    int
	Magic         float64
	Significance  float64
	Workers       int
	Policy        denoise.DegeneratePolicy
	MaxMatrixSize int
	MaxIterations int
	CacheTTL      time.Duration
}

// OptionsFromConfig takes the request defaults from the environment.
func OptionsFromConfig(cfg *config.AppConfig) Options {
	return Options{
		Iterations:    cfg.Iterations,
		Magic:         cfg.Magic,
		Significance:  cfg.Significance,
		Workers:       cfg.Workers,
		Policy:        cfg.Policy(),
		MaxMatrixSize: cfg.MaxMatrixSize,
		MaxIterations: cfg.MaxIterations,
		CacheTTL:      cfg.RedisCacheTTL,
	}
}

type Service struct {
	opts  Options
	store cache.Store
}

// New builds a Service. store may be nil to disable caching.
func New(opts Options, store cache.Store) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Service{opts: opts, store: store}
}

// Handler adapts Denoise to the API router.
func (s *Service) Handler() denoiseapi.RouterHandler[denoiseapi.DenoiseRequest, denoiseapi.DenoiseResponse] {
	return func(c *fiber.Ctx, req denoiseapi.DenoiseRequest) (denoiseapi.DenoiseResponse, error) {
		resp, err := s.Denoise(c.UserContext(), &req)
		if err != nil {
			return denoiseapi.DenoiseResponse{}, err
		}
		return *resp, nil
	}
}

func (s *Service) Denoise(ctx context.Context, req *denoiseapi.DenoiseRequest) (*denoiseapi.DenoiseResponse, error) {
	iterations := s.opts.Iterations
	if req.Iterations != nil {
		iterations = *req.Iterations
	}
	magic := s.opts.Magic
	if req.Magic != nil {
		magic = *req.Magic
	}

	raw, err := s.validate(req.Matrix, iterations, magic)
	if err != nil {
		return nil, err
	}

	key := cache.Key(req.Matrix, cache.KeyParams{
		Iterations:   iterations,
		Magic:        magic,
		Policy:       s.opts.Policy,
		Significance: s.opts.Significance,
	})
	if resp, ok := s.lookup(ctx, key); ok {
		return shape(resp, req.IncludeFitness), nil
	}

	pipeline := denoise.MaxEntPipeline(
		denoise.WithIterations(iterations),
		denoise.WithMagic(magic),
		denoise.WithSignificance(s.opts.Significance),
		denoise.WithPipelineWorkers(s.opts.Workers),
		denoise.WithPolicy(s.opts.Policy),
	)
	result, err := pipeline.Process(raw)
	if err != nil {
		if isInputError(err) {
			return nil, fmt.Errorf("%w: %w", denoiseapi.ErrBadRequest, err)
		}
		return nil, err
	}

	resp := &denoiseapi.DenoiseResponse{
		Z:       rows(result.Scores.Z),
		ZSym:    rows(result.Scores.ZSym),
		AIn:     result.Calibration.AIn,
		AOut:    result.Calibration.AOut,
		Summary: toAPISummary(result.Summary),
	}
	s.save(ctx, key, resp)

	return shape(resp, req.IncludeFitness), nil
}

func (s *Service) validate(matrix [][]float64, iterations int, magic float64) (*mat.Dense, error) {
	n := len(matrix)
	switch {
	case n == 0:
		return nil, fmt.Errorf("%w: matrix is empty", denoiseapi.ErrBadRequest)
	case s.opts.MaxMatrixSize > 0 && n > s.opts.MaxMatrixSize:
		return nil, fmt.Errorf("%w: matrix size %d exceeds limit %d", denoiseapi.ErrBadRequest, n, s.opts.MaxMatrixSize)
	case iterations < 0:
		return nil, fmt.Errorf("%w: iterations must be >= 0, got %d", denoiseapi.ErrBadRequest, iterations)
	case s.opts.MaxIterations > 0 && iterations > s.opts.MaxIterations:
		return nil, fmt.Errorf("%w: iterations %d exceeds limit %d", denoiseapi.ErrBadRequest, iterations, s.opts.MaxIterations)
	case math.IsNaN(magic) || math.IsInf(magic, 0):
		return nil, fmt.Errorf("%w: magic must be finite", denoiseapi.ErrBadRequest)
	}

	data := make([]float64, 0, n*n)
	for i, row := range matrix {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", denoiseapi.ErrBadRequest, i, len(row), n)
		}
		data = append(data, row...)
	}
	return mat.NewDense(n, n, data), nil
}

func (s *Service) lookup(ctx context.Context, key string) (*denoiseapi.DenoiseResponse, bool) {
	if s.store == nil {
		return nil, false
	}
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var resp denoiseapi.DenoiseResponse
	if err := sonic.UnmarshalString(raw, &resp); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return nil, false
	}
	resp.Cached = true
	log.Debug().Str("key", key).Msg("cache hit")
	return &resp, true
}

func (s *Service) save(ctx context.Context, key string, resp *denoiseapi.DenoiseResponse) {
	if s.store == nil {
		return
	}
	raw, err := sonic.MarshalString(resp)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal response for cache")
		return
	}
	if err := s.store.Set(ctx, key, raw, s.opts.CacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache store failed")
	}
}

// shape returns a copy of resp without fitnesses unless they were asked for.
func shape(resp *denoiseapi.DenoiseResponse, includeFitness bool) *denoiseapi.DenoiseResponse {
	out := *resp
	if !includeFitness {
		out.AIn = nil
		out.AOut = nil
	}
	return &out
}

func isInputError(err error) bool {
	for _, target := range []error{
		denoise.ErrEmptyMatrix,
		denoise.ErrNotSquare,
		denoise.ErrNonPositiveMatrix,
		denoise.ErrInvalidIterations,
		denoise.ErrDegenerateNode,
		denoise.ErrDimensionMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func rows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

func toAPISummary(s denoise.Summary) denoiseapi.ZSummary {
	return denoiseapi.ZSummary{
		Mean:        s.Mean,
		StdDev:      s.StdDev,
		Median:      s.Median,
		AbsP95:      s.AbsP95,
		Min:         s.Min,
		Max:         s.Max,
		Threshold:   s.Threshold,
		Significant: s.Significant,
		Total:       s.Total,
	}
}
