package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/denoiser/internal/config"
	"github.com/tensorplex-labs/denoiser/internal/denoise"
	"github.com/tensorplex-labs/denoiser/internal/matrixio"
	"github.com/tensorplex-labs/denoiser/internal/utils/logger"
	"github.com/tensorplex-labs/denoiser/pkg/denoiseapi"
)

var (
	inputFile = flag.String("input_file", "", "name of the input file, resolved inside DENOISE_INPUT_DIR")
	inputURL  = flag.String("input_url", "", "download the input CSV from this URL instead of reading a file")
	serverURL = flag.String("server_url", "", "denoise on a remote server instead of locally")
	history   = flag.Bool("history", false, "write calibration histories next to the outputs")
	plot      = flag.Bool("plot", false, "plot the fitted fitnesses in the terminal")
)

type runOptions struct {
	InputFile string
	InputURL  string
	ServerURL string
	History   bool
	Plot      bool
}

func main() {
	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	opts := runOptions{
		InputFile: *inputFile,
		InputURL:  *inputURL,
		ServerURL: *serverURL,
		History:   *history || cfg.SaveHistory,
		Plot:      *plot,
	}

	if err := run(ctx, cfg, opts); err != nil {
		if errors.Is(err, matrixio.ErrMissingInput) {
			log.Error().Err(err).Msg("Input file does not exist")
		} else {
			log.Error().Err(err).Msg("Denoising failed")
		}
		cancel()
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, opts runOptions) error {
	if opts.InputFile == "" && opts.InputURL == "" {
		return errors.New("one of --input_file or --input_url is required")
	}

	raw, name, err := loadInput(ctx, cfg, opts)
	if err != nil {
		return err
	}
	paths := matrixio.NewOutputPaths(cfg.OutputDir, name)

	if opts.ServerURL != "" {
		return runRemote(ctx, cfg, opts, raw, paths)
	}

	pipeline := denoise.MaxEntPipeline(
		denoise.WithIterations(cfg.Iterations),
		denoise.WithMagic(cfg.Magic),
		denoise.WithSignificance(cfg.Significance),
		denoise.WithHistory(opts.History, opts.History && cfg.ProbHistory),
		denoise.WithPipelineWorkers(cfg.Workers),
		denoise.WithPolicy(cfg.Policy()),
	)
	result, err := pipeline.Process(raw)
	if err != nil {
		return err
	}

	if err := matrixio.WriteOutputs(paths, result.Scores.Z, result.Scores.ZSym); err != nil {
		return err
	}
	if opts.History {
		h := matrixio.NewHistoryExport(result.Calibration, cfg.Iterations)
		if err := matrixio.WriteHistoryFile(paths.History, h); err != nil {
			return fmt.Errorf("failed to write history: %w", err)
		}
		log.Info().Str("path", paths.History).Msg("Calibration history saved")
	}

	logSummary(result.Summary.Mean, result.Summary.StdDev, result.Summary.AbsP95,
		result.Summary.Significant, result.Summary.Total)
	if opts.Plot {
		denoise.PlotNodeValuesTerminal(os.Stdout, result.Calibration.AOut, "Out-fitness per node")
		denoise.PlotNodeValuesTerminal(os.Stdout, result.Calibration.AIn, "In-fitness per node")
	}

	log.Info().Str("output_dir", cfg.OutputDir).Msg("Denoising complete")
	return nil
}

func loadInput(ctx context.Context, cfg *config.AppConfig, opts runOptions) (*mat.Dense, string, error) {
	if opts.InputURL != "" {
		fetcher := matrixio.NewFetcher(cfg.ClientTimeout, cfg.ClientRetryMax, cfg.ClientRetryWait)
		m, err := fetcher.Fetch(ctx, opts.InputURL)
		if err != nil {
			return nil, "", err
		}
		name := opts.InputFile
		if name == "" {
			name = opts.InputURL
		}
		return m, name, nil
	}

	path, err := matrixio.ResolveInput(cfg.InputDir, opts.InputFile)
	if err != nil {
		return nil, "", err
	}
	m, err := matrixio.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return m, opts.InputFile, nil
}

func runRemote(ctx context.Context, cfg *config.AppConfig, opts runOptions, raw *mat.Dense, paths matrixio.OutputPaths) error {
	if opts.History {
		log.Warn().Msg("Calibration history is not available for remote runs")
	}

	client, err := denoiseapi.NewClient(&denoiseapi.ClientConfig{
		Timeout:         cfg.ClientTimeout,
		RetryMax:        cfg.ClientRetryMax,
		RetryWait:       cfg.ClientRetryWait,
		ZstdCompression: true,
		APIToken:        cfg.APIToken,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	r, _ := raw.Dims()
	matrix := make([][]float64, r)
	for i := range matrix {
		matrix[i] = mat.Row(nil, i, raw)
	}

	resp, err := client.Denoise(ctx, opts.ServerURL, &denoiseapi.DenoiseRequest{
		Matrix:         matrix,
		Iterations:     denoiseapi.IntPtr(cfg.Iterations),
		Magic:          denoiseapi.Float64Ptr(cfg.Magic),
		IncludeFitness: opts.Plot,
	})
	if err != nil {
		return err
	}

	z, err := denseOf(resp.Z)
	if err != nil {
		return err
	}
	zSym, err := denseOf(resp.ZSym)
	if err != nil {
		return err
	}
	if err := matrixio.WriteOutputs(paths, z, zSym); err != nil {
		return err
	}

	logSummary(resp.Summary.Mean, resp.Summary.StdDev, resp.Summary.AbsP95,
		resp.Summary.Significant, resp.Summary.Total)
	if opts.Plot {
		denoise.PlotNodeValuesTerminal(os.Stdout, resp.AOut, "Out-fitness per node")
		denoise.PlotNodeValuesTerminal(os.Stdout, resp.AIn, "In-fitness per node")
	}

	log.Info().Str("server", opts.ServerURL).Bool("cached", resp.Cached).Msg("Remote denoising complete")
	return nil
}

func denseOf(rows [][]float64) (*mat.Dense, error) {
	n := len(rows)
	if n == 0 {
		return nil, errors.New("server returned an empty matrix")
	}
	data := make([]float64, 0, n*n)
	for _, row := range rows {
		if len(row) != n {
			return nil, errors.New("server returned a non-square matrix")
		}
		data = append(data, row...)
	}
	return mat.NewDense(n, n, data), nil
}

func logSummary(mean, std, absP95 float64, significant, total int) {
	log.Info().
		Float64("mean", mean).
		Float64("std_dev", std).
		Float64("abs_p95", absP95).
		Int("significant", significant).
		Int("total", total).
		Msg("Z-score summary")
}
