package matrixio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

var ErrMissingInput = errors.New("input file does not exist")

// ResolveInput joins name onto inputDir and checks that the file exists.
func ResolveInput(inputDir, name string) (string, error) {
	path := filepath.Join(inputDir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrMissingInput, path)
	}
	return path, nil
}

func LoadFile(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, err
	}
	defer f.Close()

	m, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// OutputPaths names every file a run may produce for one input.
type OutputPaths struct {
	Z       string
	ZSym    string
	History string
}

// NewOutputPaths derives output names from the input's base name without extension.
func NewOutputPaths(outputDir, input string) OutputPaths {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return OutputPaths{
		Z:       filepath.Join(outputDir, base+"_Z.csv"),
		ZSym:    filepath.Join(outputDir, base+"_Z_sym.csv"),
		History: filepath.Join(outputDir, base+"_history.json.zst"),
	}
}

func WriteFile(path string, m mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, m); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// WriteOutputs creates the output directory when absent and writes both Z matrices.
func WriteOutputs(paths OutputPaths, z, zSym mat.Matrix) error {
	if err := os.MkdirAll(filepath.Dir(paths.Z), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := WriteFile(paths.Z, z); err != nil {
		return err
	}
	if err := WriteFile(paths.ZSym, zSym); err != nil {
		return err
	}
	log.Debug().Str("z", paths.Z).Str("z_sym", paths.ZSym).Msg("wrote z-score matrices")
	return nil
}
