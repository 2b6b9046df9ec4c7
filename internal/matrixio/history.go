package matrixio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/denoiser/internal/denoise"
)

// HistoryExport is the on-disk form of the calibration trajectories. Rows are rounds;
// probability columns follow row-major edge order.
type HistoryExport struct {
	Iterations  int         `json:"iterations"`
	Nodes       int         `json:"nodes"`
	AIn         [][]float64 `json:"a_in"`
	AOut        [][]float64 `json:"a_out"`
	Probability [][]float64 `json:"probability,omitempty"`
}

func NewHistoryExport(res *denoise.CalibrationResult, iterations int) *HistoryExport {
	return &HistoryExport{
		Iterations:  iterations,
		Nodes:       len(res.AIn),
		AIn:         rowsOf(res.AInHistory),
		AOut:        rowsOf(res.AOutHistory),
		Probability: rowsOf(res.ProbHistory),
	}
}

func rowsOf(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

// EncodeHistory marshals h with sonic and compresses it with zstd.
func EncodeHistory(h *HistoryExport) ([]byte, error) {
	raw, err := sonic.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(raw, nil), nil
}

func DecodeHistory(data []byte) (*HistoryExport, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress history: %w", err)
	}
	var h HistoryExport
	if err := sonic.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return &h, nil
}

func WriteHistoryFile(path string, h *HistoryExport) error {
	data, err := EncodeHistory(h)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func ReadHistoryFile(path string) (*HistoryExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeHistory(data)
}
