package denoise

import (
	"fmt"
	"strings"
)

const (
	DefaultIterations = 100

	// Magic is added to the matrix maximum before normalization. It is kept at
	// zero; a non-zero value acts as a regularization offset.
	Magic = 0.0

	// DefaultSignificance is the |Z| threshold above which an edge is counted
	// as significant in a Summary.
	DefaultSignificance = 1.96
)

// DegeneratePolicy decides what the calibrator does with nodes whose total
// in- or out-weight is zero.
type DegeneratePolicy string

const (
	// DegenerateFail rejects the matrix before any iteration runs.
	DegenerateFail DegeneratePolicy = "fail"
	// DegenerateFreeze keeps the node's fitness at its initial value of 1.
	DegenerateFreeze DegeneratePolicy = "freeze"
)

func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch DegeneratePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DegenerateFail:
		return DegenerateFail, nil
	case DegenerateFreeze:
		return DegenerateFreeze, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}
