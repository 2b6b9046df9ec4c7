package denoise

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMatrix       = errors.New("matrix is empty")
	ErrNotSquare         = errors.New("matrix is not square")
	ErrNonPositiveMatrix = errors.New("matrix maximum is not positive")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidIterations = errors.New("iterations must be non-negative")
	ErrDegenerateNode    = errors.New("degenerate node")
	ErrUnknownPolicy     = errors.New("unknown degenerate node policy")
)

// Axis names the side of a node whose observed weight is being summed.
type Axis string

const (
	AxisIn  Axis = "in"
	AxisOut Axis = "out"
)

// DegenerateNodeError reports a node with no observed weight on one axis.
// Its fitness update would divide by zero.
type DegenerateNodeError struct {
	Node int
	Axis Axis
}

func (e *DegenerateNodeError) Error() string {
	return fmt.Sprintf("degenerate node %d: zero total %s-weight", e.Node, e.Axis)
}

func (e *DegenerateNodeError) Unwrap() error {
	return ErrDegenerateNode
}
