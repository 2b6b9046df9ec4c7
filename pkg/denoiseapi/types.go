// Package denoiseapi serves and consumes the denoising pipeline over HTTP.
package denoiseapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// Server defaults
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8888
	DefaultBodyLimit  = 4 * 1024 * 1024 // 4MB

	// Client defaults
	DefaultClientTimeout = 30 // seconds
	DefaultRetryMax      = 3
)

// ErrBadRequest marks handler errors caused by the caller's input; they are answered
// with 400 instead of 500.
var ErrBadRequest = errors.New("bad request")

// Server represents the denoise HTTP server
type Server struct {
	App    *fiber.App
	config *ServerConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	BodyLimit int
	// APIToken enables bearer-token checks on every non-whitelisted route when set.
	APIToken string
}

// StdResponse represents the standardized response structure
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// RouterHandler is a generic handler function type
type RouterHandler[Req, Resp any] func(*fiber.Ctx, Req) (Resp, error)

// DenoiseRequest asks for the z-scores of one weighted adjacency matrix. Iterations and
// Magic fall back to the server's defaults when omitted.
type DenoiseRequest struct {
	Matrix         [][]float64 `json:"matrix"`
	Iterations     *int        `json:"iterations,omitempty"`
	Magic          *float64    `json:"magic,omitempty"`
	IncludeFitness bool        `json:"include_fitness"`
}

type DenoiseResponse struct {
	Z       [][]float64 `json:"z"`
	ZSym    [][]float64 `json:"z_sym"`
	AIn     []float64   `json:"a_in,omitempty"`
	AOut    []float64   `json:"a_out,omitempty"`
	Summary ZSummary    `json:"summary"`
	Cached  bool        `json:"cached"`
}

// ZSummary describes the distribution of Z over all edges.
type ZSummary struct {
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

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

func IntPtr(v int) *int { return &v }

func Float64Ptr(v float64) *float64 { return &v }
