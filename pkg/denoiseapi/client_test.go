package denoiseapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ClientSuite struct {
	suite.Suite
	server  *Server
	baseURL string
	client  *Client
}

func (s *ClientSuite) SetupSuite() {
	s.server = newTestServer("secret")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.baseURL = "http://" + ln.Addr().String()
	go func() { _ = s.server.App.Listener(ln) }()

	client, err := NewClient(&ClientConfig{
		Timeout:         5 * time.Second,
		RetryWait:       time.Millisecond,
		ZstdCompression: true,
		APIToken:        "secret",
	})
	s.Require().NoError(err)
	s.client = client
}

func (s *ClientSuite) TearDownSuite() {
	s.client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Require().NoError(s.server.Shutdown(ctx))
}

func (s *ClientSuite) TestHealth() {
	resp, err := s.client.Health(context.Background(), s.baseURL)
	s.Require().NoError(err)
	s.Equal("ok", resp.Status)
}

func (s *ClientSuite) TestDenoiseRoundTrip() {
	resp, err := s.client.Denoise(context.Background(), s.baseURL+"/", &DenoiseRequest{
		Matrix:     [][]float64{{0, 1.5}, {2.25, 0}},
		Iterations: IntPtr(10),
	})
	s.Require().NoError(err)
	s.Equal([][]float64{{0, 1.5}, {2.25, 0}}, resp.Z)
	s.Equal(4, resp.Summary.Total)
}

func (s *ClientSuite) TestDenoiseBadRequest() {
	_, err := s.client.Denoise(context.Background(), s.baseURL, &DenoiseRequest{})
	s.Require().Error(err)

	var respErr *ResponseError
	s.Require().True(errors.As(err, &respErr))
	s.Equal(http.StatusBadRequest, respErr.StatusCode)
	s.Contains(respErr.Message, "matrix is empty")
}

func (s *ClientSuite) TestDenoiseWrongToken() {
	client, err := NewClient(&ClientConfig{APIToken: "nope", RetryWait: time.Millisecond})
	s.Require().NoError(err)
	defer client.Close()

	_, err = client.Denoise(context.Background(), s.baseURL, &DenoiseRequest{Matrix: [][]float64{{1}}})
	var respErr *ResponseError
	s.Require().True(errors.As(err, &respErr))
	s.Equal(http.StatusForbidden, respErr.StatusCode)
}

func (s *ClientSuite) TestDenoiseNilRequest() {
	_, err := s.client.Denoise(context.Background(), s.baseURL, nil)
	s.Error(err)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func TestClientRetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"body":{"status":"ok","timestamp":1}}`))
	}))
	defer srv.Close()

	client, err := NewClient(&ClientConfig{RetryMax: 3, RetryWait: time.Millisecond})
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Health(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"body":{},"error":"bad request: matrix is empty"}`))
	}))
	defer srv.Close()

	client, err := NewClient(&ClientConfig{RetryMax: 3, RetryWait: time.Millisecond})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Denoise(context.Background(), srv.URL, &DenoiseRequest{})
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, "bad request: matrix is empty", respErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}
