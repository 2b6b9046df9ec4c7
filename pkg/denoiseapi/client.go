package denoiseapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// Client configuration
type ClientConfig struct {
	Timeout         time.Duration
	RetryMax        int
	RetryWait       time.Duration
	ZstdCompression bool
	APIToken        string
}

type Client struct {
	config      *ClientConfig
	restyClient *resty.Client
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
}

// ResponseError is returned for non-2xx responses and for bodies carrying an error.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a new denoise client. A nil config uses defaults with zstd enabled.
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = &ClientConfig{RetryMax: DefaultRetryMax, ZstdCompression: true}
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout * time.Second
	}
	if config.RetryWait == 0 {
		config.RetryWait = 500 * time.Millisecond
	}

	restyClient := resty.New().
		SetTimeout(config.Timeout).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetRetryCount(config.RetryMax).
		SetRetryWaitTime(config.RetryWait).
		SetRetryMaxWaitTime(20 * config.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := r.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusBadGateway
		})

	if config.ZstdCompression {
		restyClient.SetHeader("Accept-Encoding", "zstd")
	}
	if config.APIToken != "" {
		restyClient.SetAuthToken(config.APIToken)
	}

	client := &Client{
		config:      config,
		restyClient: restyClient,
	}

	if config.ZstdCompression {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		client.encoder = encoder

		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		client.decoder = decoder
	}

	log.Debug().
		Str("timeout", config.Timeout.String()).
		Int("retry_max", config.RetryMax).
		Bool("zstd", config.ZstdCompression).
		Msg("denoise client initialized")

	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// Denoise posts req to baseURL/DenoiseRequest.
func (c *Client) Denoise(ctx context.Context, baseURL string, req *DenoiseRequest) (*DenoiseResponse, error) {
	if req == nil {
		return nil, errors.New("invalid request: must be non-nil")
	}
	return send[DenoiseResponse](ctx, c, http.MethodPost, endpoint(baseURL, "DenoiseRequest"), req)
}

func (c *Client) Health(ctx context.Context, baseURL string) (*HealthResponse, error) {
	return send[HealthResponse](ctx, c, http.MethodGet, endpoint(baseURL, "health"), nil)
}

func endpoint(baseURL, route string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + route
}

func send[T any](ctx context.Context, c *Client, method, url string, request any) (*T, error) {
	req := c.restyClient.R().SetContext(ctx)

	if request != nil {
		jsonData, err := sonic.Marshal(request)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		req.SetHeader("Content-Type", "application/json")
		if c.encoder != nil {
			req.SetHeader("Content-Encoding", "zstd")
			req.SetBody(c.encoder.EncodeAll(jsonData, nil))
		} else {
			req.SetBody(jsonData)
		}
	}

	log.Trace().Str("method", method).Str("url", url).Msg("sending request")

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	// Decompress before error checking so error bodies are readable
	responseBody := resp.Body()
	if c.decoder != nil && resp.Header().Get("Content-Encoding") == "zstd" {
		decompressed, err := c.decoder.DecodeAll(responseBody, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress response: %w", err)
		}
		responseBody = decompressed
	}

	var std StdResponse[T]
	if err := sonic.Unmarshal(responseBody, &std); err != nil {
		if resp.IsError() {
			return nil, &ResponseError{StatusCode: resp.StatusCode(), Message: string(responseBody)}
		}
		return nil, fmt.Errorf("failed to unmarshal StdResponse: %w", err)
	}

	if resp.IsError() || std.Error != nil {
		msg := http.StatusText(resp.StatusCode())
		if std.Error != nil {
			msg = *std.Error
		}
		return nil, &ResponseError{StatusCode: resp.StatusCode(), Message: msg}
	}

	return &std.Body, nil
}
