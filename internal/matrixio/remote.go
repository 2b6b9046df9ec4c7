package matrixio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// Fetcher downloads CSV matrices over HTTP with retries.
type Fetcher struct {
	httpClient *retryablehttp.Client
}

func NewFetcher(timeout time.Duration, retryMax int, retryWait time.Duration) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.HTTPClient.Timeout = timeout
	client.RetryWaitMin = retryWait
	client.RetryWaitMax = 20 * retryWait
	client.Logger = nil

	log.Debug().
		Int("retry_max", client.RetryMax).
		Str("timeout", client.HTTPClient.Timeout.String()).
		Str("retry_wait_min", client.RetryWaitMin.String()).
		Msg("matrix fetcher initialized")

	return &Fetcher{httpClient: client}
}

// Fetch downloads url and parses the body with ReadCSV.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*mat.Dense, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	m, err := ReadCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	r, _ := m.Dims()
	log.Info().Str("url", url).Int("size", r).Msg("downloaded matrix")
	return m, nil
}
