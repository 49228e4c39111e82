package retriever

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
)

var (
	// ErrNetwork covers transport failures, non-2xx responses and an open circuit.
	ErrNetwork = errors.New("network error")
	// ErrDecompression is returned when a compressed body is not valid gzip.
	ErrDecompression = errors.New("decompression error")
	// ErrDecode is returned when an uncompressed body is not valid UTF-8 text.
	ErrDecode = errors.New("decode error")
)

// maxErrorBody bounds how much of a failed response is echoed into the error.
const maxErrorBody = 512

// Client downloads datasets over HTTP. Each Retrieve call makes a single GET
// attempt; the circuit breaker only short-circuits calls while the upstream
// keeps failing.
type Client struct {
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a retriever whose requests time out after timeout.
// A zero timeout leaves only the caller's context as the deadline.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dataset-download",
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		circuit:    cb,
		logger:     logger,
	}
}

// Retrieve fetches url. When compressed is true the body is gunzipped;
// otherwise it must be UTF-8 text.
func (c *Client) Retrieve(ctx context.Context, url string, compressed bool) (domain.RawDataset, error) {
	c.logger.Info("retrieving dataset", "url", url, "compressed", compressed)
	start := time.Now()

	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.get(ctx, url)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.RawDataset{}, fmt.Errorf("retrieve %s: %w: %v", url, ErrNetwork, err)
		}
		return domain.RawDataset{}, fmt.Errorf("retrieve %s: %w", url, err)
	}
	body, ok := result.([]byte)
	if !ok {
		return domain.RawDataset{}, fmt.Errorf("retrieve %s: unexpected result type %T", url, result)
	}

	data, err := decodeBody(body, compressed)
	if err != nil {
		return domain.RawDataset{}, fmt.Errorf("retrieve %s: %w", url, err)
	}

	c.logger.Info("dataset retrieved", "url", url, "bytes", len(data), "duration", time.Since(start))
	return domain.RawDataset{Data: data, Compressed: compressed}, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrNetwork, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return body, nil
}

func decodeBody(body []byte, compressed bool) ([]byte, error) {
	if !compressed {
		if !utf8.Valid(body) {
			return nil, ErrDecode
		}
		return body, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return data, nil
}
