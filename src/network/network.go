package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"candle-feed/src/helpers"
	"candle-feed/src/logger"

	"golang.org/x/time/rate"
)

// maxResponseBytes caps how much of an upstream body is read
const maxResponseBytes = 1 << 20

// NetworkManager issues upstream HTTP calls under a shared request budget.
// Every call is a single attempt; the caller's next tick is the retry.
type NetworkManager struct {
	Client  *http.Client
	Limiter *rate.Limiter
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

// NewNetworkManager builds a client allowing ratePerSecond requests with the
// given burst. A non-positive rate disables limiting.
func NewNetworkManager(ratePerSecond float64, burst int, timeout time.Duration, log *logger.Logger) *NetworkManager {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	if log == nil {
		log = logger.NewLogger(nil, "Network")
	}

	return &NetworkManager{
		Client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: timeout,
		},
		Limiter: rate.NewLimiter(limit, burst),
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// PostJSON sends body as JSON and returns the response payload. Waiting for
// the rate limiter counts against ctx. Non-2xx answers become UpstreamError
// carrying the status code.
func (nm *NetworkManager) PostJSON(ctx context.Context, url string, headers map[string]string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if err := nm.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := nm.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		nm.Logger.Debug("Upstream %s answered %d", url, resp.StatusCode)
		return nil, helpers.NewUpstreamError(fmt.Sprintf("bad status from %s", url), resp.StatusCode, nil)
	}

	return data, nil
}
