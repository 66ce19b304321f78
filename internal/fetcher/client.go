package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"gaswatch/internal/config"
	"gaswatch/internal/model"
)

// FeeHistoryResult is the raw eth_feeHistory payload. Values stay hex-encoded
// until the extractor converts them.
type FeeHistoryResult struct {
	OldestBlock   string     `json:"oldestBlock"`
	BaseFeePerGas []string   `json:"baseFeePerGas"`
	Reward        [][]string `json:"reward"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Options parameterise the fee-history client.
type Options struct {
	RequestTimeout  time.Duration
	MaxAttempts     int
	BackoffBase     time.Duration
	MaxConnsPerHost int
}

// Client fetches eth_feeHistory over JSON-RPC with per-endpoint retry and
// ordered endpoint failover. The underlying connection pool is shared and
// safe for concurrent use by all per-network tasks.
type Client struct {
	opts   Options
	client *http.Client
	logger zerolog.Logger
}

// NewClient constructs a fee-history client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	if opts.MaxConnsPerHost <= 0 {
		opts.MaxConnsPerHost = 20
	}

	transport := &http.Transport{
		MaxIdleConns:        opts.MaxConnsPerHost,
		MaxIdleConnsPerHost: opts.MaxConnsPerHost,
		MaxConnsPerHost:     opts.MaxConnsPerHost,
	}

	return &Client{
		opts: opts,
		client: &http.Client{
			Timeout:   opts.RequestTimeout,
			Transport: transport,
		},
		logger: logger.With().Str("component", "rpc_client").Logger(),
	}
}

// Fetch tries each configured endpoint in order until one yields a sample.
// A parse failure counts like an endpoint failure and advances to the next
// endpoint with a fresh retry budget.
func (c *Client) Fetch(ctx context.Context, network string, cfg config.NetworkConfig) (model.GasSample, error) {
	var lastErr error
	for _, endpoint := range cfg.RPCURLs {
		if endpoint == "" {
			continue
		}

		raw, err := c.feeHistory(ctx, endpoint, network, cfg.FeeHistoryBlocks)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return model.GasSample{}, ctx.Err()
			}
			continue
		}

		sample, err := Extract(network, raw, time.Now().UTC())
		if err != nil {
			c.logger.Error().Err(err).Str("network", network).Str("endpoint", endpoint).Msg("malformed fee history response")
			lastErr = err
			continue
		}
		return sample, nil
	}

	if lastErr != nil {
		return model.GasSample{}, fmt.Errorf("%w (%s): %w", ErrAllEndpointsFailed, network, lastErr)
	}
	return model.GasSample{}, fmt.Errorf("%w (%s)", ErrAllEndpointsFailed, network)
}

// feeHistory performs the eth_feeHistory call against a single endpoint with
// up to MaxAttempts attempts and exponential backoff between them.
func (c *Client) feeHistory(ctx context.Context, endpoint, network string, blocks int) (*FeeHistoryResult, error) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_feeHistory",
		Params: []any{
			fmt.Sprintf("0x%x", blocks),
			"latest",
			model.RewardPercentiles(),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal rpc payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := c.post(ctx, endpoint, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.logger.Warn().Err(err).
			Str("network", network).
			Str("endpoint", endpoint).
			Int("attempt", attempt+1).
			Msg("fee history attempt failed")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("endpoint %s exhausted after %d attempts: %w", endpoint, c.opts.MaxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (*FeeHistoryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send rpc request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected http status %d", resp.StatusCode)
	}

	var rpcRes rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcRes); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	if rpcRes.Error != nil {
		return nil, rpcRes.Error
	}
	if len(rpcRes.Result) == 0 || bytes.Equal(rpcRes.Result, []byte("null")) {
		return nil, errors.New("rpc response missing result")
	}

	var result FeeHistoryResult
	if err := json.Unmarshal(rpcRes.Result, &result); err != nil {
		return nil, fmt.Errorf("decode fee history result: %w", err)
	}
	return &result, nil
}

// backoff sleeps for BackoffBase doubled per prior attempt (1s, 2s, 4s, ...),
// respecting context cancellation.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.opts.BackoffBase << (attempt - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close releases idle connections held by the shared pool.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

var _ FeeSource = (*Client)(nil)
