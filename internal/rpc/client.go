// Package rpc reads the remote mine state over JSON-RPC.
//
// The client is read-only: it fetches the mine state account and the cluster time. Submitting
// transactions requires a signer and is left to external tooling.
package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/poi-miner/post-miner/ledger"
	"github.com/poi-miner/post-miner/shared"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 10 * time.Second

// ErrAccountNotFound is returned when the node has no account at the requested address.
var ErrAccountNotFound = errors.New("account not found")

// Error is an error object returned by the node.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Client is a JSON-RPC 2.0 client for a single node.
type Client struct {
	url     string
	account shared.Identity
	http    *http.Client
	logger  *zap.Logger
	nextID  atomic.Uint64
}

type option struct {
	timeout time.Duration
	logger  *zap.Logger
	client  *http.Client
}

type OptionFunc func(*option) error

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) OptionFunc {
	return func(o *option) error {
		if d <= 0 {
			return fmt.Errorf("invalid timeout %s", d)
		}
		o.timeout = d
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		o.logger = logger
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its timeout takes precedence.
func WithHTTPClient(c *http.Client) OptionFunc {
	return func(o *option) error {
		o.client = c
		return nil
	}
}

// NewClient returns a client reading the mine state stored at account.
func NewClient(url string, account shared.Identity, opts ...OptionFunc) (*Client, error) {
	options := &option{
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if url == "" {
		return nil, errors.New("rpc url is empty")
	}
	if options.client == nil {
		options.client = &http.Client{Timeout: options.timeout}
	}
	return &Client{
		url:     url,
		account: account,
		http:    options.client,
		logger:  options.logger,
	}, nil
}

func (c *Client) call(ctx context.Context, method string, result any, params ...any) error {
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", method, httpResp.Status)
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	c.logger.Debug("rpc: call", zap.String("method", method), zap.Duration("took", time.Since(start)))
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

// AccountData returns the raw data of an account.
func (c *Client) AccountData(ctx context.Context, account shared.Identity) ([]byte, error) {
	var result struct {
		Value *struct {
			Data  []string `json:"data"`
			Owner string   `json:"owner"`
		} `json:"value"`
	}
	cfg := map[string]string{"encoding": "base64", "commitment": "confirmed"}
	if err := c.call(ctx, "getAccountInfo", &result, account.String(), cfg); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	if len(result.Value.Data) < 1 {
		return nil, fmt.Errorf("account %s: missing data", account)
	}
	return base64.StdEncoding.DecodeString(result.Value.Data[0])
}

// MineState fetches and decodes the mine state account.
func (c *Client) MineState(ctx context.Context) (*ledger.MineState, error) {
	data, err := c.AccountData(ctx, c.account)
	if err != nil {
		return nil, err
	}
	return ledger.DecodeMineState(data)
}

func (c *Client) ReadEpochState(ctx context.Context) (*shared.EpochState, error) {
	s, err := c.MineState(ctx)
	if err != nil {
		return nil, err
	}
	return &s.EpochState, nil
}

// Slot returns the latest confirmed slot.
func (c *Client) Slot(ctx context.Context) (uint64, error) {
	var slot uint64
	cfg := map[string]string{"commitment": "confirmed"}
	if err := c.call(ctx, "getSlot", &slot, cfg); err != nil {
		return 0, err
	}
	return slot, nil
}

// BlockTime returns the estimated production time of slot.
func (c *Client) BlockTime(ctx context.Context, slot uint64) (time.Time, error) {
	var ts *int64
	if err := c.call(ctx, "getBlockTime", &ts, slot); err != nil {
		return time.Time{}, err
	}
	if ts == nil {
		return time.Time{}, fmt.Errorf("no block time for slot %d", slot)
	}
	return time.Unix(*ts, 0), nil
}

// Now returns the time of the latest confirmed block.
func (c *Client) Now(ctx context.Context) (time.Time, error) {
	slot, err := c.Slot(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return c.BlockTime(ctx, slot)
}
