// Package starkrpc is a minimal Starknet JSON-RPC client covering the calls
// the game-session layer needs: contract reads, receipt retrieval and a
// bounded confirmation wait.
package starkrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/yacar87/stark-tictactoe/internal/felt"
	"github.com/yacar87/stark-tictactoe/internal/obslog"
)

type Client struct {
	endpoint string
	http     *fasthttp.Client

	defaultTimeout time.Duration
	waitAttempts   int
	waitInterval   time.Duration

	reqID atomic.Uint64
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

// WithWaitPolicy bounds WaitForTransaction to attempts polls spaced by
// interval.
func WithWaitPolicy(attempts int, interval time.Duration) Option {
	return func(c *Client) {
		c.waitAttempts = attempts
		c.waitInterval = interval
	}
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:       strings.TrimRight(endpoint, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		waitAttempts:   30,
		waitInterval:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call executes a read entrypoint against the latest block and returns the
// raw felt strings.
func (c *Client) Call(ctx context.Context, call FunctionCall) ([]string, error) {
	var out []string
	params := map[string]any{"request": call, "block_id": "latest"}
	if err := c.doRPC(ctx, "starknet_call", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChainID returns the node's chain identifier felt.
func (c *Client) ChainID(ctx context.Context) (string, error) {
	var out string
	if err := c.doRPC(ctx, "starknet_chainId", []any{}, &out); err != nil {
		return "", err
	}
	return felt.NormalizeAddress(out), nil
}

// BlockNumber returns the latest block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var out uint64
	if err := c.doRPC(ctx, "starknet_blockNumber", []any{}, &out); err != nil {
		return 0, err
	}
	return out, nil
}

// GetTransactionStatus fetches finality/execution status for a hash.
func (c *Client) GetTransactionStatus(ctx context.Context, hash string) (*TxStatus, error) {
	var out TxStatus
	params := map[string]any{"transaction_hash": hash}
	if err := c.doRPC(ctx, "starknet_getTransactionStatus", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransactionReceipt fetches the receipt, including emitted events.
func (c *Client) GetTransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	var out Receipt
	params := map[string]any{"transaction_hash": hash}
	if err := c.doRPC(ctx, "starknet_getTransactionReceipt", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForTransaction polls the transaction status until it reaches an
// accepted finality, the transaction is rejected, or the bounded number of
// attempts runs out (ErrWaitTimeout). A hash not yet visible to the node
// counts as a pending poll, not a failure.
func (c *Client) WaitForTransaction(ctx context.Context, hash string) error {
	for attempt := 0; attempt < c.waitAttempts; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(c.waitInterval)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		st, err := c.GetTransactionStatus(ctx, hash)
		if err != nil {
			if IsTxNotFound(err) {
				continue
			}
			obslog.L().Debug("tx_status_poll_error", zap.String("tx", hash), zap.Error(err))
			continue
		}
		switch st.FinalityStatus {
		case FinalityAcceptedL2, FinalityAcceptedL1:
			if st.ExecutionStatus == ExecutionReverted {
				return fmt.Errorf("transaction %s reverted", hash)
			}
			return nil
		case FinalityRejected:
			return fmt.Errorf("transaction %s rejected", hash)
		}
	}
	return ErrWaitTimeout
}

func (c *Client) doRPC(ctx context.Context, method string, params any, out any) error {
	body := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.reqID.Add(1),
		Method:  method,
		Params:  params,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.endpoint)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return fmt.Errorf("rpc request failed: %w", err)
	}
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return fmt.Errorf("rpc http error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
	}

	var parsed rpcResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if parsed.Error != nil {
		return parsed.Error
	}
	if out != nil {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return fmt.Errorf("decode rpc result for %s: %w", method, err)
		}
	}
	return nil
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
