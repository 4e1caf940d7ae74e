package signer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/yacar87/stark-tictactoe/internal/obslog"
)

// WalletSigner submits through a custodial wallet service that holds the
// account key and signs server-side. strongAuth maps to the service's
// per-transaction user confirmation requirement.
type WalletSigner struct {
	baseURL string
	apiKey  string
	address string
	http    *fasthttp.Client
	timeout time.Duration
}

func NewWalletSigner(baseURL, apiKey, address string) *WalletSigner {
	return &WalletSigner{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		address: strings.TrimSpace(address),
		http:    &fasthttp.Client{ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, MaxConnsPerHost: 8},
		timeout: 30 * time.Second,
	}
}

func (s *WalletSigner) Address() string { return s.address }

func (s *WalletSigner) Execute(ctx context.Context, calls []Call, strongAuth bool) (string, error) {
	if s.baseURL == "" {
		return "", fmt.Errorf("wallet signer not configured")
	}
	payload, err := json.Marshal(map[string]any{
		"address":     s.address,
		"calls":       calls,
		"requireAuth": strongAuth,
	})
	if err != nil {
		return "", fmt.Errorf("marshal execute request: %w", err)
	}

	body, status, err := postJSON(ctx, s.http, s.baseURL+"/v1/execute", s.apiKey, payload, s.timeout)
	if err != nil {
		return "", fmt.Errorf("wallet execute: %w", err)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("wallet execute: status=%d body=%s", status, truncate(string(body), 256))
	}

	hash := extractTxHash(body)
	if hash == "" {
		obslog.L().Warn("wallet_execute_no_hash", zap.ByteString("body", body[:min(len(body), 256)]))
		return "", ErrNoTransactionHash
	}
	return hash, nil
}

func postJSON(ctx context.Context, client *fasthttp.Client, url, apiKey string, payload []byte, timeout time.Duration) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	req.SetBody(payload)

	deadline := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := client.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}
	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
