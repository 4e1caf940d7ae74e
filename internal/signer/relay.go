package signer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// RelaySigner submits through an external execute relay (a paymaster or a
// companion wallet process). The relay decides how the user approves the
// transaction, so strongAuth is forwarded but not enforced here.
type RelaySigner struct {
	executeURL string
	address    string
	http       *fasthttp.Client
	timeout    time.Duration
}

func NewRelaySigner(executeURL, address string) *RelaySigner {
	return &RelaySigner{
		executeURL: strings.TrimSpace(executeURL),
		address:    strings.TrimSpace(address),
		http:       &fasthttp.Client{ReadTimeout: 60 * time.Second, WriteTimeout: 60 * time.Second, MaxConnsPerHost: 4},
		timeout:    60 * time.Second,
	}
}

func (s *RelaySigner) Address() string { return s.address }

func (s *RelaySigner) Execute(ctx context.Context, calls []Call, strongAuth bool) (string, error) {
	if s.executeURL == "" {
		return "", fmt.Errorf("relay signer not configured")
	}
	payload, err := json.Marshal(map[string]any{
		"account":     s.address,
		"calls":       calls,
		"requireAuth": strongAuth,
	})
	if err != nil {
		return "", fmt.Errorf("marshal relay request: %w", err)
	}

	body, status, err := postJSON(ctx, s.http, s.executeURL, "", payload, s.timeout)
	if err != nil {
		return "", fmt.Errorf("relay execute: %w", err)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("relay execute: status=%d body=%s", status, truncate(string(body), 256))
	}

	hash := extractTxHash(body)
	if hash == "" {
		return "", ErrNoTransactionHash
	}
	return hash, nil
}
