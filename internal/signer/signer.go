// Package signer abstracts transaction submission. The session layer only
// needs "execute these calls, give me a transaction hash"; which wallet
// backend does the signing is decided once at startup.
package signer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Call is one contract invocation inside a submitted transaction.
type Call struct {
	ContractAddress string   `json:"contractAddress"`
	Entrypoint      string   `json:"entrypoint"`
	Calldata        []string `json:"calldata"`
}

// Signer submits calls as a signed transaction. strongAuth requests an
// additional user confirmation (biometrics on the custodial backend); relay
// backends may ignore it. An empty hash with a nil error never happens: a
// submission that produced no hash reports an error.
type Signer interface {
	Address() string
	Execute(ctx context.Context, calls []Call, strongAuth bool) (string, error)
}

// ErrNoTransactionHash is returned when the backend accepted the request but
// no transaction hash could be extracted from its response.
var ErrNoTransactionHash = errors.New("no transaction hash in signer response")

// extractTxHash digs a transaction hash out of the response shapes the
// wallet backends have used over time: a bare JSON string, top-level
// transactionHash / transaction_hash, data.transactionHash, and
// result.result.transactionHash.
func extractTxHash(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var bare string
	if err := json.Unmarshal(body, &bare); err == nil {
		return strings.TrimSpace(bare)
	}

	var envelope struct {
		TransactionHash string `json:"transactionHash"`
		TxHashSnake     string `json:"transaction_hash"`
		Data            struct {
			TransactionHash string `json:"transactionHash"`
			TxHashSnake     string `json:"transaction_hash"`
		} `json:"data"`
		Result struct {
			Result struct {
				TransactionHash string `json:"transactionHash"`
			} `json:"result"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	for _, h := range []string{
		envelope.TransactionHash,
		envelope.TxHashSnake,
		envelope.Data.TransactionHash,
		envelope.Data.TxHashSnake,
		envelope.Result.Result.TransactionHash,
	} {
		if s := strings.TrimSpace(h); s != "" {
			return s
		}
	}
	return ""
}
