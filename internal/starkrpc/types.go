package starkrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FunctionCall is the read-call shape of starknet_call.
type FunctionCall struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

// Event is one emitted event from a transaction receipt, data fields in
// emission order.
type Event struct {
	FromAddress string   `json:"from_address"`
	Keys        []string `json:"keys"`
	Data        []string `json:"data"`
}

// Receipt is the subset of a transaction receipt this client consumes.
type Receipt struct {
	TransactionHash string  `json:"transaction_hash"`
	ExecutionStatus string  `json:"execution_status"`
	FinalityStatus  string  `json:"finality_status"`
	Events          []Event `json:"events"`
}

// TxStatus is the response of starknet_getTransactionStatus.
type TxStatus struct {
	FinalityStatus  string `json:"finality_status"`
	ExecutionStatus string `json:"execution_status"`
}

const (
	FinalityReceived   = "RECEIVED"
	FinalityAcceptedL2 = "ACCEPTED_ON_L2"
	FinalityAcceptedL1 = "ACCEPTED_ON_L1"
	FinalityRejected   = "REJECTED"
	ExecutionSucceeded = "SUCCEEDED"
	ExecutionReverted  = "REVERTED"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Contract-level error codes per the Starknet RPC spec. Reads on session ids
// the contract has not issued yet surface as contract errors; scans swallow
// those and keep going.
const (
	codeContractNotFound = 20
	codeContractError    = 40
	codeTxHashNotFound   = 29
)

// IsContractError reports whether err is a contract-side revert (including
// the contract's own unknown-session assertion) rather than a transport or
// node failure.
func IsContractError(err error) bool {
	var re *RPCError
	if !errors.As(err, &re) {
		return false
	}
	return re.Code == codeContractError || re.Code == codeContractNotFound
}

// IsTxNotFound reports whether err is a missing-transaction response still
// expected while submission propagates.
func IsTxNotFound(err error) bool {
	var re *RPCError
	if !errors.As(err, &re) {
		return false
	}
	return re.Code == codeTxHashNotFound
}

// ErrWaitTimeout is returned by WaitForTransaction when the transaction did
// not reach an accepted finality within the bounded wait. Callers treat it
// as "continue without confirmation".
var ErrWaitTimeout = errors.New("transaction confirmation wait timed out")
