package starkrpc

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

// maskSelector clears everything above bit 249; entrypoint selectors are
// keccak256 truncated into the felt range.
var maskSelector = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// Selector computes the Starknet entrypoint selector for a function name:
// keccak256(name) mod 2^250, rendered as 0x-prefixed lowercase hex.
func Selector(name string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	n := new(big.Int).SetBytes(h.Sum(nil))
	n.And(n, maskSelector)
	return "0x" + n.Text(16)
}
