// rpccheck probes the configured RPC endpoint: chain id, block height and a
// get_game read against the deployed contract, if one is set.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/yacar87/stark-tictactoe/internal/starkrpc"
)

func main() {
	rpcURL := os.Getenv("STARKNET_RPC_URL")
	contract := os.Getenv("TTT_CONTRACT_ADDRESS")
	if rpcURL == "" {
		log.Fatal("STARKNET_RPC_URL is required")
	}

	client := starkrpc.NewClient(rpcURL, starkrpc.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		log.Printf("chainId error: %v", err)
	} else {
		log.Printf("chainId ok: %s", chainID)
	}

	height, err := client.BlockNumber(ctx)
	if err != nil {
		log.Printf("blockNumber error: %v", err)
	} else {
		log.Printf("blockNumber ok: %d", height)
	}

	if contract == "" {
		log.Println("TTT_CONTRACT_ADDRESS not set; skipping contract probe")
		return
	}
	out, err := client.Call(ctx, starkrpc.FunctionCall{
		ContractAddress:    contract,
		EntryPointSelector: starkrpc.Selector("get_game"),
		Calldata:           []string{"0x0"},
	})
	switch {
	case err == nil:
		log.Printf("get_game(0) ok: %d fields", len(out))
	case starkrpc.IsContractError(err):
		log.Printf("get_game(0) contract error (no games yet?): %v", err)
	default:
		log.Printf("get_game(0) error: %v", err)
	}
}
