package ethrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zephyra-labs/tradeledger/internal/domain/chain"
)

// Client implements chain.Client over the Ethereum JSON-RPC HTTP API. Only
// the two read methods the verifier needs are wired.
type Client struct {
	endpoint string
	http     *http.Client
	nextID   atomic.Uint64
	logger   zerolog.Logger
}

// NewClient creates a read-only JSON-RPC client for endpoint.
func NewClient(endpoint string, logger zerolog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   logger.With().Str("component", "ethrpc").Logger(),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcReceipt struct {
	TransactionHash string `json:"transactionHash"`
	Status          string `json:"status"`
	BlockNumber     string `json:"blockNumber"`
}

// TransactionReceipt fetches the receipt for txHash. A null result from the
// node means the transaction is unknown or still pending and maps to
// (nil, nil).
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*chain.Receipt, error) {
	var raw rpcReceipt
	found, err := c.call(ctx, "eth_getTransactionReceipt", []any{txHash}, &raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	receipt := &chain.Receipt{
		TxHash:    raw.TransactionHash,
		Succeeded: raw.Status == "0x1",
	}
	if raw.BlockNumber != "" {
		block, err := parseHexUint(raw.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("malformed blockNumber in receipt: %w", err)
		}
		receipt.BlockNumber = &block
	}
	return receipt, nil
}

// ChainHeight returns the node's current block height.
func (c *Client) ChainHeight(ctx context.Context) (uint64, error) {
	var raw string
	found, err := c.call(ctx, "eth_blockNumber", []any{}, &raw)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("node returned no block number")
	}
	return parseHexUint(raw)
}

// call executes one JSON-RPC request. It returns found=false when the node
// answered with a null result.
func (c *Client) call(ctx context.Context, method string, params []any, out any) (bool, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("node returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return false, fmt.Errorf("malformed rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return false, rpcResp.Error
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return false, fmt.Errorf("malformed rpc result: %w", err)
	}
	return true, nil
}

func parseHexUint(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	return strconv.ParseUint(s, 16, 64)
}
