package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// RPCRequest is a JSON-RPC 2.0 request envelope, generalized from the
// teacher's internal/api/jsonrpc.go request shape for use as an outbound
// client request against the upstream full node.
type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// RPCResponse is a JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RPCClient is a minimal JSON-RPC HTTP client with request-rate limiting,
// used to throttle fan-out against the upstream node during catch-up scans
// (§5's backpressure note — bulk scans must not overwhelm the node).
type RPCClient struct {
	url        string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	logger     *zap.Logger
	nextID     int
}

// NewRPCClient constructs a rate-limited JSON-RPC client against url. rps<=0
// disables rate limiting.
func NewRPCClient(url string, rps int, logger *zap.Logger) *RPCClient {
	var limiter ratelimit.Limiter
	if rps > 0 {
		limiter = ratelimit.New(rps)
	} else {
		limiter = ratelimit.NewUnlimited()
	}
	return &RPCClient{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		logger:     logger,
		nextID:     1,
	}
}

// Call invokes a single JSON-RPC method and returns its raw result.
func (c *RPCClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.limiter.Take()

	req := RPCRequest{JSONRPC: "2.0", ID: c.nextID, Method: method, Params: params}
	c.nextID++

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rpc call %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rpc response: %w", err)
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, fmt.Errorf("decode rpc response for %s: %w", method, err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// CallBatch invokes multiple JSON-RPC requests in one HTTP round trip.
func (c *RPCClient) CallBatch(ctx context.Context, requests []RPCRequest) ([]RPCResponse, error) {
	c.limiter.Take()

	for i := range requests {
		requests[i].ID = c.nextID
		c.nextID++
	}

	body, err := json.Marshal(requests)
	if err != nil {
		return nil, fmt.Errorf("marshal rpc batch: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rpc batch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rpc batch call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rpc batch response: %w", err)
	}

	var responses []RPCResponse
	if err := json.Unmarshal(raw, &responses); err != nil {
		return nil, fmt.Errorf("decode rpc batch response: %w", err)
	}
	return responses, nil
}
