package node

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/hnsexplorer/indexer/pkg/config"
	"github.com/hnsexplorer/indexer/pkg/logging"
	"github.com/hnsexplorer/indexer/pkg/telemetry"
)

// Client is the Chain Client (B): a thin, stateless adapter over the
// upstream full node's JSON-RPC interface, generalized from the teacher's
// internal/steem/client.go Steem adapter to the Handshake node RPC surface
// enumerated in spec §4.1/§6.2.
type Client struct {
	rpc        *RPCClient
	maxBatch   int
	maxWorkers int
	logger     *zap.Logger
}

// New creates a new chain client.
func New(cfg *config.NodeConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("node_url is required")
	}

	logger := logging.GetLogger().With(zap.String("component", "node-client"))
	rpcClient := NewRPCClient(cfg.URL, cfg.RPS, logger)

	client := &Client{
		rpc:        rpcClient,
		maxBatch:   cfg.MaxBatch,
		maxWorkers: cfg.MaxWorkers,
		logger:     logger,
	}

	logger.Info("chain client initialized", zap.String("url", cfg.URL))
	return client, nil
}

// GetTip returns the current chain tip.
func (c *Client) GetTip(ctx context.Context) (*Entry, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_tip")
	defer span.End()

	result, err := c.rpc.Call(ctx, "getblockchaininfo", []interface{}{})
	if err != nil {
		return nil, fmt.Errorf("get tip: %w", err)
	}

	var info struct {
		Blocks    uint32 `json:"blocks"`
		BestBlock string `json:"bestblockhash"`
		Time      int64  `json:"time"`
	}
	if err := json.Unmarshal(result, &info); err != nil {
		return nil, fmt.Errorf("decode tip: %w", err)
	}

	return &Entry{Height: info.Blocks, Hash: info.BestBlock, Time: info.Time}, nil
}

// GetEntry fetches a block header entry by height.
func (c *Client) GetEntry(ctx context.Context, height uint32) (*Entry, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_entry")
	defer span.End()

	result, err := c.rpc.Call(ctx, "getblockheader", []interface{}{height})
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", height, err)
	}

	var entry Entry
	if err := json.Unmarshal(result, &entry); err != nil {
		return nil, fmt.Errorf("decode entry %d: %w", height, err)
	}
	return &entry, nil
}

// GetBlock fetches a full decoded block by height or hash.
func (c *Client) GetBlock(ctx context.Context, hashOrHeight interface{}) (*Block, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_block")
	defer span.End()

	result, err := c.rpc.Call(ctx, "getblock", []interface{}{hashOrHeight, true})
	if err != nil {
		return nil, fmt.Errorf("get block %v: %w", hashOrHeight, err)
	}

	var block Block
	if err := json.Unmarshal(result, &block); err != nil {
		return nil, fmt.Errorf("decode block %v: %w", hashOrHeight, err)
	}
	return &block, nil
}

// GetBlocksRange fetches a contiguous batch of blocks by height, bounded by
// maxBatch, using a single JSON-RPC batch round trip (§5's backpressure
// note — catch-up fetches in bulk rather than one block at a time).
func (c *Client) GetBlocksRange(ctx context.Context, from, to uint32) ([]*Block, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_blocks_range")
	defer span.End()

	if to < from {
		return nil, fmt.Errorf("invalid range: to (%d) < from (%d)", to, from)
	}
	count := int(to-from) + 1
	if count > c.maxBatch {
		return nil, fmt.Errorf("range too large: %d blocks (max: %d)", count, c.maxBatch)
	}

	requests := make([]RPCRequest, 0, count)
	for h := from; h <= to; h++ {
		requests = append(requests, RPCRequest{
			JSONRPC: "2.0",
			Method:  "getblock",
			Params:  []interface{}{h, true},
		})
	}

	responses, err := c.rpc.CallBatch(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("get blocks range %d-%d: %w", from, to, err)
	}

	blocks := make([]*Block, 0, len(responses))
	for _, resp := range responses {
		if resp.Error != nil {
			return nil, fmt.Errorf("rpc error in batch: %s", resp.Error.Message)
		}
		var block Block
		if err := json.Unmarshal(resp.Result, &block); err != nil {
			return nil, fmt.Errorf("decode block in batch: %w", err)
		}
		blocks = append(blocks, &block)
	}
	return blocks, nil
}

// GetBlockView resolves any inputs in block that reference coins not
// otherwise known, via the node's coin index (§4.1's getBlockView).
func (c *Client) GetBlockView(ctx context.Context, block *Block) (*View, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_block_view")
	defer span.End()

	result, err := c.rpc.Call(ctx, "getblockview", []interface{}{block.Hash})
	if err != nil {
		return nil, fmt.Errorf("get block view for %s: %w", block.Hash, err)
	}

	var view View
	if err := json.Unmarshal(result, &view); err != nil {
		return nil, fmt.Errorf("decode block view for %s: %w", block.Hash, err)
	}
	return &view, nil
}

// GetMedianTime returns the median-time-past for an entry.
func (c *Client) GetMedianTime(ctx context.Context, entry *Entry) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_median_time")
	defer span.End()

	result, err := c.rpc.Call(ctx, "getmediantime", []interface{}{entry.Hash})
	if err != nil {
		return 0, fmt.Errorf("get median time for %s: %w", entry.Hash, err)
	}

	var mtp int64
	if err := json.Unmarshal(result, &mtp); err != nil {
		return 0, fmt.Errorf("decode median time: %w", err)
	}
	return mtp, nil
}

// GetNextHash returns the hash of the block following hash, or empty if
// hash is the tip.
func (c *Client) GetNextHash(ctx context.Context, hash string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_next_hash")
	defer span.End()

	result, err := c.rpc.Call(ctx, "getnextblockhash", []interface{}{hash})
	if err != nil {
		return "", fmt.Errorf("get next hash for %s: %w", hash, err)
	}

	var next string
	if err := json.Unmarshal(result, &next); err != nil {
		return "", nil // no next block
	}
	return next, nil
}

// GetNameState returns the node's authoritative current state for a name,
// or nil if the name has never been touched.
func (c *Client) GetNameState(ctx context.Context, nameHash string) (*NameState, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_name_state")
	defer span.End()

	result, err := c.rpc.Call(ctx, "getnameinfo", []interface{}{nameHash})
	if err != nil {
		return nil, fmt.Errorf("get name state for %s: %w", nameHash, err)
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}

	var state NameState
	if err := json.Unmarshal(result, &state); err != nil {
		return nil, fmt.Errorf("decode name state for %s: %w", nameHash, err)
	}
	return &state, nil
}

// GetMeta returns transaction metadata + block linkage by txid.
func (c *Client) GetMeta(ctx context.Context, txid string) (*TxMeta, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_meta")
	defer span.End()

	result, err := c.rpc.Call(ctx, "gettxmeta", []interface{}{txid})
	if err != nil {
		return nil, fmt.Errorf("get tx meta for %s: %w", txid, err)
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}

	var meta TxMeta
	if err := json.Unmarshal(result, &meta); err != nil {
		return nil, fmt.Errorf("decode tx meta for %s: %w", txid, err)
	}
	return &meta, nil
}

// GetMetaView resolves the view (prevout values) needed to interpret meta's
// inputs.
func (c *Client) GetMetaView(ctx context.Context, meta *TxMeta) (*View, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_meta_view")
	defer span.End()

	result, err := c.rpc.Call(ctx, "gettxview", []interface{}{meta.Tx.Txid})
	if err != nil {
		return nil, fmt.Errorf("get meta view for %s: %w", meta.Tx.Txid, err)
	}

	var view View
	if err := json.Unmarshal(result, &view); err != nil {
		return nil, fmt.Errorf("decode meta view for %s: %w", meta.Tx.Txid, err)
	}
	return &view, nil
}

// GetMempool returns every pending transaction in the node's mempool.
func (c *Client) GetMempool(ctx context.Context) ([]MempoolEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_mempool")
	defer span.End()

	result, err := c.rpc.Call(ctx, "getrawmempool", []interface{}{true})
	if err != nil {
		return nil, fmt.Errorf("get mempool: %w", err)
	}

	var byTxid map[string]MempoolEntry
	if err := json.Unmarshal(result, &byTxid); err != nil {
		return nil, fmt.Errorf("decode mempool: %w", err)
	}
	entries := make([]MempoolEntry, 0, len(byTxid))
	for txid, e := range byTxid {
		e.Txid = txid
		entries = append(entries, e)
	}
	return entries, nil
}

// GetPeers returns the peers currently connected to the node.
func (c *Client) GetPeers(ctx context.Context) ([]Peer, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_peers")
	defer span.End()

	result, err := c.rpc.Call(ctx, "getpeerinfo", []interface{}{})
	if err != nil {
		return nil, fmt.Errorf("get peers: %w", err)
	}

	var peers []Peer
	if err := json.Unmarshal(result, &peers); err != nil {
		return nil, fmt.Errorf("decode peers: %w", err)
	}
	return peers, nil
}

// GetStatus returns the node's self-reported status (§6.1's /status).
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	ctx, span := telemetry.StartSpan(ctx, "node.get_status")
	defer span.End()

	result, err := c.rpc.Call(ctx, "getinfo", []interface{}{})
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	var status Status
	if err := json.Unmarshal(result, &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// MaxBatch returns the configured maximum batch size, for callers planning
// a catch-up scan's fetch windows.
func (c *Client) MaxBatch() int { return c.maxBatch }

// MaxWorkers returns the configured fetch concurrency.
func (c *Client) MaxWorkers() int { return c.maxWorkers }
