package query

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"time"

	"go.uber.org/zap"

	"github.com/hnsexplorer/indexer/internal/aggregates"
	"github.com/hnsexplorer/indexer/internal/cache"
	"github.com/hnsexplorer/indexer/internal/hns"
	"github.com/hnsexplorer/indexer/internal/node"
	"github.com/hnsexplorer/indexer/internal/store"
	"github.com/hnsexplorer/indexer/pkg/config"
	"github.com/hnsexplorer/indexer/pkg/logging"
	"github.com/hnsexplorer/indexer/pkg/telemetry"
)

// blockCacheTTL bounds how long a rendered block response (reward/fees/miner
// joins) is reused before the query engine re-joins it from B, trading a
// little staleness against repeated upstream round trips for hot heights.
const blockCacheTTL = 30 * time.Second

// ErrInvalidParam is returned for unrecognized enum-like query parameters
// (status, type); the HTTP layer maps it to the §7 Input(400) class.
var ErrInvalidParam = errors.New("invalid parameter")

// Engine is the Query Engine (D): stateless read operations composed from
// the secondary store (A), the chain client (B), and the cached aggregates
// (E).
type Engine struct {
	blocks    *store.BlockRepository
	txs       *store.TransactionRepository
	coins     *store.CoinRepository
	names     *store.NameRepository
	summaries *store.SummaryRepository
	states    *store.IndexerStateRepository

	node   *node.Client
	aggs   *aggregates.Aggregates
	cache  *cache.Cache
	params hns.NetworkParams
	logger *zap.Logger
}

// New constructs a Query Engine. cacheClient may be nil (Redis disabled per
// config), in which case every cache lookup falls through to B/A directly.
func New(cfg *config.Config, db *store.DB, nodeClient *node.Client, aggs *aggregates.Aggregates, cacheClient *cache.Cache) *Engine {
	repo := store.NewRepository(db.DB)
	return &Engine{
		blocks:    store.NewBlockRepository(repo),
		txs:       store.NewTransactionRepository(repo),
		coins:     store.NewCoinRepository(repo),
		names:     store.NewNameRepository(repo),
		summaries: store.NewSummaryRepository(repo),
		states:    store.NewIndexerStateRepository(repo),
		node:      nodeClient,
		aggs:      aggs,
		cache:     cacheClient,
		params:    hns.ParamsForNetwork(cfg.Node.Network),
		logger:    logging.GetLogger().With(zap.String("component", "query")),
	}
}

// GetBlock implements §4.3's getBlock.
func (e *Engine) GetBlock(ctx context.Context, height uint32, details bool) (*Block, error) {
	ctx, span := telemetry.StartSpan(ctx, "query.get_block")
	defer span.End()

	rec, err := e.blocks.GetByHeight(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("load block %d: %w", height, err)
	}
	if rec == nil {
		return nil, nil
	}
	return e.buildBlock(ctx, rec, details)
}

// GetBlockByHash resolves a block by hash, used by search's Block-by-hash
// heuristic.
func (e *Engine) GetBlockByHash(ctx context.Context, hash string) (*Block, error) {
	rec, err := e.blocks.GetByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("load block %s: %w", hash, err)
	}
	if rec == nil {
		return nil, nil
	}
	return e.buildBlock(ctx, rec, false)
}

func (e *Engine) buildBlock(ctx context.Context, rec *store.Block, details bool) (*Block, error) {
	key := cache.HashKey("block", fmt.Sprint(rec.Height), fmt.Sprint(details))
	var cached Block
	if err := e.cache.GetJSON(key, &cached); err == nil {
		return &cached, nil
	}

	b, err := e.buildBlockUncached(ctx, rec, details)
	if err != nil {
		return nil, err
	}
	if err := e.cache.SetJSON(key, b, blockCacheTTL); err != nil && e.cache != nil {
		e.logger.Debug("block cache write failed", zap.Error(err))
	}
	return b, nil
}

func (e *Engine) buildBlockUncached(ctx context.Context, rec *store.Block, details bool) (*Block, error) {
	entry, err := e.node.GetEntry(ctx, rec.Height)
	if err != nil {
		e.logger.Warn("block header fetch failed", zap.Uint32("height", rec.Height), zap.Error(err))
		entry = &node.Entry{Height: rec.Height, Hash: rec.Hash, Time: rec.Time}
	}
	nextHash, err := e.node.GetNextHash(ctx, rec.Hash)
	if err != nil {
		nextHash = ""
	}
	medianTime, err := e.node.GetMedianTime(ctx, entry)
	if err != nil {
		medianTime = rec.Time
	}

	reward := e.params.GetReward(int64(rec.Height))
	fees, err := e.coinbaseFees(ctx, rec.Height, reward)
	if err != nil {
		e.logger.Warn("fee computation failed", zap.Uint32("height", rec.Height), zap.Error(err))
	}
	var avgFee float64
	if rec.Txs > 0 {
		avgFee = float64(fees) / float64(rec.Txs)
	}

	b := &Block{
		Height:       rec.Height,
		Hash:         rec.Hash,
		PrevBlock:    entry.PrevBlock,
		NextHash:     nextHash,
		Difficulty:   rec.Difficulty,
		Time:         rec.Time,
		MedianTime:   medianTime,
		Bits:         entry.Bits,
		Txs:          rec.Txs,
		Miner:        rec.Miner,
		MinerAddress: rec.MinerAddress,
		Reward:       reward,
		Fees:         fees,
		AverageFee:   avgFee,
	}

	if details {
		txids, err := e.txs.ByHeight(ctx, rec.Height)
		if err != nil {
			return nil, fmt.Errorf("list transactions for block %d: %w", rec.Height, err)
		}
		b.Transactions = make([]Tx, 0, len(txids))
		for _, t := range txids {
			tx, err := e.GetTransaction(ctx, t.Txid)
			if err != nil {
				e.logger.Warn("transaction join failed", zap.String("txid", t.Txid), zap.Error(err))
				continue
			}
			if tx != nil {
				b.Transactions = append(b.Transactions, *tx)
			}
		}
	}

	return b, nil
}

// coinbaseFees computes fees = coinbaseOutputValue - reward (§4.3), reading
// the coinbase transaction's outputs from the secondary store rather than
// refetching the full block from the node.
func (e *Engine) coinbaseFees(ctx context.Context, height uint32, reward int64) (int64, error) {
	txids, err := e.txs.ByHeight(ctx, height)
	if err != nil || len(txids) == 0 {
		return 0, err
	}
	coinbaseTxid := txids[0].Txid

	var total int64
	for idx := uint32(0); ; idx++ {
		c, err := e.coins.Get(ctx, coinbaseTxid, idx)
		if err != nil {
			return 0, err
		}
		if c == nil {
			break
		}
		total += c.Value
	}
	return total - reward, nil
}

// GetTransaction implements §4.3's getTransaction.
func (e *Engine) GetTransaction(ctx context.Context, txid string) (*Tx, error) {
	ctx, span := telemetry.StartSpan(ctx, "query.get_transaction")
	defer span.End()

	meta, err := e.node.GetMeta(ctx, txid)
	if err != nil {
		return nil, fmt.Errorf("load tx meta %s: %w", txid, err)
	}
	if meta == nil {
		return nil, nil
	}
	view, err := e.node.GetMetaView(ctx, meta)
	if err != nil {
		view = &node.View{}
	}

	coinbase := isCoinbaseTx(meta.Tx)

	inputs := make([]TxIn, 0, len(meta.Tx.Inputs))
	for i, in := range meta.Tx.Inputs {
		if coinbase && i == 0 {
			inputs = append(inputs, TxIn{Value: e.params.GetReward(int64(meta.Height)), Coinbase: true})
			continue
		}
		key := in.PrevTxid + ":" + fmt.Sprint(in.PrevIndex)
		if out, ok := view.Coins[key]; ok {
			inputs = append(inputs, TxIn{Value: out.Value, Address: outputAddr(out)})
			continue
		}
		inputs = append(inputs, TxIn{Airdrop: true})
	}

	outputs := make([]TxOut, 0, len(meta.Tx.Outputs))
	for _, out := range meta.Tx.Outputs {
		outputs = append(outputs, e.normalizeOutput(ctx, out))
	}

	return &Tx{
		Txid:    meta.Tx.Txid,
		Height:  meta.Height,
		Block:   meta.Block,
		Time:    meta.Time,
		Index:   meta.Index,
		Inputs:  inputs,
		Outputs: outputs,
	}, nil
}

func (e *Engine) normalizeOutput(ctx context.Context, out node.Output) TxOut {
	covenantType := hns.CovenantType(out.Covenant.Type)
	o := TxOut{Address: outputAddr(out), Action: covenantType.String()}

	if covenantType == hns.CovenantNone {
		o.Value = out.Value
		return o
	}

	if len(out.Covenant.Items) > 0 {
		o.NameHash = out.Covenant.Items[0]
	}

	switch covenantType {
	case hns.CovenantOpen, hns.CovenantClaim:
		if len(out.Covenant.Items) > 2 {
			o.Name = decodeHex(out.Covenant.Items[2])
		}
	case hns.CovenantBid:
		o.Value = out.Value
		if len(out.Covenant.Items) > 2 {
			o.Name = decodeHex(out.Covenant.Items[2])
		}
	case hns.CovenantReveal:
		o.Value = out.Value
		if len(out.Covenant.Items) > 1 {
			o.Nonce = out.Covenant.Items[1]
		}
	}

	if o.Name == "" && o.NameHash != "" {
		if state, err := e.node.GetNameState(ctx, o.NameHash); err == nil && state != nil {
			o.Name = state.Name
		}
	}
	return o
}

func isCoinbaseTx(tx node.Tx) bool {
	for _, in := range tx.Inputs {
		if in.Coinbase {
			return true
		}
	}
	return false
}

func outputAddr(out node.Output) string {
	if out.Address.String != "" {
		return out.Address.String
	}
	return out.Address.Hash
}

func decodeHex(s string) string {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return s
	}
	return string(raw)
}
