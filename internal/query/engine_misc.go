package query

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hnsexplorer/indexer/internal/hns"
	"github.com/hnsexplorer/indexer/internal/node"
	"github.com/hnsexplorer/indexer/internal/store"
)

// hashrateLookback is the number of trailing blocks averaged for the
// §6.1 hashrate calculation.
const hashrateLookback = 120

// GetAddress implements §4.3's getAddress.
func (e *Engine) GetAddress(ctx context.Context, hash string) (*Balance, error) {
	received, sent, err := e.coins.AddressBalance(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("load balance for %s: %w", hash, err)
	}
	return &Balance{
		Hash:      hash,
		Confirmed: received - sent,
		Received:  received,
		Spent:     sent,
	}, nil
}

// GetTransactionsByAddress implements §4.3's getTransactionsByAddress.
func (e *Engine) GetTransactionsByAddress(ctx context.Context, address string, offset, limit int) (*Page[Tx], error) {
	recs, total, err := e.txs.ByAddress(ctx, address, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("load transactions for %s: %w", address, err)
	}
	return e.joinTxs(ctx, recs, total, offset, limit)
}

// GetTransactionsByHeight implements §4.3's getTransactionsByHeight.
func (e *Engine) GetTransactionsByHeight(ctx context.Context, height uint32, offset, limit int) (*Page[Tx], error) {
	recs, err := e.txs.ByHeight(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("load transactions for height %d: %w", height, err)
	}
	total := int64(len(recs))
	if offset >= len(recs) {
		return &Page[Tx]{Total: total, Limit: limit, Offset: offset}, nil
	}
	end := offset + limit
	if end > len(recs) {
		end = len(recs)
	}
	return e.joinTxs(ctx, recs[offset:end], total, offset, limit)
}

// GetTransactions implements §4.3's getTransactions: walk the chain backwards
// from the tip, flattening each block's transactions, until limit collected.
func (e *Engine) GetTransactions(ctx context.Context, limit int) ([]Tx, error) {
	head, err := e.blocks.GetHead(ctx)
	if err != nil || head == nil {
		return nil, err
	}

	out := make([]Tx, 0, limit)
	for height := head.Height; len(out) < limit; {
		recs, err := e.txs.ByHeight(ctx, height)
		if err != nil {
			return nil, fmt.Errorf("load transactions for height %d: %w", height, err)
		}
		for _, r := range recs {
			if len(out) >= limit {
				break
			}
			tx, err := e.GetTransaction(ctx, r.Txid)
			if err != nil {
				e.logger.Warn("transaction join failed in getTransactions", zap.Error(err))
				continue
			}
			if tx != nil {
				out = append(out, *tx)
			}
		}
		if height == 0 {
			break
		}
		height--
	}
	return out, nil
}

func (e *Engine) joinTxs(ctx context.Context, recs []store.Transaction, total int64, offset, limit int) (*Page[Tx], error) {
	result := make([]Tx, 0, len(recs))
	for _, r := range recs {
		tx, err := e.GetTransaction(ctx, r.Txid)
		if err != nil {
			return nil, err
		}
		if tx != nil {
			result = append(result, *tx)
		}
	}
	return &Page[Tx]{Total: total, Limit: limit, Offset: offset, Result: result}, nil
}

// GetPoolDistribution implements §4.3's getPoolDistribution.
func (e *Engine) GetPoolDistribution(ctx context.Context, startTime, endTime int64) (*PoolDistribution, error) {
	counts, err := e.blocks.PoolDistribution(ctx, startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("load pool distribution: %w", err)
	}

	var total int64
	items := make([]PoolDistItem, 0, len(counts))
	for miner, count := range counts {
		total += count
		items = append(items, PoolDistItem{PoolName: miner, Count: count})
	}
	return &PoolDistribution{Total: total, Items: items}, nil
}

// GetSeries implements §4.3's getSeries.
func (e *Engine) GetSeries(ctx context.Context, typ string, startTime, endTime int64) ([]SeriesPoint, error) {
	rows, err := e.summaries.Range(ctx, startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}

	points := make([]SeriesPoint, 0, len(rows))
	for _, s := range rows {
		var v float64
		switch strings.ToLower(typ) {
		case "difficulty":
			if s.Blocks > 0 {
				v = s.Difficulty / float64(s.Blocks)
			}
		case "dailytransactions":
			v = float64(s.Txs)
		case "dailytotaltransactions":
			v = float64(s.TotalTxs)
		case "supply":
			v = round2(s.Supply)
		case "burned":
			v = round2(s.Burned)
		default:
			return nil, fmt.Errorf("%w: type=%q", ErrInvalidParam, typ)
		}
		points = append(points, SeriesPoint{Date: s.Time * 1000, Value: v})
	}
	return points, nil
}

// round2 rounds v half away from zero to 2 decimal places, reading the digits
// of v's shortest decimal form so that 1.005 rounds to 1.01.
func round2(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i < 0 || len(s)-i-1 <= 2 {
		return v
	}
	cents, err := strconv.ParseInt(s[:i]+s[i+1:i+3], 10, 64)
	if err != nil {
		return float64(int64(v*100+0.5)) / 100
	}
	if s[i+3] >= '5' {
		if v < 0 {
			cents--
		} else {
			cents++
		}
	}
	return float64(cents) / 100
}

// GetSummaryCounts implements §4.3's getSummaryCounts / §6.1's /summary.
func (e *Engine) GetSummaryCounts(ctx context.Context) (*SummaryCounts, error) {
	head, err := e.blocks.GetHead(ctx)
	if err != nil {
		return nil, err
	}

	out := &SummaryCounts{Network: e.params.Name}
	if head != nil {
		out.Difficulty = head.Difficulty
	}

	if rate, chainWork, err := e.hashrate(ctx); err == nil {
		out.Hashrate = rate
		out.ChainWork = chainWork
	} else {
		e.logger.Warn("hashrate computation failed", zap.Error(err))
	}

	mempool, err := e.node.GetMempool(ctx)
	if err != nil {
		e.logger.Warn("mempool fetch failed for summary", zap.Error(err))
	} else {
		out.Unconfirmed = len(mempool)
		for _, m := range mempool {
			out.UnconfirmedSize += m.Size
		}
	}

	var tip int64
	if head != nil {
		tip = int64(head.Height)
	}
	min, max := e.params.HeightWindow(hns.StatusClosed, tip)
	registered, err := e.names.CountInWindow(ctx, min, max)
	if err != nil {
		e.logger.Warn("registered-names count failed", zap.Error(err))
	} else {
		out.RegisteredNames = registered
	}

	return out, nil
}

// hashrate computes chainworkΔ / (maxTime − minTime) over the trailing
// hashrateLookback blocks (§6.1).
func (e *Engine) hashrate(ctx context.Context) (rate float64, chainWork string, err error) {
	tipEntry, err := e.node.GetTip(ctx)
	if err != nil {
		return 0, "", err
	}
	head, err := e.node.GetEntry(ctx, tipEntry.Height)
	if err != nil {
		return 0, "", err
	}

	var prevHeight uint32
	if head.Height > hashrateLookback {
		prevHeight = head.Height - hashrateLookback
	}
	prev, err := e.node.GetEntry(ctx, prevHeight)
	if err != nil {
		return 0, head.Chainwork, err
	}

	headWork, ok := new(big.Int).SetString(head.Chainwork, 16)
	prevWork, ok2 := new(big.Int).SetString(prev.Chainwork, 16)
	if !ok || !ok2 {
		return 0, head.Chainwork, fmt.Errorf("malformed chainwork")
	}
	delta := new(big.Int).Sub(headWork, prevWork)
	timeDelta := head.Time - prev.Time
	if timeDelta <= 0 {
		return 0, head.Chainwork, nil
	}

	deltaFloat := new(big.Float).SetInt(delta)
	rateFloat := new(big.Float).Quo(deltaFloat, big.NewFloat(float64(timeDelta)))
	r, _ := rateFloat.Float64()
	return r, head.Chainwork, nil
}

// GetStatus implements §4.3's getStatus / §6.1's /status.
func (e *Engine) GetStatus(ctx context.Context, host string, port int, key string) (*Status, error) {
	st, err := e.node.GetStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load node status: %w", err)
	}
	return &Status{
		Host:           host,
		Port:           port,
		Key:            key,
		Network:        st.Network,
		Progress:       st.Progress,
		Version:        st.Version,
		Agent:          st.Agent,
		Connections:    st.Connections,
		Height:         st.Height,
		Difficulty:     st.Difficulty,
		Uptime:         st.Uptime,
		TotalBytesRecv: st.TotalBytesRecv,
		TotalBytesSent: st.TotalBytesSent,
	}, nil
}

// GetMempoolPage implements §4.3's getMempoolPage.
func (e *Engine) GetMempoolPage(ctx context.Context, offset, limit int) (*Page[Tx], error) {
	entries, err := e.node.GetMempool(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mempool: %w", err)
	}
	total := int64(len(entries))
	if offset >= len(entries) {
		return &Page[Tx]{Total: total, Limit: limit, Offset: offset}, nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}

	result := make([]Tx, 0, end-offset)
	for _, m := range entries[offset:end] {
		result = append(result, Tx{Txid: m.Txid, Time: m.Time})
	}
	return &Page[Tx]{Total: total, Limit: limit, Offset: offset, Result: result}, nil
}

// GetPeers implements §4.3's getPeers.
func (e *Engine) GetPeers(ctx context.Context, offset, limit int) (*Page[node.Peer], error) {
	peers, err := e.node.GetPeers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load peers: %w", err)
	}
	total := int64(len(peers))
	if offset >= len(peers) {
		return &Page[node.Peer]{Total: total, Limit: limit, Offset: offset}, nil
	}
	end := offset + limit
	if end > len(peers) {
		end = len(peers)
	}
	return &Page[node.Peer]{Total: total, Limit: limit, Offset: offset, Result: peers[offset:end]}, nil
}

// GetPeersLocation implements §4.3's getPeersLocation. The pack carries no
// GeoIP database or client, so this reports each peer's host with no
// resolved coordinates rather than fabricating a lookup.
func (e *Engine) GetPeersLocation(ctx context.Context) ([]GeoIP, error) {
	peers, err := e.node.GetPeers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load peers for map: %w", err)
	}
	out := make([]GeoIP, 0, len(peers))
	for _, p := range peers {
		out = append(out, GeoIP{Host: p.Host})
	}
	return out, nil
}

// Search implements §4.3's search: every matching heuristic appends a hit,
// in the fixed order Block → Transaction → Block-by-hash → Address → Name.
func (e *Engine) Search(ctx context.Context, q string) []SearchHit {
	var hits []SearchHit

	if height, err := strconv.ParseUint(q, 10, 32); err == nil {
		head, err := e.blocks.GetHead(ctx)
		if err == nil && head != nil && uint32(height) <= head.Height {
			hits = append(hits, SearchHit{Type: "Block", URL: "/blocks/" + q})
		}
	}

	if len(q) == 64 && isHex(q) {
		if tx, err := e.GetTransaction(ctx, q); err == nil && tx != nil {
			hits = append(hits, SearchHit{Type: "Transaction", URL: "/txs/" + q})
		}
		if b, err := e.GetBlockByHash(ctx, q); err == nil && b != nil {
			hits = append(hits, SearchHit{Type: "Block", URL: "/blocks/" + strconv.FormatUint(uint64(b.Height), 10)})
		}
	}

	if hns.ValidateAddress(q, e.params.Name) {
		hits = append(hits, SearchHit{Type: "Address", URL: "/addresses/" + q})
	}

	if hns.VerifyString(q) {
		hits = append(hits, SearchHit{Type: "Name", URL: "/names/" + q})
	}

	return hits
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
