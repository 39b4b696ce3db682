package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/hnsexplorer/indexer/internal/aggregates"
	"github.com/hnsexplorer/indexer/internal/hns"
	"github.com/hnsexplorer/indexer/internal/store"
)

// GetName implements §4.3's getName.
func (e *Engine) GetName(ctx context.Context, name string) (*NameInfo, error) {
	nameHash := hns.NameHash(name)

	rec, err := e.names.Get(ctx, nameHash)
	if err != nil {
		return nil, fmt.Errorf("load name %s: %w", name, err)
	}

	state, err := e.node.GetNameState(ctx, nameHash)
	if err != nil {
		return nil, fmt.Errorf("load name state %s: %w", name, err)
	}

	status := hns.StatusInactive
	var openHeight uint32
	if rec != nil {
		openHeight = rec.Open
		status = e.statusFor(ctx, rec.Open)
	}

	info := &NameInfo{
		Name:      name,
		NameHash:  nameHash,
		State:     string(status),
		NextState: hns.NextState(status),
	}
	if rec != nil {
		info.Value = rec.Value
		info.Highest = rec.Highest
	}
	if state != nil {
		info.State = state.State
		info.NextState = hns.NextState(hns.NameStatus(state.State))
		info.Height = state.Height
		info.RenewalHeight = state.RenewalHeight
		info.Renewals = state.Renewals
		info.Weak = state.Weak
		info.Transfer = state.Transfer
		info.Revoked = state.Revoked
		if state.Highest > info.Highest {
			info.Highest = state.Highest
		}
		if state.Value > info.Value {
			info.Value = state.Value
		}
	}

	bids, err := e.GetNameBids(ctx, nameHash, openHeight)
	if err != nil {
		return nil, fmt.Errorf("load bids for %s: %w", name, err)
	}
	info.Bids = bids

	return info, nil
}

// statusFor derives the observable lifecycle status of a name whose most
// recent OPEN/CLAIM was at height open, given the current chain tip.
func (e *Engine) statusFor(ctx context.Context, open uint32) hns.NameStatus {
	head, err := e.blocks.GetHead(ctx)
	if err != nil || head == nil {
		return hns.StatusInactive
	}
	tip := int64(head.Height)
	o := int64(open)
	openPeriod := e.params.OpenPeriod()

	switch {
	case tip < o+openPeriod:
		return hns.StatusOpening
	case tip < o+openPeriod+e.params.BiddingPeriod:
		return hns.StatusBidding
	case tip < o+openPeriod+e.params.BiddingPeriod+e.params.RevealPeriod:
		return hns.StatusReveal
	case tip < o+openPeriod+e.params.BiddingPeriod+e.params.RevealPeriod+e.params.LockupPeriod():
		return hns.StatusLocked
	default:
		return hns.StatusClosed
	}
}

// GetNameBids implements §4.3's getNameBids.
func (e *Engine) GetNameBids(ctx context.Context, nameHash string, openHeight uint32) ([]Bid, error) {
	coins, err := e.coins.ByNameHash(ctx, nameHash)
	if err != nil {
		return nil, fmt.Errorf("load coins for name %s: %w", nameHash, err)
	}

	var bids []Bid
	var winnerIdx = -1
	for _, c := range coins {
		if hns.CovenantType(c.CovenantType) != hns.CovenantBid {
			continue
		}
		b := Bid{Txid: c.Txid, Index: c.Idx, Lockup: c.Value, Time: c.Time}
		if c.Spent && c.SpentTxid != "" {
			reveal, err := e.coins.Get(ctx, c.SpentTxid, c.SpentIndex)
			if err != nil {
				return nil, fmt.Errorf("load reveal for bid %s:%d: %w", c.Txid, c.Idx, err)
			}
			if reveal != nil {
				b.Revealed = true
				b.RevealTxid = reveal.Txid
				b.RevealIndex = reveal.Idx
				b.Value = reveal.Value
				if c.Height > openHeight {
					if winnerIdx == -1 || reveal.Value > bids[winnerIdx].Value {
						winnerIdx = len(bids)
					}
				}
			}
		}
		bids = append(bids, b)
	}
	if winnerIdx >= 0 {
		bids[winnerIdx].Win = true
	}

	sortBidsByTimeDesc(bids)
	return bids, nil
}

func sortBidsByTimeDesc(bids []Bid) {
	for i := 1; i < len(bids); i++ {
		for j := i; j > 0 && bids[j].Time > bids[j-1].Time; j-- {
			bids[j], bids[j-1] = bids[j-1], bids[j]
		}
	}
}

// GetNameHistory implements §4.3's getNameHistory.
func (e *Engine) GetNameHistory(ctx context.Context, nameHash string, offset, limit int) (*Page[HistoryEvent], error) {
	coins, total, err := e.coins.ByNameHashPaged(ctx, nameHash, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("load history for name %s: %w", nameHash, err)
	}

	events := make([]HistoryEvent, 0, len(coins))
	for _, c := range coins {
		ct := hns.CovenantType(c.CovenantType)
		ev := HistoryEvent{
			Txid:   c.Txid,
			Index:  c.Idx,
			Height: c.Height,
			Time:   c.Time,
			Action: ct.ActionLabel(),
		}
		if ct.HasValue() {
			ev.Value = c.Value
		}
		events = append(events, ev)
	}

	return &Page[HistoryEvent]{Total: total, Limit: limit, Offset: offset, Result: events}, nil
}

// GetNames implements §4.3's getNames dispatch.
func (e *Engine) GetNames(ctx context.Context, typ, status string, offset, limit int) (*Page[store.Name], error) {
	switch strings.ToLower(typ) {
	case "value":
		names, err := e.names.TopByValue(ctx, limit+offset)
		if err != nil {
			return nil, err
		}
		if offset >= len(names) {
			return &Page[store.Name]{Total: int64(len(names)), Limit: limit, Offset: offset}, nil
		}
		end := offset + limit
		if end > len(names) {
			end = len(names)
		}
		return &Page[store.Name]{Total: int64(len(names)), Limit: limit, Offset: offset, Result: names[offset:end]}, nil
	case "monthbid":
		return e.namesFromBids(ctx, e.aggs.Snapshot().TopBids30d, offset, limit)
	case "weekbid":
		return e.namesFromBids(ctx, e.aggs.Snapshot().TopBids7d, offset, limit)
	case "":
		return e.GetNamesByStatus(ctx, status, offset, limit)
	default:
		return nil, fmt.Errorf("%w: type=%q", ErrInvalidParam, typ)
	}
}

// namesFromBids resolves the cached top-bid-names snapshot (§4.4.3) into
// full name records for the getNames(type=monthBid|weekBid) response.
func (e *Engine) namesFromBids(ctx context.Context, bids []aggregates.BidName, offset, limit int) (*Page[store.Name], error) {
	names := make([]store.Name, 0, len(bids))
	for _, b := range bids {
		n, err := e.names.Get(ctx, b.NameHash)
		if err != nil {
			return nil, err
		}
		if n == nil {
			n = &store.Name{NameHash: b.NameHash, Name: b.Name, Highest: b.Highest}
		}
		names = append(names, *n)
	}

	total := int64(len(names))
	if offset >= len(names) {
		return &Page[store.Name]{Total: total, Limit: limit, Offset: offset}, nil
	}
	end := offset + limit
	if end > len(names) {
		end = len(names)
	}
	return &Page[store.Name]{Total: total, Limit: limit, Offset: offset, Result: names[offset:end]}, nil
}

// GetNamesByStatus implements §4.3's getNamesByStatus.
func (e *Engine) GetNamesByStatus(ctx context.Context, status string, offset, limit int) (*Page[store.Name], error) {
	s := hns.NameStatus(strings.ToUpper(status))
	switch s {
	case hns.StatusOpening, hns.StatusBidding, hns.StatusReveal, hns.StatusClosed, hns.StatusLocked:
	default:
		return nil, fmt.Errorf("%w: status=%q", ErrInvalidParam, status)
	}

	head, err := e.blocks.GetHead(ctx)
	if err != nil {
		return nil, err
	}
	var tip int64
	if head != nil {
		tip = int64(head.Height)
	}

	min, max := e.params.HeightWindow(s, tip)
	names, total, err := e.names.ByOpenWindow(ctx, min, max, offset, limit)
	if err != nil {
		return nil, err
	}
	return &Page[store.Name]{Total: total, Limit: limit, Offset: offset, Result: names}, nil
}
