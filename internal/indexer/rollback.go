package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hnsexplorer/indexer/internal/hns"
	"github.com/hnsexplorer/indexer/internal/store"
)

// Rollback undoes every block above height h (exclusive), restoring the
// secondary store to the state it held right after h was applied (§4.2's
// rollback algorithm): delete blocks/transactions/coins/names recorded above
// h, clear the spent flag on coins whose spending transaction is being
// deleted, move the persisted head back to h, and replay the second-price
// rule for any name whose REVEAL history above h just got deleted.
//
// Same-day summary rows are deleted wholesale rather than having their
// cumulative counters surgically decremented: a day that straddles the
// rollback point loses its whole row and is rebuilt incrementally as the
// chain re-extends past it, so blocks at or below h on that day no longer
// count toward it. Every rollback depth takes this same path; there is no
// separate full-rescan fallback.
func (idx *Indexer) Rollback(ctx context.Context, h uint32) error {
	return idx.db.Transaction(func(tx *gorm.DB) error {
		repo := store.NewRepository(tx)
		states := store.NewIndexerStateRepository(repo)
		blocks := store.NewBlockRepository(repo)
		txs := store.NewTransactionRepository(repo)
		coins := store.NewCoinRepository(repo)
		names := store.NewNameRepository(repo)
		summaries := store.NewSummaryRepository(repo)

		head, err := states.Get(ctx)
		if err != nil {
			return fmt.Errorf("read head height: %w", err)
		}
		if h >= head {
			return nil
		}

		var dayStart int64
		if b, err := blocks.GetByHeight(ctx, h+1); err == nil && b != nil {
			dayStart = dayBucket(b.Time)
		}

		// Names whose value/highest was raised by a REVEAL above h: capture
		// them before the delete below removes the evidence, so their bid
		// state can be replayed from what remains.
		affected, err := coins.NameHashesWithCovenantAbove(ctx, int(hns.CovenantReveal), h)
		if err != nil {
			return fmt.Errorf("find names with reveals above %d: %w", h, err)
		}

		if err := coins.ClearSpentAbove(ctx, h); err != nil {
			return fmt.Errorf("clear spent above %d: %w", h, err)
		}
		if err := coins.DeleteAbove(ctx, h); err != nil {
			return fmt.Errorf("delete coins above %d: %w", h, err)
		}
		if err := names.DeleteAbove(ctx, h); err != nil {
			return fmt.Errorf("delete names above %d: %w", h, err)
		}
		if err := txs.DeleteAbove(ctx, h); err != nil {
			return fmt.Errorf("delete transactions above %d: %w", h, err)
		}
		if err := blocks.DeleteAbove(ctx, h); err != nil {
			return fmt.Errorf("delete blocks above %d: %w", h, err)
		}
		if dayStart > 0 {
			if err := summaries.DeleteAfter(ctx, dayStart-1); err != nil {
				return fmt.Errorf("delete summaries from day %d: %w", dayStart, err)
			}
		}

		for _, nameHash := range affected {
			if err := replayBids(ctx, names, coins, nameHash, h); err != nil {
				return fmt.Errorf("replay bids for %s: %w", nameHash, err)
			}
		}

		if err := states.SetHeight(ctx, h); err != nil {
			return fmt.Errorf("reset head to %d: %w", h, err)
		}

		idx.logger.Warn("rolled back", zap.Uint32("from", head), zap.Uint32("to", h), zap.Int("names_replayed", len(affected)))
		return nil
	})
}

// replayBids recomputes a name's value/highest from scratch by folding the
// second-price rule (applyReveal's rule) over every REVEAL coin still
// present at or below h, in the order they were originally applied. names
// opened above h were already removed by names.DeleteAbove and are skipped;
// a name that survives but has no remaining reveals falls back to 0/0, the
// state it held right after OPEN/CLAIM.
func replayBids(ctx context.Context, names *store.NameRepository, coins *store.CoinRepository, nameHash string, h uint32) error {
	n, err := names.Get(ctx, nameHash)
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}

	reveals, err := coins.RevealCoinsUpTo(ctx, nameHash, int(hns.CovenantReveal), h)
	if err != nil {
		return err
	}

	var value, highest int64
	for _, c := range reveals {
		v := c.Value
		switch {
		case v <= value:
			continue
		case v <= highest:
			value = v
		default:
			value = highest
			highest = v
		}
	}

	return names.SetBid(ctx, nameHash, value, highest)
}
