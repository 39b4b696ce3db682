// Package indexer drives the Indexer (C): catch-up scanning from the
// secondary store's persisted head to the chain tip, steady-state
// consumption of the chain client's block-connect events, and reorg
// rollback, generalized from the teacher's internal/indexer/sync.go
// Sync loop to the Handshake block-apply algorithm of block_processor.go.
package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hnsexplorer/indexer/internal/node"
	"github.com/hnsexplorer/indexer/internal/store"
	"github.com/hnsexplorer/indexer/pkg/config"
	"github.com/hnsexplorer/indexer/pkg/logging"
	"github.com/hnsexplorer/indexer/pkg/workerpool"
)

// Indexer owns the catch-up-scan / steady-state / rollback state machine
// described in §4.2 and §5.
type Indexer struct {
	db     *store.DB
	node   *node.Client
	events *node.EventStream
	pools  *PoolTable
	logger *zap.Logger

	catchUpBatch int
	maxWorkers   int

	// kick is the pending-flag mechanism of §5: a buffered channel of
	// capacity 1. A send that succeeds records "there is unscanned work";
	// a send that would block (buffer already full) is dropped via the
	// default case because the pending work it would have announced is
	// already recorded. The single driveLoop goroutine is the only
	// reader, so at most one scan runs at a time and a connect event that
	// arrives mid-scan is guaranteed to trigger exactly one more scan
	// once the current one finishes — no fetched event payload needs to
	// be retained, since a kicked scan always re-fetches from the chain
	// client up to whatever the tip is at that time.
	kick chan struct{}
}

// New constructs an Indexer. An empty or unreadable pool table path leaves
// the pool table empty (every block then attributes to "unknown").
func New(cfg *config.Config, db *store.DB, nodeClient *node.Client) *Indexer {
	return &Indexer{
		db:           db,
		node:         nodeClient,
		events:       node.NewEventStream(nodeClient, 15*time.Second),
		pools:        LoadPoolTable(cfg.Indexer.PoolTablePath),
		logger:       logging.GetLogger().With(zap.String("component", "indexer")),
		catchUpBatch: cfg.Indexer.CatchUpBatch,
		maxWorkers:   cfg.Node.MaxWorkers,
		kick:         make(chan struct{}, 1),
	}
}

// Run drives the catch-up-then-steady-state loop until ctx is cancelled.
func (idx *Indexer) Run(ctx context.Context) error {
	events := make(chan node.Event, 1)
	go idx.events.Run(ctx, events)
	go idx.driveLoop(ctx)

	idx.Kick()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			switch ev.Type {
			case node.EventConnect:
				idx.logger.Info("connected to chain client")
			case node.EventBlockConnect:
				idx.Kick()
			case node.EventChainReset:
				if ev.Entry != nil {
					idx.handleReset(ctx, ev.Entry.Height)
				}
			case node.EventError:
				idx.logger.Warn("chain client event error", zap.Error(ev.Err))
			}
		}
	}
}

// Kick records that unscanned work may exist, per the pending-flag
// mechanism documented on the kick field.
func (idx *Indexer) Kick() {
	select {
	case idx.kick <- struct{}{}:
	default:
	}
}

func (idx *Indexer) driveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-idx.kick:
			if err := idx.scanToTip(ctx); err != nil {
				idx.logger.Error("catch-up scan failed", zap.Error(err))
			}
		}
	}
}

// scanToTip fetches and applies every block from the persisted head,
// exclusive, through the chain tip, inclusive, fetching in windows bounded
// by catchUpBatch and applying strictly in height order (§4.2, §5's
// backpressure note).
func (idx *Indexer) scanToTip(ctx context.Context) error {
	repo := store.NewRepository(idx.db.DB)
	states := store.NewIndexerStateRepository(repo)

	head, err := states.Get(ctx)
	if err != nil {
		return fmt.Errorf("read head height: %w", err)
	}

	tip, err := idx.node.GetTip(ctx)
	if err != nil {
		return fmt.Errorf("get tip: %w", err)
	}
	if tip.Height <= head {
		return nil
	}

	batch := idx.catchUpBatch
	if batch <= 0 {
		batch = 1
	}

	for from := head + 1; from <= tip.Height; from += uint32(batch) {
		to := from + uint32(batch) - 1
		if to > tip.Height {
			to = tip.Height
		}

		entries := make([]uint32, 0, to-from+1)
		for h := from; h <= to; h++ {
			entries = append(entries, h)
		}

		type fetched struct {
			height uint32
			entry  *node.Entry
			block  *node.Block
			view   *node.View
		}
		results := make([]fetched, len(entries))

		err := workerpool.Process(ctx, idx.maxWorkers, entries, func(ctx context.Context, h uint32) error {
			entry, err := idx.node.GetEntry(ctx, h)
			if err != nil {
				return fmt.Errorf("fetch entry %d: %w", h, err)
			}
			block, err := idx.node.GetBlock(ctx, h)
			if err != nil {
				return fmt.Errorf("fetch block %d: %w", h, err)
			}
			view, err := idx.node.GetBlockView(ctx, block)
			if err != nil {
				view = &node.View{}
			}
			results[h-from] = fetched{height: h, entry: entry, block: block, view: view}
			return nil
		})
		if err != nil {
			return fmt.Errorf("fetch range %d-%d: %w", from, to, err)
		}

		for _, r := range results {
			if err := idx.applyBlock(ctx, r.entry, r.block, r.view); err != nil {
				return fmt.Errorf("apply block %d: %w", r.height, err)
			}
		}

		idx.logger.Info("applied block range", zap.Uint32("from", from), zap.Uint32("to", to))
	}

	return nil
}

// handleReset rolls back to the last height still valid after a detected
// chain reset and re-kicks a catch-up scan to replay from there.
func (idx *Indexer) handleReset(ctx context.Context, commonAncestorHeight uint32) {
	idx.logger.Warn("chain reset detected", zap.Uint32("rollback_to", commonAncestorHeight))
	if err := idx.Rollback(ctx, commonAncestorHeight); err != nil {
		idx.logger.Error("rollback failed", zap.Error(err))
		return
	}
	idx.Kick()
}
