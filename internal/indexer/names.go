package indexer

import (
	"context"
	"fmt"

	"github.com/hnsexplorer/indexer/internal/node"
	"github.com/hnsexplorer/indexer/internal/store"
)

// nameCache holds the block-scoped auction state for every name touched by
// the block currently being applied, seeded from the store on first touch
// (Open Question Decision #3) and flushed to store.NameRepository as each
// covenant is processed. Scoping the cache to one block keeps memory bounded
// and matches the per-block transaction the rest of block processing runs
// inside.
type nameCache struct {
	repo    *store.NameRepository
	entries map[string]*store.Name
}

func newNameCache(repo *store.NameRepository) *nameCache {
	return &nameCache{repo: repo, entries: make(map[string]*store.Name)}
}

func (c *nameCache) get(ctx context.Context, nameHash string) (*store.Name, error) {
	if n, ok := c.entries[nameHash]; ok {
		return n, nil
	}
	n, err := c.repo.Get(ctx, nameHash)
	if err != nil {
		return nil, fmt.Errorf("load name %s: %w", nameHash, err)
	}
	if n == nil {
		n = &store.Name{NameHash: nameHash}
	}
	c.entries[nameHash] = n
	return n, nil
}

// applyOpen handles CLAIM/OPEN (§4.2 step 2): a fresh auction cycle, value
// and highest reset to zero.
func applyOpen(ctx context.Context, cache *nameCache, entry *node.Entry, nameHash, name string) error {
	n := &store.Name{NameHash: nameHash, Name: name, Open: entry.Height}
	if err := cache.repo.UpsertOpen(ctx, n); err != nil {
		return fmt.Errorf("upsert open for %s: %w", nameHash, err)
	}
	cache.entries[nameHash] = n
	return nil
}

// applyReveal applies the second-price sealed-bid rule (§4.2 step 2):
//
//	v <= value:            no-op, the existing winner/price stand
//	value < v <= highest:  the revealed bid outbids the current second price
//	                       without unseating the leader: value <- v
//	v > highest:           a new leader emerges: value <- highest, highest <- v
func applyReveal(ctx context.Context, cache *nameCache, nameHash string, v int64) error {
	n, err := cache.get(ctx, nameHash)
	if err != nil {
		return err
	}
	switch {
	case v <= n.Value:
		return nil
	case v <= n.Highest:
		n.Value = v
	default:
		n.Value = n.Highest
		n.Highest = v
	}
	return cache.repo.SetBid(ctx, nameHash, n.Value, n.Highest)
}
