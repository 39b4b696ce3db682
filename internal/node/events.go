package node

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hnsexplorer/indexer/pkg/logging"
)

// EventType identifies the kind of event delivered by an EventStream,
// matching the upstream node contract of §6.2 (connect, block connect,
// chain reset, error).
type EventType int

const (
	EventConnect EventType = iota
	EventBlockConnect
	EventChainReset
	EventError
)

// Event carries one notification from the chain client's event stream.
type Event struct {
	Type  EventType
	Entry *Entry
	Block *Block
	View  *View
	Err   error
}

// reorgHistoryLimit bounds how many recently-seen (height, hash) pairs an
// EventStream retains to find a common ancestor when the node's tip hash
// changes out from under it. A reorg deeper than this many blocks is
// reported rolled back to the oldest retained entry rather than walked
// further, since that depth would already be extraordinary for HNS.
const reorgHistoryLimit = 200

// EventStream delivers block-connect / chain-reset notifications by polling
// the node for its tip and comparing it against the last-seen entry. This
// generalizes the teacher's unimplemented StreamBlocks stub (internal/steem/
// client.go), which deferred the choice of streaming strategy; a poll loop
// is the strategy that fits a node whose only transport is request/response
// JSON-RPC (no push subscription).
type EventStream struct {
	client       *Client
	pollInterval time.Duration
	logger       *zap.Logger

	lastHash string
	// history holds recently delivered block-connect entries, oldest first,
	// so a later reorg can be walked back to its common ancestor.
	history []Entry
}

// NewEventStream constructs a poller with no seen history: the first tick
// delivers whatever the node currently has as its tip.
func NewEventStream(client *Client, pollInterval time.Duration) *EventStream {
	return &EventStream{
		client:       client,
		pollInterval: pollInterval,
		logger:       logging.GetLogger().With(zap.String("component", "node-events")),
	}
}

// Run polls until ctx is cancelled, sending events to out. The caller is
// expected to drain out promptly; Run blocks sending so a slow consumer
// throttles the poll cadence naturally.
func (s *EventStream) Run(ctx context.Context, out chan<- Event) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	out <- Event{Type: EventConnect}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx, out)
		}
	}
}

func (s *EventStream) poll(ctx context.Context, out chan<- Event) {
	tip, err := s.client.GetTip(ctx)
	if err != nil {
		s.logger.Warn("poll tip failed", zap.Error(err))
		select {
		case out <- Event{Type: EventError, Err: err}:
		case <-ctx.Done():
		}
		return
	}

	if tip.Hash == s.lastHash {
		return
	}

	if len(s.history) > 0 {
		last := s.history[len(s.history)-1]
		curAtLast, err := s.client.GetEntry(ctx, last.Height)
		if err != nil {
			s.logger.Warn("poll reorg check failed", zap.Error(err))
			select {
			case out <- Event{Type: EventError, Err: err}:
			case <-ctx.Done():
			}
			return
		}
		if curAtLast == nil || curAtLast.Hash != last.Hash {
			ancestor := s.findCommonAncestor(ctx)
			s.truncateHistory(ancestor.Height)
			s.lastHash = tip.Hash
			s.logger.Warn("chain reset detected", zap.Uint32("common_ancestor", ancestor.Height))
			select {
			case out <- Event{Type: EventChainReset, Entry: ancestor}:
			case <-ctx.Done():
			}
			return
		}
	}

	block, err := s.client.GetBlock(ctx, tip.Hash)
	if err != nil {
		s.logger.Warn("poll block fetch failed", zap.Error(err))
		select {
		case out <- Event{Type: EventError, Err: err}:
		case <-ctx.Done():
		}
		return
	}

	view, err := s.client.GetBlockView(ctx, block)
	if err != nil {
		s.logger.Warn("poll block view fetch failed", zap.Error(err))
		view = &View{}
	}

	s.lastHash = tip.Hash
	s.appendHistory(*tip)

	select {
	case out <- Event{Type: EventBlockConnect, Entry: tip, Block: block, View: view}:
	case <-ctx.Done():
	}
}

// findCommonAncestor walks history newest-to-oldest, re-fetching each height
// from the node, and returns the highest one whose hash still matches what
// was previously seen there. Falls back to the oldest retained entry if the
// reorg runs deeper than reorgHistoryLimit blocks.
func (s *EventStream) findCommonAncestor(ctx context.Context) *Entry {
	for i := len(s.history) - 1; i >= 0; i-- {
		seen := s.history[i]
		cur, err := s.client.GetEntry(ctx, seen.Height)
		if err != nil {
			s.logger.Warn("common ancestor lookup failed", zap.Uint32("height", seen.Height), zap.Error(err))
			continue
		}
		if cur != nil && cur.Hash == seen.Hash {
			return cur
		}
	}
	oldest := s.history[0]
	return &oldest
}

// appendHistory records entry as the latest seen block-connect, trimming the
// oldest entries beyond reorgHistoryLimit.
func (s *EventStream) appendHistory(entry Entry) {
	s.history = append(s.history, entry)
	if len(s.history) > reorgHistoryLimit {
		s.history = s.history[len(s.history)-reorgHistoryLimit:]
	}
}

// truncateHistory drops every retained entry above ancestorHeight after a
// reset, so a subsequent reorg walks back from the new, shorter chain.
func (s *EventStream) truncateHistory(ancestorHeight uint32) {
	kept := s.history[:0]
	for _, e := range s.history {
		if e.Height <= ancestorHeight {
			kept = append(kept, e)
		}
	}
	s.history = kept
}
