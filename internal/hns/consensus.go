package hns

import "strings"

// NetworkParams holds the consensus-parameterized block counts that define
// name-auction phase lengths and the block-reward schedule. Values are
// per-network (main/testnet/regtest/simnet); the indexer and query engine
// are constructed with one fixed set for the lifetime of the process (see
// SPEC's "no process-wide mutable singletons" note).
type NetworkParams struct {
	Name            string
	TreeInterval    int64
	BiddingPeriod   int64
	RevealPeriod    int64
	HalvingInterval int64
	BaseReward      int64 // base units ("dollarydoos") at height 0
}

// OpenPeriod is treeInterval + 1, per §4.2's state machine table.
func (p NetworkParams) OpenPeriod() int64 {
	return p.TreeInterval + 1
}

// LockupPeriod is the span right after REVEAL closes during which a name is
// LOCKED: won but not yet registerable, so the urkel tree commitment from
// the reveal block has a chance to propagate. No example in the pack carries
// a distinct lockup constant, so this reuses treeInterval, the same block
// count the tree needs to commit an OPEN/CLAIM in the first place.
func (p NetworkParams) LockupPeriod() int64 {
	return p.TreeInterval
}

// MainParams are the Handshake mainnet consensus parameters.
var MainParams = NetworkParams{
	Name:            "main",
	TreeInterval:    36,
	BiddingPeriod:   1440,
	RevealPeriod:    1440,
	HalvingInterval: 170000,
	BaseReward:      2000 * 1e6,
}

// TestParams are the Handshake testnet consensus parameters.
var TestParams = NetworkParams{
	Name:            "testnet",
	TreeInterval:    36,
	BiddingPeriod:   720,
	RevealPeriod:    720,
	HalvingInterval: 170000,
	BaseReward:      2000 * 1e6,
}

// RegtestParams are used for local regression networks.
var RegtestParams = NetworkParams{
	Name:            "regtest",
	TreeInterval:    5,
	BiddingPeriod:   5,
	RevealPeriod:    10,
	HalvingInterval: 2500,
	BaseReward:      2000 * 1e6,
}

// SimnetParams are used for simulation networks.
var SimnetParams = NetworkParams{
	Name:            "simnet",
	TreeInterval:    8,
	BiddingPeriod:   8,
	RevealPeriod:    8,
	HalvingInterval: 170000,
	BaseReward:      2000 * 1e6,
}

// ParamsForNetwork resolves a network name (as found in config) to its
// consensus parameters, defaulting to mainnet for unrecognized values.
func ParamsForNetwork(network string) NetworkParams {
	switch strings.ToLower(network) {
	case "testnet", "test":
		return TestParams
	case "regtest":
		return RegtestParams
	case "simnet":
		return SimnetParams
	default:
		return MainParams
	}
}

// GetReward computes the coinbase subsidy at height, halving every
// halvingInterval blocks until it bottoms out.
func (p NetworkParams) GetReward(height int64) int64 {
	halvings := height / p.HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return p.BaseReward >> uint(halvings)
}

// NameStatus enumerates the observable phases of the auction state machine
// (§4.2). LOCKED sits between REVEAL and CLOSED: the auction has a winner
// but the name isn't registerable until the urkel tree commits it.
type NameStatus string

const (
	StatusOpening  NameStatus = "OPENING"
	StatusBidding  NameStatus = "BIDDING"
	StatusReveal   NameStatus = "REVEAL"
	StatusClosed   NameStatus = "CLOSED"
	StatusLocked   NameStatus = "LOCKED"
	StatusInactive NameStatus = "INACTIVE"
)

// NextState returns the state a name transitions to next, per spec §9's
// resolution of the ambiguous source fallthrough: CLOSED names continue
// their lifetime via RENEWAL; any other/unknown status defaults to OPENING.
func NextState(status NameStatus) string {
	switch status {
	case StatusClosed:
		return "RENEWAL"
	default:
		return "OPENING"
	}
}

// HeightWindow computes the (min, max] height window for a lifecycle status
// at chain tip height H, per the table in §4.3.
func (p NetworkParams) HeightWindow(status NameStatus, tip int64) (min, max int64) {
	openPeriod := p.OpenPeriod()
	switch status {
	case StatusOpening:
		return tip - openPeriod, tip
	case StatusBidding:
		return tip - openPeriod - p.BiddingPeriod, tip - openPeriod
	case StatusReveal:
		return tip - openPeriod - p.BiddingPeriod - p.RevealPeriod, tip - openPeriod - p.BiddingPeriod
	case StatusLocked:
		closeHeight := tip - openPeriod - p.BiddingPeriod - p.RevealPeriod
		return closeHeight - p.LockupPeriod(), closeHeight
	case StatusClosed:
		return 0, tip - openPeriod - p.BiddingPeriod - p.RevealPeriod - p.LockupPeriod()
	default:
		return 0, tip
	}
}

// VerifyString is a name-validity heuristic used by search (§4.3): a valid
// HNS name is 1-63 ASCII characters drawn from [a-z0-9-], not starting or
// ending with a hyphen, and not all-numeric (which would collide with
// height-based search hits).
func VerifyString(s string) bool {
	if len(s) == 0 || len(s) > 63 {
		return false
	}
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	allDigits := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			allDigits = false
		case r >= '0' && r <= '9':
			// digits allowed but don't disprove allDigits
		case r == '-':
			allDigits = false
		default:
			return false
		}
	}
	return !allDigits
}
