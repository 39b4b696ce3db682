// Package hns holds domain primitives shared by the indexer and the query
// engine: covenant types, consensus parameters, and address encoding for the
// Handshake chain.
package hns

// CovenantType identifies the action a transaction output encodes against a
// name. The numeric values follow the Handshake consensus enum so that wire
// data captured verbatim from the upstream node round-trips without
// translation.
type CovenantType int

const (
	CovenantNone CovenantType = iota
	CovenantClaim
	CovenantOpen
	CovenantBid
	CovenantReveal
	CovenantRedeem
	CovenantRegister
	CovenantUpdate
	CovenantRenew
	CovenantTransfer
	CovenantFinalize
	CovenantRevoke
)

// IsName reports whether a covenant type carries a nameHash in its items.
func (c CovenantType) IsName() bool {
	return c != CovenantNone
}

// String returns the uppercase consensus name of the covenant type.
func (c CovenantType) String() string {
	switch c {
	case CovenantNone:
		return "NONE"
	case CovenantClaim:
		return "CLAIM"
	case CovenantOpen:
		return "OPEN"
	case CovenantBid:
		return "BID"
	case CovenantReveal:
		return "REVEAL"
	case CovenantRedeem:
		return "REDEEM"
	case CovenantRegister:
		return "REGISTER"
	case CovenantUpdate:
		return "UPDATE"
	case CovenantRenew:
		return "RENEW"
	case CovenantTransfer:
		return "TRANSFER"
	case CovenantFinalize:
		return "FINALIZE"
	case CovenantRevoke:
		return "REVOKE"
	default:
		return "UNKNOWN"
	}
}

// ActionLabel maps a covenant type to the label used by getNameHistory (§4.3).
func (c CovenantType) ActionLabel() string {
	switch c {
	case CovenantOpen, CovenantClaim:
		return "Opened"
	case CovenantBid:
		return "Bid"
	case CovenantReveal:
		return "Reveal"
	case CovenantRegister:
		return "Register"
	case CovenantRedeem:
		return "Redeem"
	case CovenantUpdate:
		return "Update"
	case CovenantRenew:
		return "Renew"
	case CovenantTransfer:
		return "Transfer"
	case CovenantFinalize:
		return "Finalize"
	case CovenantRevoke:
		return "Revoke"
	default:
		return "Unknown"
	}
}

// HasValue reports whether getNameHistory should include the output value
// for this action (BID/REVEAL/REDEEM per §4.3).
func (c CovenantType) HasValue() bool {
	switch c {
	case CovenantBid, CovenantReveal, CovenantRedeem:
		return true
	default:
		return false
	}
}
