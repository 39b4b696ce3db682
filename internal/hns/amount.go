package hns

import "fmt"

// DollarydooPerHNS is the base-unit scale for Handshake's native coin: HNS
// has 6 decimal places, unlike Bitcoin's 8 (btcutil.Amount assumes 8, so it
// is not reused here).
const DollarydooPerHNS = 1_000_000

// Amount represents a quantity of base units ("dollarydoos"). It is kept as
// a plain int64 newtype rather than a float to avoid rounding drift across
// the summary's cumulative supply/burned counters (§3).
type Amount int64

// ToHNS converts base units to whole-coin units (divide by 10^6), as used by
// the Summary record's supply/burned fields (§3) and getSeries (§4.3).
func (a Amount) ToHNS() float64 {
	return float64(a) / DollarydooPerHNS
}

// String formats the amount as a fixed 6-decimal HNS value.
func (a Amount) String() string {
	return fmt.Sprintf("%.6f", a.ToHNS())
}
