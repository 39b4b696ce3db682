package hns

import "math/big"

// maxTargetBits is the minimum-difficulty target (difficulty 1), encoded as
// compact "bits" the way every block header reports its target. Handshake
// inherits the Bitcoin-family compact encoding, so the conversion below
// follows the same bit-shifting arithmetic as the rest of that family; no
// pack dependency exposes this as a library call, so it lives on math/big
// (see DESIGN.md).
const maxTargetBits uint32 = 0x1d00ffff

// BitsToDifficulty converts a compact-encoded target ("bits", as carried by
// a block header) into the conventional floating-point difficulty figure
// used by getStatus and the per-day summary's averaged difficulty (§4.3).
func BitsToDifficulty(bits uint32) float64 {
	target := compactToBig(bits)
	if target.Sign() <= 0 {
		return 0
	}
	maxTarget := compactToBig(maxTargetBits)

	maxF := new(big.Float).SetInt(maxTarget)
	targetF := new(big.Float).SetInt(target)
	diff := new(big.Float).Quo(maxF, targetF)

	result, _ := diff.Float64()
	return result
}

// compactToBig expands the compact "bits" encoding into its full target
// value: the low 24 bits are a mantissa, the high byte an exponent in bytes.
func compactToBig(bits uint32) *big.Int {
	mantissa := bits & 0x007fffff
	exponent := bits >> 24

	target := new(big.Int)
	if exponent <= 3 {
		target.SetInt64(int64(mantissa >> (8 * (3 - exponent))))
	} else {
		target.SetInt64(int64(mantissa))
		target.Lsh(target, 8*(uint(exponent)-3))
	}
	return target
}
