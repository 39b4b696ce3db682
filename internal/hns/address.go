package hns

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// hrpForNetwork returns the bech32 human-readable part used by Handshake
// addresses on a given network, mirroring hsd's Network.addressPrefix.
func hrpForNetwork(network string) string {
	switch network {
	case "testnet":
		return "ts"
	case "regtest":
		return "rs"
	case "simnet":
		return "ss"
	default:
		return "hs"
	}
}

// ValidateAddress reports whether addr is a syntactically valid Handshake
// bech32 address for the given network. It does not contact the node; it is
// used by getAddress/search input validation only (§4.3's search heuristic
// and §7's Input-class validation).
func ValidateAddress(addr, network string) bool {
	hrp, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return false
	}
	if hrp != hrpForNetwork(network) {
		return false
	}
	converted, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return false
	}
	version := data[0]
	if version > 31 {
		return false
	}
	if version == 0 && len(converted) != 20 && len(converted) != 32 {
		return false
	}
	return len(converted) >= 2 && len(converted) <= 40
}

// AddressHash decodes addr into its raw program bytes, suitable for use as
// the `address` hash key in coin/tx records (§3). Returns an error for
// malformed input so callers can surface an Input-class (400) error.
func AddressHash(addr, network string) ([]byte, error) {
	hrp, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address encoding: %w", err)
	}
	if hrp != hrpForNetwork(network) {
		return nil, fmt.Errorf("address %q is not valid for network %q", addr, network)
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("empty address payload")
	}
	converted, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("invalid address payload: %w", err)
	}
	return converted, nil
}
