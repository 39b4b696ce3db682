package indexer

import (
	"testing"

	"github.com/hnsexplorer/indexer/internal/node"
)

func TestIsCoinbase(t *testing.T) {
	cases := []struct {
		name string
		tx   node.Tx
		want bool
	}{
		{"coinbase input", node.Tx{Inputs: []node.Input{{Coinbase: true}}}, true},
		{"ordinary spend", node.Tx{Inputs: []node.Input{{PrevTxid: "abc", PrevIndex: 1}}}, false},
		{"no inputs", node.Tx{}, false},
	}
	for _, tc := range cases {
		if got := isCoinbase(tc.tx); got != tc.want {
			t.Errorf("%s: isCoinbase() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOutputAddress(t *testing.T) {
	cases := []struct {
		name string
		out  node.Output
		want string
	}{
		{"prefers bech32 string", node.Output{Address: node.Address{String: "hs1qexample", Hash: "deadbeef"}}, "hs1qexample"},
		{"falls back to raw hash", node.Output{Address: node.Address{Hash: "deadbeef"}}, "deadbeef"},
	}
	for _, tc := range cases {
		if got := outputAddress(tc.out); got != tc.want {
			t.Errorf("%s: outputAddress() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDecodeHexName(t *testing.T) {
	if got := decodeHexName("686e73"); got != "hns" {
		t.Errorf("decodeHexName(686e73) = %q, want %q", got, "hns")
	}
	if got := decodeHexName("not-hex"); got != "not-hex" {
		t.Errorf("decodeHexName should fall back to the input on decode failure, got %q", got)
	}
}

func TestJoinHex(t *testing.T) {
	if got := joinHex(nil); got != "" {
		t.Errorf("joinHex(nil) = %q, want empty", got)
	}
	if got := joinHex([]string{"aa", "bb"}); got != "aa,bb" {
		t.Errorf("joinHex = %q, want %q", got, "aa,bb")
	}
}
