package indexer

import (
	"strings"

	"github.com/spf13/viper"
)

// PoolTable attributes a coinbase output address to a known mining pool's
// label, the way a block explorer annotates "mined by" (§4.2 step 4, Open
// Question Decision #5). It generalizes the teacher's viper-based config
// loading (pkg/config/config.go) to a second, independent YAML document
// rather than pulling in a new parsing dependency.
type PoolTable struct {
	byAddress map[string]string
}

// LoadPoolTable reads a YAML document of the form:
//
//	pools:
//	  hs1qexampleaddress...: "ExamplePool"
//
// A missing or unreadable file yields an empty table (every coinbase then
// attributes to "unknown") rather than an error — the pool table is an
// enrichment, not a correctness dependency.
func LoadPoolTable(path string) *PoolTable {
	t := &PoolTable{byAddress: make(map[string]string)}
	if path == "" {
		return t
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return t
	}

	raw := v.GetStringMapString("pools")
	for addr, label := range raw {
		t.byAddress[strings.ToLower(addr)] = label
	}
	return t
}

// Attribute returns the pool label for a coinbase address, or "unknown" if
// no entry matches (first match wins; the table holds at most one label per
// address).
func (t *PoolTable) Attribute(address string) string {
	if t == nil {
		return "unknown"
	}
	if label, ok := t.byAddress[strings.ToLower(address)]; ok {
		return label
	}
	return "unknown"
}
