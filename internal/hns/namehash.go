package hns

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// NameHash computes the lowercase-hex blake2b-256 digest used as a name's
// canonical key throughout the store and the upstream node's name-state
// lookups (§4.3's getName: "compute nameHash = hash(name)").
func NameHash(name string) string {
	sum := blake2b.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])
}
