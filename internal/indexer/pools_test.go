package indexer

import "testing"

func TestPoolTableAttribute(t *testing.T) {
	table := &PoolTable{byAddress: map[string]string{
		"hs1qpool": "ExamplePool",
	}}

	if got := table.Attribute("hs1qpool"); got != "ExamplePool" {
		t.Errorf("Attribute(known) = %q, want %q", got, "ExamplePool")
	}
	if got := table.Attribute("HS1QPOOL"); got != "ExamplePool" {
		t.Errorf("Attribute should be case-insensitive, got %q", got)
	}
	if got := table.Attribute("hs1qunknown"); got != "unknown" {
		t.Errorf("Attribute(unknown) = %q, want %q", got, "unknown")
	}
}

func TestLoadPoolTableMissingFile(t *testing.T) {
	table := LoadPoolTable("/nonexistent/pools.yaml")
	if got := table.Attribute("anything"); got != "unknown" {
		t.Errorf("a missing pool table should attribute everything to unknown, got %q", got)
	}
}

func TestLoadPoolTableEmptyPath(t *testing.T) {
	table := LoadPoolTable("")
	if got := table.Attribute("anything"); got != "unknown" {
		t.Errorf("an empty path should attribute everything to unknown, got %q", got)
	}
}
