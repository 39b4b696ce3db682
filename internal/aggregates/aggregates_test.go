package aggregates

import (
	"testing"

	"github.com/hnsexplorer/indexer/internal/store"
)

func TestSelectTopBidsStopsAtK(t *testing.T) {
	rows := []store.Coin{
		{NameHash: "a", Value: 900},
		{NameHash: "b", Value: 800},
		{NameHash: "a", Value: 700}, // duplicate name, already seen, skipped
		{NameHash: "c", Value: 600},
	}
	order, values := selectTopBids(rows, 2)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order = %v, want [a b]", order)
	}
	if values["a"] != 900 || values["b"] != 800 {
		t.Errorf("values = %v, want a=900 b=800", values)
	}
}

func TestSelectTopBidsFewerThanK(t *testing.T) {
	rows := []store.Coin{{NameHash: "a", Value: 100}}
	order, values := selectTopBids(rows, 5)
	if len(order) != 1 || values["a"] != 100 {
		t.Errorf("order=%v values=%v, want one entry a=100", order, values)
	}
}

func TestSnapshotDefaultsNonNil(t *testing.T) {
	a := &Aggregates{}
	a.snap.Store(&Snapshot{})
	if a.Snapshot() == nil {
		t.Fatal("Snapshot() returned nil")
	}
}
