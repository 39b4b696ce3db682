package indexer

import (
	"testing"

	"github.com/hnsexplorer/indexer/internal/store"
)

func TestSecondPriceRule(t *testing.T) {
	cases := []struct {
		name            string
		value, highest  int64
		reveal          int64
		wantValue       int64
		wantHighest     int64
	}{
		{"below current value is a no-op", 100, 500, 50, 100, 500},
		{"equal to current value is a no-op", 100, 500, 100, 100, 500},
		{"between value and highest raises the price", 100, 500, 300, 300, 500},
		{"equal to highest raises the price to it", 100, 500, 500, 500, 500},
		{"new leader: value becomes the old highest", 100, 500, 900, 500, 900},
		{"first reveal on an untouched name", 0, 0, 10, 0, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := &store.Name{NameHash: "abc", Value: tc.value, Highest: tc.highest}
			switch {
			case tc.reveal <= n.Value:
			case tc.reveal <= n.Highest:
				n.Value = tc.reveal
			default:
				n.Value = n.Highest
				n.Highest = tc.reveal
			}
			if n.Value != tc.wantValue || n.Highest != tc.wantHighest {
				t.Errorf("got value=%d highest=%d, want value=%d highest=%d",
					n.Value, n.Highest, tc.wantValue, tc.wantHighest)
			}
		})
	}
}

func TestDayBucket(t *testing.T) {
	cases := []struct {
		t    int64
		want int64
	}{
		{0, 0},
		{86399, 0},
		{86400, 86400},
		{86400 + 3600, 86400},
		{172800 - 1, 86400},
	}
	for _, tc := range cases {
		if got := dayBucket(tc.t); got != tc.want {
			t.Errorf("dayBucket(%d) = %d, want %d", tc.t, got, tc.want)
		}
	}
}
