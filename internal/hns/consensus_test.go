package hns

import "testing"

func TestGetReward(t *testing.T) {
	p := NetworkParams{HalvingInterval: 100, BaseReward: 800}

	tests := []struct {
		height int64
		want   int64
	}{
		{0, 800},
		{99, 800},
		{100, 400},
		{250, 200},
		{100 * 64, 0},
	}

	for _, tt := range tests {
		if got := p.GetReward(tt.height); got != tt.want {
			t.Errorf("GetReward(%d) = %d, want %d", tt.height, got, tt.want)
		}
	}
}

func TestNextState(t *testing.T) {
	tests := []struct {
		status NameStatus
		want   string
	}{
		{StatusClosed, "RENEWAL"},
		{StatusOpening, "OPENING"},
		{StatusBidding, "OPENING"},
		{StatusReveal, "OPENING"},
		{NameStatus("UNKNOWN"), "OPENING"},
	}

	for _, tt := range tests {
		if got := NextState(tt.status); got != tt.want {
			t.Errorf("NextState(%s) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestHeightWindow(t *testing.T) {
	p := NetworkParams{TreeInterval: 36, BiddingPeriod: 1440, RevealPeriod: 1440}
	tip := int64(10000)

	min, max := p.HeightWindow(StatusOpening, tip)
	if min != tip-37 || max != tip {
		t.Errorf("OPENING window = (%d,%d], want (%d,%d]", min, max, tip-37, tip)
	}

	min, max = p.HeightWindow(StatusLocked, tip)
	closeHeight := tip - 37 - 1440 - 1440
	if min != closeHeight-36 || max != closeHeight {
		t.Errorf("LOCKED window = (%d,%d], want (%d,%d]", min, max, closeHeight-36, closeHeight)
	}

	min, max = p.HeightWindow(StatusClosed, tip)
	if min != 0 || max != closeHeight-36 {
		t.Errorf("CLOSED window = (%d,%d], want (0,%d]", min, max, closeHeight-36)
	}
}

func TestVerifyString(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want bool
	}{
		{"valid name", "handshake", true},
		{"alnum mixed", "foo123", true},
		{"too long", string(make([]byte, 64)), false},
		{"empty", "", false},
		{"leading hyphen", "-foo", false},
		{"trailing hyphen", "foo-", false},
		{"all digits", "42", false},
		{"uppercase rejected", "Foo", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyString(tt.s); got != tt.want {
				t.Errorf("VerifyString(%q) = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}
