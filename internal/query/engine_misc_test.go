package query

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.005, 1.01},
		{1.234, 1.23},
		{1.236, 1.24},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsHex(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"deadbeef", true},
		{"DEADBEEF", true},
		{"0123456789abcdef", true},
		{"not-hex", false},
		{"", true},
	}
	for _, tt := range tests {
		if got := isHex(tt.s); got != tt.want {
			t.Errorf("isHex(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
