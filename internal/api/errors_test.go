package api

import "testing"

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"input", NewInputError("bad_height", "height must be non-negative"), 400},
		{"not_found", NewNotFoundError("block_not_found", "no such block"), 404},
		{"transient", NewTransientError("node_unreachable", "upstream node timed out"), 503},
		{"internal", NewInternalError("join_failed", "failed to join transactions"), 500},
	}
	for _, tt := range tests {
		if got := tt.err.Status(); got != tt.want {
			t.Errorf("%s: Status() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewNotFoundError("name_not_found", "no such name")
	want := "not_found: no such name"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
