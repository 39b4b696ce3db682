package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hnsexplorer/indexer/internal/query"
)

func newTestContext(rawQuery string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return c
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		key      string
		def, max int
		want     int
	}{
		{"missing uses default", "", "limit", 25, 50, 25},
		{"valid value", "limit=10", "limit", 25, 50, 10},
		{"clamped to max", "limit=999", "limit", 25, 50, 50},
		{"negative falls back to default", "limit=-5", "limit", 25, 50, 25},
		{"non-numeric falls back to default", "limit=abc", "limit", 25, 50, 25},
	}
	for _, tt := range tests {
		c := newTestContext(tt.query)
		if got := queryInt(c, tt.key, tt.def, tt.max); got != tt.want {
			t.Errorf("%s: queryInt() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestQueryInt64(t *testing.T) {
	tests := []struct {
		name  string
		query string
		key   string
		def   int64
		want  int64
	}{
		{"missing uses default", "", "startTime", 0, 0},
		{"valid value", "startTime=1700000000", "startTime", 0, 1700000000},
		{"non-numeric falls back to default", "startTime=nope", "startTime", 0, 0},
	}
	for _, tt := range tests {
		c := newTestContext(tt.query)
		if got := queryInt64(c, tt.key, tt.def); got != tt.want {
			t.Errorf("%s: queryInt64() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	apiErr := NewNotFoundError("block_not_found", "no such block")
	if got := classify(apiErr); got != apiErr {
		t.Errorf("classify() on an *Error should return it unchanged, got %v", got)
	}

	if got := classify(query.ErrInvalidParam); got.Class != ClassInput {
		t.Errorf("classify(ErrInvalidParam).Class = %v, want %v", got.Class, ClassInput)
	}

	wrapped := errors.New("connection refused")
	if got := classify(wrapped); got.Class != ClassTransient {
		t.Errorf("classify(unknown err).Class = %v, want %v", got.Class, ClassTransient)
	}
}
